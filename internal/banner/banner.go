// Package banner renders the human-readable startup message.
package banner

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
)

// Render returns the startup banner for a server listening on port.
func Render(port int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(color.Bold.Sprint("  ✦ QuizCraft server running!\n"))
	b.WriteString(fmt.Sprintf("  → Open %s in your browser\n", color.Green.Sprintf("http://localhost:%d", port)))
	b.WriteString("\n")
	b.WriteString(color.Gray.Sprint("  Press Ctrl+C to stop.\n"))
	b.WriteString("\n")
	return b.String()
}

// Print writes the banner to w.
func Print(w io.Writer, port int) {
	_, _ = io.WriteString(w, Render(port))
}
