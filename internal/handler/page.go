package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"quizcraft-proxy/internal/config"
)

// PageHandler serves the single static HTML page.
type PageHandler struct {
	path   string
	logger *slog.Logger
}

// NewPageHandler creates a PageHandler for the configured page location.
func NewPageHandler(cfg *config.Config, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		path:   cfg.Static.ResolvePath(),
		logger: logger.With("component", "page_handler"),
	}
}

// Serve reads the page from disk on every call so edits show up without a restart.
func (h *PageHandler) Serve(c echo.Context) error {
	data, err := os.ReadFile(h.path)
	if err != nil {
		h.logger.Warn("static page unavailable", "path", h.path, "err", err)
		name := filepath.Base(h.path)
		return c.String(http.StatusNotFound,
			fmt.Sprintf("%s not found - make sure it is in the same folder as the server", name))
	}
	return c.Blob(http.StatusOK, echo.MIMETextHTML, data)
}
