package main

import (
	"log/slog"
	"testing"

	"go.uber.org/fx"

	"quizcraft-proxy/internal/config"
)

func TestAppOptions_GraphIsComplete(t *testing.T) {
	if err := fx.ValidateApp(appOptions(&config.CLI{})); err != nil {
		t.Fatalf("ValidateApp() error = %v", err)
	}
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		debugOn bool
	}{
		{"debug", "json", true},
		{"info", "text", false},
		{"WARN", "json", false},
		{"error", "text", false},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			cfg := &config.Config{Log: config.LogConfig{Level: tt.level, Format: tt.format}}
			logger := newLogger(cfg)
			if got := logger.Enabled(t.Context(), slog.LevelDebug); got != tt.debugOn {
				t.Errorf("debug enabled = %v, want %v", got, tt.debugOn)
			}
		})
	}
}
