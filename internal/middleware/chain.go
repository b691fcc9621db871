package middleware

import (
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"quizcraft-proxy/internal/config"
	"quizcraft-proxy/internal/metrics"
)

// Install registers the gateway middleware chain on e in serving order.
// CORS runs first so its headers are on every response, including recovered
// panics, oversized bodies and unknown routes.
func Install(e *echo.Echo, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) {
	e.Use(CORS())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(RequestLogger(logger))
	if cfg.Metrics.Enabled {
		e.Use(MetricsMiddleware(m))
		logger.Info("metrics enabled", "path", cfg.Metrics.Path)
	}
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dB", cfg.Server.BodyMaxBytes)))
	e.Use(SecurityHeaders())
}
