package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quizcraft-proxy/internal/config"
	"quizcraft-proxy/internal/metrics"
)

// ProxyPath is the only route that reaches the upstream.
const ProxyPath = "/api/openai"

// RegisterRoutes wires all route handlers and the error handler onto the Echo instance.
// Health and metrics endpoints are registered only when enabled in config.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, m *metrics.Metrics, page *PageHandler, proxy *ProxyHandler, health *HealthHandler) {
	e.HTTPErrorHandler = ErrorHandler(e)

	e.GET("/", page.Serve)
	e.GET("/index.html", page.Serve)
	e.POST(ProxyPath, proxy.Handle)

	if cfg.Health.Enabled {
		e.GET("/healthz", health.Healthz)
		e.GET("/proxy/status", health.Status)
	}

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}

// ErrorHandler answers errors escaping the handler chain. Unknown routes and
// wrong methods both become a plain-text 404; everything else gets the JSON
// error envelope.
func ErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			}
		}

		var werr error
		switch code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			werr = c.String(http.StatusNotFound, "Not found")
		case http.StatusRequestEntityTooLarge:
			werr = writeError(c, code, "Request body too large")
		default:
			werr = writeError(c, code, msg)
		}
		if werr != nil {
			e.Logger.Error(werr)
		}
	}
}
