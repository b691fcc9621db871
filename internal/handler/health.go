package handler

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"quizcraft-proxy/internal/config"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves the opt-in liveness and status endpoints.
type HealthHandler struct {
	upstreamURL string
	pagePath    string
	version     Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{
		upstreamURL: cfg.Upstream.UpstreamURL(),
		pagePath:    cfg.Static.ResolvePath(),
		version:     v,
	}
}

// Healthz answers liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// gatewayStatus is the /proxy/status body. It never carries a credential.
type gatewayStatus struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UpstreamURL   string `json:"upstream_url"`
	StaticPath    string `json:"static_path"`
	PageAvailable bool   `json:"page_available"`
}

// Status reports where requests are relayed and whether the page can be served.
func (h *HealthHandler) Status(c echo.Context) error {
	_, err := os.Stat(h.pagePath)
	return c.JSON(http.StatusOK, gatewayStatus{
		Status:        "ok",
		Version:       string(h.version),
		UpstreamURL:   h.upstreamURL,
		StaticPath:    h.pagePath,
		PageAvailable: err == nil,
	})
}
