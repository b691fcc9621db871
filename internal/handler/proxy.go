package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"quizcraft-proxy/internal/model"
	"quizcraft-proxy/internal/service"
)

// bearerPattern matches bearer credentials that may surface in error messages.
var bearerPattern = regexp.MustCompile(`(?i)(Bearer\s+)[^\s"',]+`)

// ProxyHandler forwards /api/openai requests to the upstream API.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle reads the whole envelope, forwards its payload and relays the upstream
// status and body unchanged.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		// BodyLimit surfaces as an *echo.HTTPError; let the error handler answer it.
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		h.logger.Warn("reading request body", "err", sanitizeError(err))
		return writeError(c, http.StatusBadRequest, service.ErrInvalidJSON.Error())
	}

	resp, err := h.service.Forward(req.Context(), body)
	if err != nil {
		return h.mapError(c, err)
	}

	// Upstream status and body are relayed verbatim, whatever they contain.
	return c.Blob(resp.StatusCode, echo.MIMEApplicationJSON, resp.Body)
}

func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidJSON), errors.Is(err, service.ErrMissingAPIKey):
		h.logger.Info("rejected proxy request", "reason", err.Error())
		return writeError(c, http.StatusBadRequest, err.Error())
	}

	h.logger.Error("proxy error",
		"err", sanitizeError(err),
		"path", c.Request().URL.Path,
	)

	var ue *service.UpstreamError
	if errors.As(err, &ue) {
		return writeError(c, http.StatusInternalServerError, ue.Error())
	}
	return writeError(c, http.StatusInternalServerError, err.Error())
}

// writeError sends the {"error":{"message":...}} envelope without a trailing newline.
func writeError(c echo.Context, status int, msg string) error {
	b, err := json.Marshal(model.NewErrorEnvelope(msg))
	if err != nil {
		return err
	}
	return c.Blob(status, echo.MIMEApplicationJSON, b)
}

// sanitizeError redacts bearer credentials from error messages before logging.
func sanitizeError(err error) string {
	return bearerPattern.ReplaceAllString(err.Error(), "${1}[REDACTED]")
}
