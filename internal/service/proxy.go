// Package service implements the core proxy forwarding logic.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"quizcraft-proxy/internal/client"
	"quizcraft-proxy/internal/config"
	"quizcraft-proxy/internal/model"
)

var (
	// ErrInvalidJSON is returned when the inbound body is not valid JSON.
	ErrInvalidJSON = errors.New("Invalid JSON body") //nolint:staticcheck // text is part of the wire contract

	// ErrMissingAPIKey is returned when the envelope carries no usable apiKey.
	ErrMissingAPIKey = errors.New("Missing apiKey in request body") //nolint:staticcheck // text is part of the wire contract
)

// allowedUpstreamHosts restricts which hosts the proxy will forward to.
var allowedUpstreamHosts = map[string]bool{
	"api.openai.com": true,
}

// UpstreamError marks a failure to complete the exchange with the upstream
// (DNS, connect, TLS, transport timeout or a broken response body).
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return e.Err.Error() }

func (e *UpstreamError) Unwrap() error { return e.Err }

// Forwarder sends an authenticated request upstream and returns the buffered reply.
type Forwarder interface {
	Post(ctx context.Context, ur *model.UpstreamRequest) (*model.UpstreamResponse, error)
}

// ProxyService turns a Proxy Envelope into a single upstream call.
type ProxyService struct {
	client      Forwarder
	logger      *slog.Logger
	upstreamURL string
}

// NewProxyService creates a ProxyService bound to the configured upstream endpoint.
func NewProxyService(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger) (*ProxyService, error) {
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}

	if !allowedUpstreamHosts[u.Hostname()] {
		return nil, fmt.Errorf("upstream host %q is not in the allowlist", u.Hostname())
	}

	return newProxyService(c, cfg, logger), nil
}

// NewProxyServiceForTest creates a ProxyService without host allowlist validation.
// This is intended only for tests that use httptest servers on localhost.
func NewProxyServiceForTest(c Forwarder, cfg *config.Config, logger *slog.Logger) *ProxyService {
	return newProxyService(c, cfg, logger)
}

func newProxyService(c Forwarder, cfg *config.Config, logger *slog.Logger) *ProxyService {
	return &ProxyService{
		client:      c,
		logger:      logger.With("component", "proxy_service"),
		upstreamURL: cfg.Upstream.UpstreamURL(),
	}
}

// Forward validates body as a Proxy Envelope and relays its payload upstream.
//
// ErrInvalidJSON and ErrMissingAPIKey are returned before any outbound call.
// Transport failures come back wrapped in *UpstreamError. Any upstream status,
// including 4xx/5xx, is a successful result.
func (s *ProxyService) Forward(ctx context.Context, body []byte) (*model.UpstreamResponse, error) {
	env, err := parseEnvelope(body)
	if err != nil {
		return nil, err
	}

	apiKey, ok := extractAPIKey(env.APIKey)
	if !ok {
		return nil, ErrMissingAPIKey
	}

	payload, err := serializePayload(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("serialize payload: %w", err)
	}

	s.logger.Debug("forwarding request", "bytes", len(payload))

	resp, err := s.client.Post(ctx, &model.UpstreamRequest{
		URL:    s.upstreamURL,
		APIKey: apiKey,
		Body:   payload,
	})
	if err != nil {
		return nil, fmt.Errorf("forward to upstream: %w", &UpstreamError{Err: err})
	}

	s.logger.Debug("upstream responded", "status", resp.StatusCode, "bytes", len(resp.Body))
	return resp, nil
}

// parseEnvelope decodes body. A JSON value that is not an object yields an
// empty envelope, which is then rejected for its missing apiKey.
func parseEnvelope(body []byte) (*model.ProxyEnvelope, error) {
	if !json.Valid(body) {
		return nil, ErrInvalidJSON
	}

	var env model.ProxyEnvelope
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, ErrInvalidJSON
		}
	}
	return &env, nil
}

// extractAPIKey accepts only a non-empty JSON string.
func extractAPIKey(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var key string
	if err := json.Unmarshal(raw, &key); err != nil {
		return "", false
	}
	return key, key != ""
}

// serializePayload returns the compact JSON form of payload; an absent payload is null.
func serializePayload(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
