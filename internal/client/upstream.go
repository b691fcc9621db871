// Package client provides the outbound HTTPS client for the upstream API.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"quizcraft-proxy/internal/config"
	"quizcraft-proxy/internal/metrics"
	"quizcraft-proxy/internal/model"
)

// UpstreamClient sends authenticated requests to the upstream API.
type UpstreamClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewUpstreamClient creates an UpstreamClient with connection pooling.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewUpstreamClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *UpstreamClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &UpstreamClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
			// A 3xx is relayed like any other status; following it would
			// re-send the credential and issue a second outbound call.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger:  logger.With("component", "upstream_client"),
		metrics: m,
	}
}

// Do executes an HTTP request against the upstream and buffers the whole response body.
func (c *UpstreamClient) Do(req *http.Request) (*model.UpstreamResponse, error) {
	c.logger.Debug("upstream request",
		"method", req.Method,
		"host", req.URL.Host,
		"path", req.URL.Path,
		"bytes_in", req.ContentLength,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	method := metrics.NormalizeMethod(req.Method)

	if err != nil {
		c.observe(method, "", time.Since(start))
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	c.observe(method, strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}

	return &model.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// Post sends ur as a JSON POST with a bearer credential.
// The provided context controls the lifetime of the upstream exchange.
func (c *UpstreamClient) Post(ctx context.Context, ur *model.UpstreamRequest) (*model.UpstreamResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ur.URL, bytes.NewReader(ur.Body))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ur.APIKey)
	req.Header.Set("Content-Length", strconv.Itoa(len(ur.Body)))
	req.ContentLength = int64(len(ur.Body))

	return c.Do(req)
}

func (c *UpstreamClient) observe(method, status string, d time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamDuration.WithLabelValues(method).Observe(d.Seconds())
	if status != "" {
		c.metrics.UpstreamResponses.WithLabelValues(method, status).Inc()
	}
}

// CloseIdleConnections releases pooled upstream connections.
func (c *UpstreamClient) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}
