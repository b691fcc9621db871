package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"quizcraft-proxy/internal/client"
	"quizcraft-proxy/internal/config"
	"quizcraft-proxy/internal/model"
)

// fakeForwarder records calls and returns a canned reply.
type fakeForwarder struct {
	calls []*model.UpstreamRequest
	resp  *model.UpstreamResponse
	err   error
}

func (f *fakeForwarder) Post(_ context.Context, ur *model.UpstreamRequest) (*model.UpstreamResponse, error) {
	f.calls = append(f.calls, ur)
	return f.resp, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:         baseURL,
			Path:            "/v1/chat/completions",
			IdleConnections: 10,
		},
	}
}

func TestForward_RejectsBeforeOutboundCall(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"not json", `not valid json{`, ErrInvalidJSON},
		{"empty body", ``, ErrInvalidJSON},
		{"truncated object", `{"apiKey":"sk-test"`, ErrInvalidJSON},
		{"missing apiKey", `{"payload":{"x":1}}`, ErrMissingAPIKey},
		{"empty apiKey", `{"apiKey":"","payload":{}}`, ErrMissingAPIKey},
		{"null apiKey", `{"apiKey":null,"payload":{}}`, ErrMissingAPIKey},
		{"numeric apiKey", `{"apiKey":0,"payload":{}}`, ErrMissingAPIKey},
		{"boolean apiKey", `{"apiKey":true,"payload":{}}`, ErrMissingAPIKey},
		{"object apiKey", `{"apiKey":{"k":"v"},"payload":{}}`, ErrMissingAPIKey},
		{"array body", `[1,2,3]`, ErrMissingAPIKey},
		{"string body", `"sk-test"`, ErrMissingAPIKey},
		{"null body", `null`, ErrMissingAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fwd := &fakeForwarder{}
			s := NewProxyServiceForTest(fwd, testConfig("https://api.openai.com"), testLogger())

			_, err := s.Forward(context.Background(), []byte(tt.body))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Forward() error = %v, want %v", err, tt.wantErr)
			}
			if len(fwd.calls) != 0 {
				t.Errorf("outbound calls = %d, want 0", len(fwd.calls))
			}
		})
	}
}

func TestForward_SendsPayloadOnly(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"object payload", `{"apiKey":"sk-test","payload":{"model":"gpt-x"}}`, `{"model":"gpt-x"}`},
		{"whitespace compacted", `{ "apiKey" : "sk-test", "payload" : { "model" : "gpt-x", "n" : 2 } }`, `{"model":"gpt-x","n":2}`},
		{"missing payload", `{"apiKey":"sk-test"}`, `null`},
		{"array payload", `{"apiKey":"sk-test","payload":[1,2]}`, `[1,2]`},
		{"extra fields ignored", `{"apiKey":"sk-test","payload":{},"other":true}`, `{}`},
		{"duplicate key last wins", `{"apiKey":"sk-old","apiKey":"sk-test","payload":{}}`, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fwd := &fakeForwarder{resp: &model.UpstreamResponse{StatusCode: http.StatusOK, Body: []byte(`{}`)}}
			s := NewProxyServiceForTest(fwd, testConfig("https://api.openai.com"), testLogger())

			if _, err := s.Forward(context.Background(), []byte(tt.body)); err != nil {
				t.Fatalf("Forward() error = %v", err)
			}
			if len(fwd.calls) != 1 {
				t.Fatalf("outbound calls = %d, want 1", len(fwd.calls))
			}
			call := fwd.calls[0]
			if string(call.Body) != tt.want {
				t.Errorf("outbound body = %q, want %q", string(call.Body), tt.want)
			}
			if call.APIKey != "sk-test" {
				t.Errorf("APIKey = %q, want %q", call.APIKey, "sk-test")
			}
			if call.URL != "https://api.openai.com/v1/chat/completions" {
				t.Errorf("URL = %q, want %q", call.URL, "https://api.openai.com/v1/chat/completions")
			}
		})
	}
}

func TestForward_UpstreamErrorStatusIsNotAnError(t *testing.T) {
	fwd := &fakeForwarder{resp: &model.UpstreamResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       []byte(`{"error":"rate limited"}`),
	}}
	s := NewProxyServiceForTest(fwd, testConfig("https://api.openai.com"), testLogger())

	resp, err := s.Forward(context.Background(), []byte(`{"apiKey":"sk-test","payload":{}}`))
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}
	if string(resp.Body) != `{"error":"rate limited"}` {
		t.Errorf("body = %q, want %q", string(resp.Body), `{"error":"rate limited"}`)
	}
}

func TestForward_TransportFailureIsUpstreamError(t *testing.T) {
	dnsErr := &net.DNSError{Err: "no such host", Name: "api.openai.com", IsNotFound: true}
	fwd := &fakeForwarder{err: dnsErr}
	s := NewProxyServiceForTest(fwd, testConfig("https://api.openai.com"), testLogger())

	_, err := s.Forward(context.Background(), []byte(`{"apiKey":"sk-test","payload":{}}`))
	if err == nil {
		t.Fatal("Forward() expected error, got nil")
	}

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("Forward() error = %T, want *UpstreamError in chain", err)
	}
	if ue.Error() != dnsErr.Error() {
		t.Errorf("UpstreamError.Error() = %q, want %q", ue.Error(), dnsErr.Error())
	}
	var gotDNS *net.DNSError
	if !errors.As(err, &gotDNS) {
		t.Error("expected *net.DNSError to remain reachable via errors.As")
	}
}

func TestForward_HappyPath(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/v1/chat/completions")
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer sk-test")
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"model":"gpt-x"}` {
			t.Errorf("body = %q, want %q", string(body), `{"model":"gpt-x"}`)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"abc"}`))
	}))
	defer upstream.Close()

	cfg := testConfig(upstream.URL)
	logger := testLogger()
	uc := client.NewUpstreamClient(cfg, logger, nil)
	svc := NewProxyServiceForTest(uc, cfg, logger)

	resp, err := svc.Forward(context.Background(), []byte(`{"apiKey":"sk-test","payload":{"model":"gpt-x"}}`))
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if string(resp.Body) != `{"id":"abc"}` {
		t.Errorf("body = %q, want %q", string(resp.Body), `{"id":"abc"}`)
	}
}

func TestNewProxyService_AllowlistRejectsUnknownHost(t *testing.T) {
	_, err := NewProxyService(nil, testConfig("https://evil.com"), testLogger())
	if err == nil {
		t.Fatal("NewProxyService() expected error for disallowed host, got nil")
	}
}

func TestNewProxyService_AllowlistAcceptsOpenAI(t *testing.T) {
	svc, err := NewProxyService(nil, testConfig("https://api.openai.com"), testLogger())
	if err != nil {
		t.Fatalf("NewProxyService() error = %v", err)
	}
	if svc.upstreamURL != "https://api.openai.com/v1/chat/completions" {
		t.Errorf("upstreamURL = %q, want %q", svc.upstreamURL, "https://api.openai.com/v1/chat/completions")
	}
}
