// Package model defines shared types for the proxy.
package model

import (
	"encoding/json"
)

// ProxyEnvelope is the JSON body a browser posts to /api/openai.
// APIKey stays raw so the service can reject non-string credentials.
type ProxyEnvelope struct {
	APIKey  json.RawMessage `json:"apiKey"`
	Payload json.RawMessage `json:"payload"`
}

// UpstreamRequest is a single authenticated call to the fixed upstream endpoint.
type UpstreamRequest struct {
	URL    string
	APIKey string
	Body   []byte
}

// UpstreamResponse is the fully buffered upstream reply relayed to the caller.
type UpstreamResponse struct {
	StatusCode int
	Body       []byte
}

// ErrorEnvelope is the body of every locally synthesized JSON error.
type ErrorEnvelope struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the human-readable error text.
type ErrorDetail struct {
	Message string `json:"message"`
}

// NewErrorEnvelope wraps msg in the {"error":{"message":...}} shape.
func NewErrorEnvelope(msg string) ErrorEnvelope {
	return ErrorEnvelope{Error: ErrorDetail{Message: msg}}
}
