package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is a minimal HTTP response contract. Body returns the raw bytes
// as received; no content decoding is applied.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// Body is a request payload with its content type.
type Body struct {
	ContentType string
	Data        []byte
}

// TextBody builds a plain text payload.
func TextBody(s string) *Body {
	return &Body{ContentType: "text/plain; charset=utf-8", Data: []byte(s)}
}

// JSONBody marshals v into a JSON payload.
func JSONBody(v any) (*Body, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json body: %w", err)
	}
	return &Body{ContentType: "application/json", Data: data}, nil
}

// Request describes a single round trip.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    *Body
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}
