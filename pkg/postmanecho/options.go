package postmanecho

import (
	"github.com/samvad-hq/postman-echo-client/pkg/auth"
	"github.com/samvad-hq/postman-echo-client/pkg/endpoints"
)

// Option configures a Client at construction.
type Option func(*Client)

// WithEndpoints points the client at another deployment of the echo service.
func WithEndpoints(c *endpoints.Catalogue) Option {
	return func(cl *Client) {
		if c != nil {
			cl.endpoints = c
		}
	}
}

// WithDefaultHeader adds a header sent with every request. Empty names are ignored.
func WithDefaultHeader(name, value string) Option {
	return func(cl *Client) {
		_ = auth.Set(cl.headers, name, value)
	}
}

// WithDefaultHeaders adds several headers sent with every request.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(cl *Client) {
		for k, v := range headers {
			_ = auth.Set(cl.headers, k, v)
		}
	}
}

// WithLogger sets the logger used for per request debug records.
func WithLogger(log Logger) Option {
	return func(cl *Client) {
		cl.log = ensureLogger(log)
	}
}

// CallOption adjusts the headers of a single request.
type CallOption func(headers map[string]string) error

// Header sets a request header for one call, replacing any default of the
// same name. An empty name fails the call before anything is sent.
func Header(name, value string) CallOption {
	return func(headers map[string]string) error {
		return auth.Set(headers, name, value)
	}
}
