// Package contract decodes the response bodies of the Postman Echo API into typed records.
//
// Records are built once and are meant to be read only. Fields missing from
// a well-formed document take their zero value; only an empty document
// (echoerr.ErrInvalidArgument) or malformed JSON (echoerr.ErrParse) fail.
package contract

import (
	"fmt"
	"strings"

	"github.com/samvad-hq/postman-echo-client/pkg/echoerr"
)

// MethodResponse is the echo of a request made to a request method or headers endpoint.
type MethodResponse struct {
	// URL the request was made to.
	URL string
	// Headers sent in the request, keyed by lower-cased name.
	Headers map[string]string
	// QueryString holds the query arguments (args field).
	QueryString map[string]string
	// Form holds url-encoded form fields sent in the body (form field).
	Form map[string]string
	// Body is the raw body sent in the request (data field). Nil when the
	// service reported no string body.
	Body *string
}

// ParseMethodResponse decodes a request method or headers endpoint response.
func ParseMethodResponse(json string) (*MethodResponse, error) {
	doc, err := parseDocument(json)
	if err != nil {
		return nil, err
	}

	return &MethodResponse{
		URL:         doc.String("url"),
		Headers:     doc.LowerStringMap("headers"),
		QueryString: doc.StringMap("args"),
		Form:        doc.StringMap("form"),
		Body:        doc.OptionalString("data"),
	}, nil
}

// GetHeader returns the echoed value of a request header. The name is matched case-insensitively.
func (r *MethodResponse) GetHeader(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: header name cannot be empty", echoerr.ErrInvalidArgument)
	}
	v, ok := r.Headers[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("%w: header %q", echoerr.ErrNotFound, name)
	}
	return v, nil
}

// BodyString returns the echoed body and whether one was reported.
func (r *MethodResponse) BodyString() (string, bool) {
	if r.Body == nil {
		return "", false
	}
	return *r.Body, true
}
