// Package endpoints builds the URIs of the Postman Echo API.
//
// A Catalogue binds the fixed endpoint paths to a base address. Default is
// bound to the public service; New binds them to any other host, which is
// how tests point the client at a local server.
package endpoints

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/samvad-hq/postman-echo-client/pkg/echoerr"
)

// BaseURI is the address of the public Postman Echo service.
const BaseURI = "https://postman-echo.com/"

// Bounds accepted by StatusCode and Delay.
const (
	// MinStatusCode is the lowest status the status endpoint serves.
	MinStatusCode = 100
	// MaxStatusCode is the highest status the status endpoint serves.
	MaxStatusCode = 599
	// MaxDelaySeconds is the longest delay the service honours.
	MaxDelaySeconds = 10
)

// Default is the catalogue for the public service.
var Default = mustNew(BaseURI)

// Catalogue maps logical operations to absolute URIs under a base address.
type Catalogue struct {
	base string
}

// New creates a catalogue for the given base address. Only http and https
// addresses with a host are accepted.
func New(base string) (*Catalogue, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return nil, fmt.Errorf("%w: base address is empty", echoerr.ErrInvalidArgument)
	}

	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("%w: parse base address: %w", echoerr.ErrInvalidArgument, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q (only http and https are allowed)", echoerr.ErrInvalidArgument, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: base address must have a host", echoerr.ErrInvalidArgument)
	}
	u.RawQuery = ""
	u.Fragment = ""

	s := u.String()
	if !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return &Catalogue{base: s}, nil
}

func mustNew(base string) *Catalogue {
	c, err := New(base)
	if err != nil {
		panic(err)
	}
	return c
}

// Base returns the base address, always ending in '/'.
func (c *Catalogue) Base() string { return c.base }

func (c *Catalogue) path(p string) string { return c.base + p }

func (c *Catalogue) withQuery(p string, q Query) string {
	if enc := q.Encode(); enc != "" {
		return c.path(p) + "?" + enc
	}
	return c.path(p)
}

// Request methods. Each endpoint echoes the headers, query arguments and URL
// it received; POST, PUT and PATCH also echo the body.

// Get returns the GET echo endpoint carrying q.
func (c *Catalogue) Get(q Query) string { return c.withQuery("get", q) }

// Post returns the POST echo endpoint carrying q.
func (c *Catalogue) Post(q Query) string { return c.withQuery("post", q) }

// Put returns the PUT echo endpoint carrying q.
func (c *Catalogue) Put(q Query) string { return c.withQuery("put", q) }

// Patch returns the PATCH echo endpoint carrying q.
func (c *Catalogue) Patch(q Query) string { return c.withQuery("patch", q) }

// Delete returns the DELETE echo endpoint carrying q.
func (c *Catalogue) Delete(q Query) string { return c.withQuery("delete", q) }

// RequestHeaders returns the endpoint that echoes the request headers.
func (c *Catalogue) RequestHeaders() string { return c.path("headers") }

// ResponseHeaders returns the endpoint that copies the query pairs into the
// response headers and body.
func (c *Catalogue) ResponseHeaders(q Query) string { return c.withQuery("response-headers", q) }

// BasicAuth returns the basic authentication endpoint.
func (c *Catalogue) BasicAuth() string { return c.path("basic-auth") }

// DigestAuth returns the digest authentication endpoint.
func (c *Catalogue) DigestAuth() string { return c.path("digest-auth") }

// HawkAuth returns the Hawk authentication endpoint.
func (c *Catalogue) HawkAuth() string { return c.path("auth/hawk") }

// OAuth1 returns the OAuth 1.0 signature verification endpoint.
func (c *Catalogue) OAuth1() string { return c.path("oauth1") }

// SetCookies returns the endpoint that stores the query pairs as cookies.
func (c *Catalogue) SetCookies(cookies Query) string { return c.withQuery("cookies/set", cookies) }

// Cookies returns the endpoint listing the cookies currently set.
func (c *Catalogue) Cookies() string { return c.path("cookies") }

// DeleteCookies returns the endpoint that removes the named cookies. The
// names are joined with '&' as they are, without encoding.
func (c *Catalogue) DeleteCookies(names []string) string {
	if len(names) == 0 {
		return c.path("cookies/delete")
	}
	return c.path("cookies/delete") + "?" + rawJoin(names)
}

// UTF8 returns the UTF-8 demo page endpoint.
func (c *Catalogue) UTF8() string { return c.path("encoding/utf8") }

// Gzip returns the endpoint answering with a gzip compressed echo.
func (c *Catalogue) Gzip() string { return c.path("gzip") }

// Deflate returns the endpoint answering with a deflate compressed echo.
func (c *Catalogue) Deflate() string { return c.path("deflate") }

// IP returns the endpoint reporting the caller's address.
func (c *Catalogue) IP() string { return c.path("ip") }

// StatusCode returns the endpoint responding with the given status. The
// net/http Status* constants are accepted as named statuses.
func (c *Catalogue) StatusCode(code int) (string, error) {
	if code < MinStatusCode || code > MaxStatusCode {
		return "", fmt.Errorf("%w: status code %d must be between %d and %d", echoerr.ErrOutOfRange, code, MinStatusCode, MaxStatusCode)
	}
	return c.path("status/" + strconv.Itoa(code)), nil
}

// Stream returns the endpoint streaming length chunks.
func (c *Catalogue) Stream(length int) (string, error) {
	if length < 0 {
		return "", fmt.Errorf("%w: stream length %d cannot be less than zero", echoerr.ErrOutOfRange, length)
	}
	return c.path("stream/" + strconv.Itoa(length)), nil
}

// Delay returns the endpoint that answers after the given number of seconds.
func (c *Catalogue) Delay(seconds int) (string, error) {
	if seconds < 0 || seconds > MaxDelaySeconds {
		return "", fmt.Errorf("%w: delay %ds must be between 0 and %d", echoerr.ErrOutOfRange, seconds, MaxDelaySeconds)
	}
	return c.path("delay/" + strconv.Itoa(seconds)), nil
}
