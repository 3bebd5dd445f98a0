// Package postmanecho is a typed client for the Postman Echo service.
//
// Every method issues exactly one request through the injected transport and
// decodes the reply with package contract. Transport failures, including
// context cancellation, are returned unchanged. The client keeps no mutable
// state after New and may be shared between goroutines.
package postmanecho

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/samvad-hq/postman-echo-client/pkg/auth"
	"github.com/samvad-hq/postman-echo-client/pkg/contract"
	"github.com/samvad-hq/postman-echo-client/pkg/endpoints"
	"github.com/samvad-hq/postman-echo-client/pkg/httpclient"
)

// DefaultTimeout applies to the resty transport built when New gets none.
const DefaultTimeout = 30 * time.Second

// Client talks to the Postman Echo endpoints.
type Client struct {
	transport httpclient.Client
	endpoints *endpoints.Catalogue
	headers   map[string]string
	log       Logger
}

// OAuth1Result is the outcome of an OAuth1 probe.
type OAuth1Result struct {
	StatusCode int
	// Failure is set when the service rejected the signature and explained why.
	Failure *contract.OAuth1FailureResponse
}

// New builds a client on top of transport. A nil transport is replaced by a
// resty transport with DefaultTimeout.
func New(transport httpclient.Client, opts ...Option) *Client {
	if transport == nil {
		transport = httpclient.NewRestyClient(DefaultTimeout)
	}
	c := &Client{
		transport: transport,
		endpoints: endpoints.Default,
		headers:   map[string]string{},
		log:       noopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Endpoints returns the catalogue the client builds URIs from.
func (c *Client) Endpoints() *endpoints.Catalogue { return c.endpoints }

// Get echoes a GET request carrying q.
func (c *Client) Get(ctx context.Context, q endpoints.Query, opts ...CallOption) (*contract.MethodResponse, error) {
	return c.echo(ctx, http.MethodGet, c.endpoints.Get(q), nil, opts)
}

// Delete echoes a DELETE request carrying q.
func (c *Client) Delete(ctx context.Context, q endpoints.Query, opts ...CallOption) (*contract.MethodResponse, error) {
	return c.echo(ctx, http.MethodDelete, c.endpoints.Delete(q), nil, opts)
}

// Post echoes a POST request with an optional body.
func (c *Client) Post(ctx context.Context, body *httpclient.Body, q endpoints.Query, opts ...CallOption) (*contract.MethodResponse, error) {
	return c.echo(ctx, http.MethodPost, c.endpoints.Post(q), body, opts)
}

// Put echoes a PUT request with an optional body.
func (c *Client) Put(ctx context.Context, body *httpclient.Body, q endpoints.Query, opts ...CallOption) (*contract.MethodResponse, error) {
	return c.echo(ctx, http.MethodPut, c.endpoints.Put(q), body, opts)
}

// Patch echoes a PATCH request with an optional body.
func (c *Client) Patch(ctx context.Context, body *httpclient.Body, q endpoints.Query, opts ...CallOption) (*contract.MethodResponse, error) {
	return c.echo(ctx, http.MethodPatch, c.endpoints.Patch(q), body, opts)
}

// RequestHeaders echoes the headers the request was sent with.
func (c *Client) RequestHeaders(ctx context.Context, opts ...CallOption) (*contract.MethodResponse, error) {
	return c.echo(ctx, http.MethodGet, c.endpoints.RequestHeaders(), nil, opts)
}

// ResponseHeaders asks the service to answer with q as response headers and
// returns the raw response.
func (c *Client) ResponseHeaders(ctx context.Context, q endpoints.Query) (httpclient.Response, error) {
	return c.send(ctx, http.MethodGet, c.endpoints.ResponseHeaders(q), nil, nil)
}

// BasicAuth probes the basic-auth endpoint, with valid credentials when
// authorized is true and none otherwise. It returns the status code.
func (c *Client) BasicAuth(ctx context.Context, authorized bool) (int, error) {
	return c.authStatus(ctx, c.endpoints.BasicAuth(), authorized, auth.SetBasic)
}

// DigestAuth probes the digest-auth endpoint like BasicAuth.
func (c *Client) DigestAuth(ctx context.Context, authorized bool) (int, error) {
	return c.authStatus(ctx, c.endpoints.DigestAuth(), authorized, auth.SetDigest)
}

func (c *Client) authStatus(ctx context.Context, url string, authorized bool, set func(map[string]string) error) (int, error) {
	var opts []CallOption
	if authorized {
		opts = append(opts, func(h map[string]string) error { return set(h) })
	}
	resp, err := c.send(ctx, http.MethodGet, url, nil, opts)
	if err != nil {
		return 0, err
	}
	return resp.StatusCode(), nil
}

// HawkAuth probes the Hawk endpoint. The token exchange body is always sent;
// the canned Hawk header only when authorized is true. It reports whether the
// service answered 200 with its success message.
func (c *Client) HawkAuth(ctx context.Context, authorized bool) (bool, error) {
	body, err := auth.HawkContent()
	if err != nil {
		return false, err
	}
	var opts []CallOption
	if authorized {
		opts = append(opts, func(h map[string]string) error { return auth.SetHawk(h, auth.HawkCredential) })
	}

	resp, err := c.send(ctx, http.MethodGet, c.endpoints.HawkAuth(), body, opts)
	if err != nil {
		return false, err
	}
	return resp.StatusCode() == http.StatusOK && contract.IsHawkAuthSuccessful(resp.Body()), nil
}

// OAuth1 probes the OAuth 1.0 endpoint. When authorized is true the canned
// signature and token exchange body are sent. Non-2xx replies carry the
// service's diagnostic record when it sent one.
func (c *Client) OAuth1(ctx context.Context, authorized bool) (*OAuth1Result, error) {
	var (
		body *httpclient.Body
		opts []CallOption
	)
	if authorized {
		content, err := auth.OAuth1Content()
		if err != nil {
			return nil, err
		}
		body = content
		opts = append(opts, func(h map[string]string) error { return auth.SetOAuth1(h, auth.OAuth1Credential) })
	}

	resp, err := c.send(ctx, http.MethodGet, c.endpoints.OAuth1(), body, opts)
	if err != nil {
		return nil, err
	}

	out := &OAuth1Result{StatusCode: resp.StatusCode()}
	if isSuccess(out.StatusCode) {
		return out, nil
	}
	failure, err := contract.ParseOAuth1Failure(resp.Body())
	if err != nil {
		return nil, err
	}
	out.Failure = failure
	return out, nil
}

// SetCookies sets the cookies in q on the service and returns the cookies it now holds.
func (c *Client) SetCookies(ctx context.Context, q endpoints.Query) (*contract.CookiesResponse, error) {
	return c.cookies(ctx, c.endpoints.SetCookies(q))
}

// Cookies lists the cookies the service holds for this client.
func (c *Client) Cookies(ctx context.Context) (*contract.CookiesResponse, error) {
	return c.cookies(ctx, c.endpoints.Cookies())
}

// DeleteCookies removes the named cookies and returns the remaining ones.
func (c *Client) DeleteCookies(ctx context.Context, names []string) (*contract.CookiesResponse, error) {
	return c.cookies(ctx, c.endpoints.DeleteCookies(names))
}

func (c *Client) cookies(ctx context.Context, url string) (*contract.CookiesResponse, error) {
	resp, err := c.send(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		return nil, err
	}
	return contract.ParseCookiesResponse(string(resp.Body()))
}

// StatusCode asks the service to answer with code and returns the status received.
func (c *Client) StatusCode(ctx context.Context, code int) (int, error) {
	url, err := c.endpoints.StatusCode(code)
	if err != nil {
		return 0, err
	}
	resp, err := c.send(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		return 0, err
	}
	return resp.StatusCode(), nil
}

// Stream requests a chunked response of length JSON lines.
func (c *Client) Stream(ctx context.Context, length int) (httpclient.Response, error) {
	url, err := c.endpoints.Stream(length)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, http.MethodGet, url, nil, nil)
}

// Delay requests a response held back by seconds.
func (c *Client) Delay(ctx context.Context, seconds int) (httpclient.Response, error) {
	url, err := c.endpoints.Delay(seconds)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, http.MethodGet, url, nil, nil)
}

// UTF8 returns the body of the UTF-8 demo page.
func (c *Client) UTF8(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, http.MethodGet, c.endpoints.UTF8(), nil, nil)
	if err != nil {
		return "", err
	}
	return string(resp.Body()), nil
}

// Gzip fetches the gzip endpoint and decodes the compressed echo.
func (c *Client) Gzip(ctx context.Context) (*contract.CompressedResponse, error) {
	resp, err := c.send(ctx, http.MethodGet, c.endpoints.Gzip(), nil, []CallOption{Header("Accept-Encoding", "gzip")})
	if err != nil {
		return nil, err
	}
	return contract.DecodeGzip(bytes.NewReader(resp.Body()))
}

// Deflate fetches the deflate endpoint and decodes the compressed echo.
func (c *Client) Deflate(ctx context.Context) (*contract.CompressedResponse, error) {
	resp, err := c.send(ctx, http.MethodGet, c.endpoints.Deflate(), nil, []CallOption{Header("Accept-Encoding", "deflate")})
	if err != nil {
		return nil, err
	}
	return contract.DecodeDeflate(bytes.NewReader(resp.Body()))
}

// IP returns the caller's address as seen by the service.
func (c *Client) IP(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, http.MethodGet, c.endpoints.IP(), nil, nil)
	if err != nil {
		return "", err
	}
	return contract.ParseIPAddress(resp.Body())
}

func (c *Client) echo(ctx context.Context, method, url string, body *httpclient.Body, opts []CallOption) (*contract.MethodResponse, error) {
	resp, err := c.send(ctx, method, url, body, opts)
	if err != nil {
		return nil, err
	}
	return contract.ParseMethodResponse(string(resp.Body()))
}

// send performs the single round trip behind every operation. Header
// options run before the transport is touched.
func (c *Client) send(ctx context.Context, method, url string, body *httpclient.Body, opts []CallOption) (httpclient.Response, error) {
	headers := make(map[string]string, len(c.headers)+len(opts))
	for k, v := range c.headers {
		headers[k] = v
	}
	for _, opt := range opts {
		if err := opt(headers); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	resp, err := c.transport.Do(ctx, httpclient.Request{
		Method:  method,
		URL:     url,
		Headers: headers,
		Body:    body,
	})
	fields := map[string]any{
		"method":     method,
		"url":        url,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
		c.log.DebugObj("postman echo request failed", "request", fields)
		return nil, err
	}
	fields["status"] = resp.StatusCode()
	c.log.DebugObj("postman echo round trip", "request", fields)
	return resp, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
