package httpclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(timeout)}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
// Compressed bodies are handed back untouched and GET requests may carry a
// payload, both of which the echo auth and compression endpoints rely on.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	c.SetTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableCompression:    true,
	})
	c.SetAllowGetMethodPayload(true)
	return c
}

// Do performs the request and reads the whole response body.
func (r *RestyClient) Do(ctx context.Context, in Request) (Response, error) {
	req := r.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)

	if len(in.Headers) > 0 {
		req.SetHeaders(in.Headers)
	}
	if in.Body != nil {
		req.SetBody(in.Body.Data)
		if in.Body.ContentType != "" {
			req.SetHeader("Content-Type", in.Body.ContentType)
		}
	}

	resp, err := req.Execute(in.Method, in.URL)
	if err != nil {
		return nil, err
	}

	raw := resp.RawBody()
	if raw == nil {
		return &rawResponse{status: resp.StatusCode(), header: resp.Header()}, nil
	}
	defer raw.Close()

	body, err := io.ReadAll(raw)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &rawResponse{status: resp.StatusCode(), header: resp.Header(), body: body}, nil
}

// rawResponse is the buffered response handed to callers.
type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

func (r *rawResponse) Body() []byte        { return r.body }
func (r *rawResponse) StatusCode() int     { return r.status }
func (r *rawResponse) Header() http.Header { return r.header }
