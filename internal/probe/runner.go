package probe

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/postman-echo-client/internal/domain"
	"github.com/samvad-hq/postman-echo-client/internal/logger"
	"github.com/samvad-hq/postman-echo-client/internal/storage"
	"github.com/samvad-hq/postman-echo-client/pkg/contract"
	"github.com/samvad-hq/postman-echo-client/pkg/httpclient"
	"github.com/samvad-hq/postman-echo-client/pkg/postmanecho"
	"github.com/samvad-hq/postman-echo-client/pkg/publishers"
)

// EventPublisher delivers probe events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Service runs probe passes against the echo service.
type Service struct {
	client    *postmanecho.Client
	store     storage.Store
	publisher EventPublisher
	log       logger.Logger
	newRunID  func() string
	now       func() time.Time
}

// NewService wires a runner. A nil store treats every outcome as a change and
// a nil publisher only logs results.
func NewService(client *postmanecho.Client, store storage.Store, pub EventPublisher, log logger.Logger) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Service{
		client:    client,
		store:     store,
		publisher: pub,
		log:       log,
		newRunID:  uuid.NewString,
		now:       time.Now,
	}
}

// Run executes every probe once, in order, and returns their results.
// Probe transport failures and reporting failures are joined into the error;
// a probe that completes with an unexpected answer is reported, not returned.
func (s *Service) Run(ctx context.Context, probes []Probe) ([]domain.ProbeResult, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("probe service is not initialized")
	}
	if len(probes) == 0 {
		return nil, fmt.Errorf("no probes configured")
	}

	runID := s.newRunID()
	results := make([]domain.ProbeResult, 0, len(probes))
	var errs []error

	for _, p := range probes {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		res, err := s.runProbe(ctx, runID, p)
		if err != nil && ctx.Err() != nil {
			// Interrupted probes are neither reported nor stored.
			errs = append(errs, fmt.Errorf("probe %s: %w", p.ID, err))
			break
		}
		results = append(results, res)
		if err != nil {
			errs = append(errs, fmt.Errorf("probe %s: %w", p.ID, err))
			s.log.ErrorObj("probe failed", "probe_error", map[string]any{
				"probe_id": p.ID,
				"error":    err.Error(),
			})
		}

		if err := s.report(ctx, res); err != nil {
			errs = append(errs, fmt.Errorf("report probe %s: %w", p.ID, err))
		}
	}

	return results, errors.Join(errs...)
}

func (s *Service) runProbe(ctx context.Context, runID string, p Probe) (domain.ProbeResult, error) {
	res := domain.ProbeResult{
		RunID:     runID,
		ProbeID:   p.ID,
		Type:      p.Type,
		CheckedAt: s.now().UTC(),
	}

	start := time.Now()
	out, err := s.check(ctx, p)
	res.ElapsedMs = time.Since(start).Milliseconds()
	if err != nil {
		res.Detail = err.Error()
		return res, err
	}

	res.OK = out.ok
	res.StatusCode = out.status
	res.Detail = out.detail
	return res, nil
}

// report publishes a result when its outcome differs from the stored one.
// The outcome is marked only when every sink accepted the event, so a partial
// failure is republished to all sinks on the next pass.
func (s *Service) report(ctx context.Context, res domain.ProbeResult) error {
	fingerprint := res.Fingerprint()
	changed := true
	if s.store != nil {
		var err error
		if changed, err = s.store.Changed(res.ProbeID, fingerprint); err != nil {
			return fmt.Errorf("check stored outcome: %w", err)
		}
	}

	level := s.log.InfoObj
	if !res.OK {
		level = s.log.WarnObj
	}
	level("probe completed", "probe_result", map[string]any{
		"probe_id":    res.ProbeID,
		"ok":          res.OK,
		"status_code": res.StatusCode,
		"elapsed_ms":  res.ElapsedMs,
		"changed":     changed,
	})

	if !changed || s.publisher == nil {
		return nil
	}
	if _, err := s.publisher.Publish(ctx, publishers.NewEvent(res)); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if s.store != nil {
		if err := s.store.Mark(res.ProbeID, fingerprint); err != nil {
			return fmt.Errorf("store outcome: %w", err)
		}
	}
	return nil
}

type outcome struct {
	ok     bool
	status int
	detail string
}

func (s *Service) check(ctx context.Context, p Probe) (outcome, error) {
	opts := make([]postmanecho.CallOption, 0, len(p.Headers))
	for k, v := range p.Headers {
		opts = append(opts, postmanecho.Header(k, v))
	}
	c := s.client

	switch p.Type {
	case TypeGet:
		return echoOutcome(c.Get(ctx, p.QueryPairs(), opts...))(p)
	case TypeDelete:
		return echoOutcome(c.Delete(ctx, p.QueryPairs(), opts...))(p)
	case TypePost:
		return echoOutcome(c.Post(ctx, bodyOf(p), p.QueryPairs(), opts...))(p)
	case TypePut:
		return echoOutcome(c.Put(ctx, bodyOf(p), p.QueryPairs(), opts...))(p)
	case TypePatch:
		return echoOutcome(c.Patch(ctx, bodyOf(p), p.QueryPairs(), opts...))(p)
	case TypeHeaders:
		return echoOutcome(c.RequestHeaders(ctx, opts...))(p)
	case TypeResponseHeaders:
		resp, err := c.ResponseHeaders(ctx, p.QueryPairs())
		if err != nil {
			return outcome{}, err
		}
		return responseHeadersOutcome(resp, p), nil
	case TypeBasicAuth:
		return authOutcome(c.BasicAuth(ctx, p.WantAuthorized()))(p)
	case TypeDigestAuth:
		return authOutcome(c.DigestAuth(ctx, p.WantAuthorized()))(p)
	case TypeHawkAuth:
		success, err := c.HawkAuth(ctx, p.WantAuthorized())
		if err != nil {
			return outcome{}, err
		}
		return outcome{ok: success == p.WantAuthorized(), detail: fmt.Sprintf("hawk success=%t", success)}, nil
	case TypeOAuth1:
		res, err := c.OAuth1(ctx, p.WantAuthorized())
		if err != nil {
			return outcome{}, err
		}
		out := outcome{status: res.StatusCode, ok: isSuccess(res.StatusCode) == p.WantAuthorized()}
		if res.Failure != nil {
			out.detail = res.Failure.Message
		}
		return out, nil
	case TypeCookies:
		resp, err := c.SetCookies(ctx, p.QueryPairs())
		if err != nil {
			return outcome{}, err
		}
		return cookiesOutcome(resp, p), nil
	case TypeStatus:
		code, err := c.StatusCode(ctx, p.Code)
		if err != nil {
			return outcome{}, err
		}
		return outcome{ok: code == p.Code, status: code}, nil
	case TypeStream:
		resp, err := c.Stream(ctx, p.Length)
		if err != nil {
			return outcome{}, err
		}
		lines, err := countLines(resp.Body())
		if err != nil {
			return outcome{status: resp.StatusCode(), detail: "read stream: " + err.Error()}, nil
		}
		return outcome{
			ok:     resp.StatusCode() == http.StatusOK && lines == p.Length,
			status: resp.StatusCode(),
			detail: fmt.Sprintf("%d chunks", lines),
		}, nil
	case TypeDelay:
		start := time.Now()
		resp, err := c.Delay(ctx, p.Seconds)
		if err != nil {
			return outcome{}, err
		}
		waited := time.Since(start)
		return outcome{
			ok:     resp.StatusCode() == http.StatusOK && waited >= time.Duration(p.Seconds)*time.Second,
			status: resp.StatusCode(),
			detail: "waited " + waited.Round(time.Millisecond).String(),
		}, nil
	case TypeUTF8:
		page, err := c.UTF8(ctx)
		if err != nil {
			return outcome{}, err
		}
		text, err := contract.ParseUTF8Text([]byte(page))
		if err != nil {
			return outcome{}, err
		}
		return outcome{ok: text != "", detail: firstLine(text)}, nil
	case TypeGzip:
		resp, err := c.Gzip(ctx)
		if err != nil {
			return outcome{}, err
		}
		return outcome{ok: resp.IsGZipped, detail: "method " + resp.Method}, nil
	case TypeDeflate:
		resp, err := c.Deflate(ctx)
		if err != nil {
			return outcome{}, err
		}
		return outcome{ok: resp.IsDeflated, detail: "method " + resp.Method}, nil
	case TypeIP:
		ip, err := c.IP(ctx)
		if err != nil {
			return outcome{}, err
		}
		return outcome{ok: net.ParseIP(ip) != nil, detail: ip}, nil
	default:
		return outcome{}, fmt.Errorf("unsupported probe type %q", p.Type)
	}
}

func bodyOf(p Probe) *httpclient.Body {
	if p.Body == "" {
		return nil
	}
	return httpclient.TextBody(p.Body)
}

// echoOutcome checks that the service echoed the probe's query, headers and body.
func echoOutcome(resp *contract.MethodResponse, err error) func(Probe) (outcome, error) {
	return func(p Probe) (outcome, error) {
		if err != nil {
			return outcome{}, err
		}
		var missing []string
		for _, kv := range p.Query {
			if resp.QueryString[kv.Name] != kv.Value {
				missing = append(missing, "arg "+kv.Name)
			}
		}
		for name, value := range p.Headers {
			if got, herr := resp.GetHeader(name); herr != nil || got != value {
				missing = append(missing, "header "+name)
			}
		}
		if p.Body != "" {
			if got, found := resp.BodyString(); !found || got != p.Body {
				missing = append(missing, "body")
			}
		}
		out := outcome{ok: len(missing) == 0, status: http.StatusOK}
		if len(missing) > 0 {
			out.detail = "not echoed: " + strings.Join(missing, ", ")
		}
		return out, nil
	}
}

func authOutcome(code int, err error) func(Probe) (outcome, error) {
	return func(p Probe) (outcome, error) {
		if err != nil {
			return outcome{}, err
		}
		want := http.StatusUnauthorized
		if p.WantAuthorized() {
			want = http.StatusOK
		}
		return outcome{ok: code == want, status: code}, nil
	}
}

func responseHeadersOutcome(resp httpclient.Response, p Probe) outcome {
	out := outcome{status: resp.StatusCode(), ok: resp.StatusCode() == http.StatusOK}
	for _, kv := range p.Query {
		if resp.Header().Get(kv.Name) != kv.Value {
			out.ok = false
			out.detail = "response header " + kv.Name + " missing"
			break
		}
	}
	return out
}

func cookiesOutcome(resp *contract.CookiesResponse, p Probe) outcome {
	for _, kv := range p.Query {
		if resp.Cookies[kv.Name] != kv.Value {
			return outcome{detail: "cookie " + kv.Name + " not set"}
		}
	}
	return outcome{ok: true, detail: fmt.Sprintf("%d cookies", len(resp.Cookies))}
}

// maxChunkSize bounds a single streamed line.
const maxChunkSize = 1024 * 1024

func countLines(body []byte) (int, error) {
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), maxChunkSize)
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) > 0 {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return n, err
	}
	return n, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
