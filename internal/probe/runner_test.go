package probe

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/samvad-hq/postman-echo-client/internal/domain"
	"github.com/samvad-hq/postman-echo-client/internal/storage"
	"github.com/samvad-hq/postman-echo-client/pkg/auth"
	"github.com/samvad-hq/postman-echo-client/pkg/httpclient"
	"github.com/samvad-hq/postman-echo-client/pkg/postmanecho"
	"github.com/samvad-hq/postman-echo-client/pkg/publishers"
)

type fakeResponse struct {
	status int
	header http.Header
	body   []byte
}

func (r fakeResponse) Body() []byte        { return r.body }
func (r fakeResponse) StatusCode() int     { return r.status }
func (r fakeResponse) Header() http.Header { return r.header }

// routeTransport answers like the echo service, keyed by request path.
type routeTransport struct {
	failPath string
	status   int
}

func (rt routeTransport) Do(_ context.Context, req httpclient.Request) (httpclient.Response, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, err
	}
	if u.Path == rt.failPath {
		return nil, errors.New("connection refused")
	}

	switch {
	case u.Path == "/get":
		args := map[string]string{}
		for k, v := range u.Query() {
			args[k] = v[0]
		}
		headers := map[string]string{}
		for k, v := range req.Headers {
			headers[strings.ToLower(k)] = v
		}
		body, _ := json.Marshal(map[string]any{"args": args, "headers": headers, "url": req.URL})
		return fakeResponse{status: http.StatusOK, body: body}, nil
	case u.Path == "/basic-auth":
		if req.Headers[auth.HeaderAuthorization] == auth.BasicCredential {
			return fakeResponse{status: http.StatusOK, body: []byte(`{"authenticated":true}`)}, nil
		}
		return fakeResponse{status: http.StatusUnauthorized}, nil
	case strings.HasPrefix(u.Path, "/status/"):
		status := rt.status
		if status == 0 {
			status = http.StatusTeapot
		}
		return fakeResponse{status: status}, nil
	case u.Path == "/ip":
		return fakeResponse{status: http.StatusOK, body: []byte(`{"ip":"203.0.113.9"}`)}, nil
	case u.Path == "/gzip":
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, _ = zw.Write([]byte(`{"gzipped":true,"method":"GET"}`))
		_ = zw.Close()
		return fakeResponse{status: http.StatusOK, body: buf.Bytes()}, nil
	}
	return fakeResponse{status: http.StatusNotFound}, nil
}

// cancellingTransport cancels the pass while the request to path is in flight.
type cancellingTransport struct {
	routeTransport
	path   string
	cancel context.CancelFunc
}

func (ct cancellingTransport) Do(ctx context.Context, req httpclient.Request) (httpclient.Response, error) {
	if u, err := url.Parse(req.URL); err == nil && u.Path == ct.path {
		ct.cancel()
		return nil, ctx.Err()
	}
	return ct.routeTransport.Do(ctx, req)
}

// streamTransport answers every request with body.
type streamTransport struct {
	body []byte
}

func (st streamTransport) Do(context.Context, httpclient.Request) (httpclient.Response, error) {
	return fakeResponse{status: http.StatusOK, body: st.body}, nil
}

type fakeStore struct {
	mu       sync.Mutex
	outcomes map[string]string
}

func (f *fakeStore) Close() error { return nil }
func (f *fakeStore) Changed(id, fingerprint string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcomes[id] != fingerprint, nil
}
func (f *fakeStore) Mark(id, fingerprint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.outcomes == nil {
		f.outcomes = map[string]string{}
	}
	f.outcomes[id] = fingerprint
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishers.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

func testProbes() []Probe {
	return []Probe{
		{ID: "get-echo", Type: TypeGet, Query: []Param{{Name: "foo1", Value: "bar1"}}, Headers: map[string]string{"X-Probe": "1"}},
		{ID: "basic", Type: TypeBasicAuth},
		{ID: "teapot", Type: TypeStatus, Code: http.StatusTeapot},
		{ID: "ip", Type: TypeIP},
		{ID: "gzip", Type: TypeGzip},
	}
}

func newTestService(rt routeTransport, store storage.Store, pub EventPublisher) *Service {
	svc := NewService(postmanecho.New(rt), store, pub, nil)
	svc.newRunID = func() string { return "run-1" }
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

func TestRunPublishesOnlyChangedOutcomes(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := newTestService(routeTransport{}, store, pub)

	results, err := svc.Run(context.Background(), testProbes())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.OK {
			t.Fatalf("probe %s failed: %#v", r.ProbeID, r)
		}
		if r.RunID != "run-1" {
			t.Fatalf("unexpected run id %q", r.RunID)
		}
	}
	if results[2].StatusCode != http.StatusTeapot || results[3].Detail != "203.0.113.9" {
		t.Fatalf("unexpected details %#v %#v", results[2], results[3])
	}
	if len(pub.events) != 5 {
		t.Fatalf("expected every first outcome to be published, got %d", len(pub.events))
	}

	if _, err := svc.Run(context.Background(), testProbes()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(pub.events) != 5 {
		t.Fatalf("unchanged outcomes should not be republished, got %d events", len(pub.events))
	}
}

func TestRunReportsUnexpectedAnswerWithoutError(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(routeTransport{status: http.StatusInternalServerError}, &fakeStore{}, pub)

	results, err := svc.Run(context.Background(), []Probe{{ID: "teapot", Type: TypeStatus, Code: http.StatusTeapot}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].OK || results[0].StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected failed outcome, got %#v", results[0])
	}
	if len(pub.events) != 1 || pub.events[0].Result.Fingerprint() != "fail:500" {
		t.Fatalf("expected failure to be published, got %#v", pub.events)
	}
}

func TestRunJoinsTransportErrorsAndContinues(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(routeTransport{failPath: "/ip"}, &fakeStore{}, pub)

	results, err := svc.Run(context.Background(), testProbes())
	if err == nil || !strings.Contains(err.Error(), "probe ip") {
		t.Fatalf("expected joined probe error, got %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("remaining probes should still run, got %d results", len(results))
	}
	if results[3].OK || !strings.Contains(results[3].Detail, "connection refused") {
		t.Fatalf("unexpected ip result %#v", results[3])
	}
	if !results[4].OK {
		t.Fatalf("probe after failure did not run: %#v", results[4])
	}
}

func TestRunDoesNotMarkWhenPublishFails(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{err: errors.New("sink down")}
	svc := newTestService(routeTransport{}, store, pub)

	_, err := svc.Run(context.Background(), []Probe{{ID: "ip", Type: TypeIP}})
	if err == nil {
		t.Fatalf("expected publish error")
	}
	if _, marked := store.outcomes["ip"]; marked {
		t.Fatalf("outcome should stay unmarked so it is retried")
	}
}

func TestRunRepublishesAfterPartialPublishFailure(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{err: errors.New("sns publisher[alerts]: throttled")}
	svc := newTestService(routeTransport{}, store, pub)
	probes := []Probe{{ID: "ip", Type: TypeIP}}

	if _, err := svc.Run(context.Background(), probes); err == nil {
		t.Fatalf("expected publish error")
	}

	pub.err = nil
	if _, err := svc.Run(context.Background(), probes); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(pub.events) != 2 {
		t.Fatalf("expected the event to be republished, got %d events", len(pub.events))
	}
	if got := store.outcomes["ip"]; got != "ok:0" {
		t.Fatalf("expected outcome marked after delivery, got %q", got)
	}
}

func TestRunRequiresProbes(t *testing.T) {
	svc := newTestService(routeTransport{}, nil, nil)
	if _, err := svc.Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty probe list")
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	svc := newTestService(routeTransport{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := svc.Run(ctx, testProbes())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("no probe should run after cancellation, got %d", len(results))
	}
}

func TestRunDropsProbeInterruptedByCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &fakeStore{outcomes: map[string]string{"ip": "ok:0"}}
	pub := &fakePublisher{}
	svc := NewService(postmanecho.New(cancellingTransport{path: "/ip", cancel: cancel}), store, pub, nil)

	results, err := svc.Run(ctx, testProbes())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected only the 3 probes finished before cancellation, got %d", len(results))
	}
	for _, r := range results {
		if r.ProbeID == "ip" || r.ProbeID == "gzip" {
			t.Fatalf("unexpected result after cancellation: %#v", r)
		}
	}
	if got := store.outcomes["ip"]; got != "ok:0" {
		t.Fatalf("stored outcome changed by cancellation: %q", got)
	}
	for _, evt := range pub.events {
		if evt.ProbeID == "ip" {
			t.Fatalf("cancelled probe was published: %#v", evt)
		}
	}
}

func TestStreamOutcomeFailsOnOversizedChunk(t *testing.T) {
	body := append(bytes.Repeat([]byte("x"), maxChunkSize+1), '\n')
	svc := newTestService(routeTransport{}, nil, nil)
	svc.client = postmanecho.New(streamTransport{body: body})

	results, err := svc.Run(context.Background(), []Probe{{ID: "stream", Type: TypeStream, Length: 1}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].OK || !strings.Contains(results[0].Detail, "read stream") {
		t.Fatalf("expected failed stream outcome, got %#v", results[0])
	}
}

func TestCountLines(t *testing.T) {
	n, err := countLines([]byte("{\"id\":0}\n\n{\"id\":1}\n"))
	if err != nil || n != 2 {
		t.Fatalf("countLines = %d, %v", n, err)
	}

	_, err = countLines(bytes.Repeat([]byte("x"), maxChunkSize+1))
	if !errors.Is(err, bufio.ErrTooLong) {
		t.Fatalf("expected bufio.ErrTooLong, got %v", err)
	}
}

func TestFingerprintIgnoresTiming(t *testing.T) {
	a := domain.ProbeResult{ProbeID: "x", OK: true, StatusCode: 200, ElapsedMs: 10}
	b := domain.ProbeResult{ProbeID: "x", OK: true, StatusCode: 200, ElapsedMs: 99, RunID: "other"}
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("fingerprints differ: %s vs %s", a.Fingerprint(), b.Fingerprint())
	}
}
