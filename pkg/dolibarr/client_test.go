package dolibarr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL+"/api/index.php/", "secret-token", WithTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client, srv
}

func TestNewSetsExactlyTheFixedHeaders(t *testing.T) {
	client, err := New("https://erp.example.com/api/index.php", "tok-123")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	h := client.Header()
	if len(h) != 3 {
		t.Fatalf("expected 3 default headers, got %d: %v", len(h), h)
	}
	want := map[string]string{
		"Accept":        "application/json",
		"Authorization": "tok-123",
		"Content-Type":  "application/json",
	}
	for k, v := range want {
		if got := h.Get(k); got != v {
			t.Fatalf("header %s = %q, want %q", k, got, v)
		}
	}
}

func TestRequestsCarryFixedHeaders(t *testing.T) {
	var got http.Header
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"id":"1","name":"ACME"}`))
	})

	if _, err := client.GetCustomer(context.Background(), 1); err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if got.Get("Authorization") != "secret-token" {
		t.Fatalf("Authorization = %q, token must be passed verbatim", got.Get("Authorization"))
	}
	if got.Get("Accept") != "application/json" || got.Get("Content-Type") != "application/json" {
		t.Fatalf("json headers missing: %v", got)
	}
}

func TestNewRejectsInvalidToken(t *testing.T) {
	for _, tok := range []string{"", "abc\ndef", "bad\x00token", "tab\x7f"} {
		if _, err := New("https://erp.example.com", tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	for _, base := range []string{"", "erp.example.com", "ftp://erp.example.com", "http://"} {
		_, err := New(base, "tok")
		if err == nil {
			t.Fatalf("base %q: expected error", base)
		}
		if errors.Is(err, ErrInvalidToken) {
			t.Fatalf("base %q: unexpected ErrInvalidToken", base)
		}
	}
}

func TestNewTrimsTrailingSlash(t *testing.T) {
	client, err := New("https://erp.example.com/api/index.php///", "tok")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client.BaseURL() != "https://erp.example.com/api/index.php" {
		t.Fatalf("BaseURL = %q", client.BaseURL())
	}
}

func TestConnectionFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	client, err := New(base, "tok", WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.GetProduct(context.Background(), 1)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %T %v", err, err)
	}
	if te.Err == nil || te.StatusCode != 0 {
		t.Fatalf("expected wrapped connection error, got %+v", te)
	}
}

type recordingLogger struct {
	noopLogger
	debug int
}

func (r *recordingLogger) DebugObj(string, string, interface{}) { r.debug++ }

func TestWithLoggerLogsEachRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	log := &recordingLogger{}
	client, err := New(srv.URL, "tok", WithLogger(log))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.ListOrders(context.Background(), 3); err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if log.debug != 1 {
		t.Fatalf("expected 1 debug line, got %d", log.debug)
	}
}

type dumpLogger struct {
	mu  sync.Mutex
	out strings.Builder
}

func (d *dumpLogger) write(format string, v ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(&d.out, format+"\n", v...)
}

func (d *dumpLogger) Errorf(format string, v ...any) { d.write(format, v...) }
func (d *dumpLogger) Warnf(format string, v ...any)  { d.write(format, v...) }
func (d *dumpLogger) Debugf(format string, v ...any) { d.write(format, v...) }

func TestDebugDumpNeverContainsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`["1"]`))
	}))
	defer srv.Close()

	dump := &dumpLogger{}
	client, err := New(srv.URL, "very-secret-token", WithRestyLogger(dump), WithDebug(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.ListProductIDs(context.Background()); err != nil {
		t.Fatalf("ListProductIDs: %v", err)
	}

	dump.mu.Lock()
	out := dump.out.String()
	dump.mu.Unlock()
	if out == "" {
		t.Fatalf("expected a debug dump")
	}
	if strings.Contains(out, "very-secret-token") {
		t.Fatalf("token leaked into debug dump:\n%s", out)
	}
}
