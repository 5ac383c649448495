package httpclient

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewAppliesDefaultHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(Options{
		Timeout: time.Second,
		Headers: map[string]string{"X-Test": "1", "Accept": "application/json"},
	})
	resp, err := c.R().Get(srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode())
	}
	if got.Get("X-Test") != "1" || got.Get("Accept") != "application/json" {
		t.Fatalf("default headers not sent: %v", got)
	}
}

func TestNewCopiesProvidedHTTPClient(t *testing.T) {
	transport := &http.Transport{}
	hc := &http.Client{Transport: transport, Timeout: time.Minute}
	c := New(Options{HTTPClient: hc, Timeout: 2 * time.Second})

	if c.GetClient().Transport != transport {
		t.Fatalf("expected provided transport to be used")
	}
	if hc.Timeout != time.Minute {
		t.Fatalf("caller's http.Client timeout changed to %s", hc.Timeout)
	}
	if c.GetClient().Timeout != 2*time.Second {
		t.Fatalf("timeout = %s", c.GetClient().Timeout)
	}
}

type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *captureLogger) add(format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func (l *captureLogger) Errorf(format string, v ...any) { l.add(format, v...) }
func (l *captureLogger) Warnf(format string, v ...any)  { l.add(format, v...) }
func (l *captureLogger) Debugf(format string, v ...any) { l.add(format, v...) }

func (l *captureLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

func TestDebugDumpMasksAuthorization(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	log := &captureLogger{}
	c := New(Options{
		Headers: map[string]string{"Authorization": "dolibarr-api-key-123"},
		Logger:  log,
		Debug:   true,
	})
	if _, err := c.R().Get(srv.URL); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if gotAuth != "dolibarr-api-key-123" {
		t.Fatalf("server saw Authorization %q", gotAuth)
	}
	dump := log.String()
	if strings.Contains(dump, "dolibarr-api-key-123") {
		t.Fatalf("token leaked into debug dump:\n%s", dump)
	}
	if !strings.Contains(dump, redactedValue) {
		t.Fatalf("expected masked Authorization in dump:\n%s", dump)
	}
}

func TestSnippetTruncatesAndTrims(t *testing.T) {
	if got := Snippet([]byte("  hello world  "), 7); got != "hello" {
		t.Fatalf("Snippet = %q", got)
	}
	if got := Snippet(nil, 10); got != "" {
		t.Fatalf("Snippet(nil) = %q", got)
	}
	if got := Snippet([]byte(" abc "), 0); got != "abc" {
		t.Fatalf("Snippet unlimited = %q", got)
	}
}
