package httpclient

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Options controls how a resty.Client is assembled.
type Options struct {
	Timeout time.Duration
	// Headers are sent on every request issued by the client.
	Headers map[string]string
	// HTTPClient replaces the default transport client when set.
	HTTPClient *http.Client
	Logger     resty.Logger
	Debug      bool
}

// redactedHeaders never appear in clear in debug dumps.
var redactedHeaders = []string{"Authorization", "DOLAPIKEY"}

const redactedValue = "***"

// New creates a resty.Client from opts. A provided HTTPClient is copied, so
// the timeout set here does not leak into the caller's client.
func New(opts Options) *resty.Client {
	var c *resty.Client
	if opts.HTTPClient != nil {
		hc := *opts.HTTPClient
		c = resty.NewWithClient(&hc)
	} else {
		c = resty.New()
	}
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	if len(opts.Headers) > 0 {
		c.SetHeaders(opts.Headers)
	}
	if opts.Logger != nil {
		c.SetLogger(opts.Logger)
	}
	c.SetDebug(opts.Debug)
	c.OnRequestLog(redactRequestLog)
	return c
}

// redactRequestLog masks credentials in the request dump written in debug mode.
// The dump holds a copy of the headers, so the request itself is untouched.
func redactRequestLog(rl *resty.RequestLog) error {
	for _, h := range redactedHeaders {
		if rl.Header.Get(h) != "" {
			rl.Header.Set(h, redactedValue)
		}
	}
	return nil
}

// NewRestyHTTPClient exposes a configured resty.Client with only a timeout set.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return New(Options{Timeout: timeout})
}

// Snippet returns at most max bytes of body, trimmed, for error messages.
func Snippet(body []byte, max int) string {
	if len(body) == 0 {
		return ""
	}
	if max > 0 && len(body) > max {
		body = body[:max]
	}
	return strings.TrimSpace(string(body))
}
