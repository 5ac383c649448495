package dolibarr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Cyrix126/doli-client-api-go/pkg/httpclient"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/http/httpguts"
)

const (
	contentTypeJSON   = "application/json"
	defaultTimeout    = 30 * time.Second
	maxErrorBodyBytes = 512
)

// Client talks to the Dolibarr REST API. It holds a resty handle carrying the
// fixed Accept, Authorization and Content-Type headers plus the base URL.
// A Client is immutable after New and safe for concurrent use.
type Client struct {
	http    *resty.Client
	baseURL string
	log     Logger
}

type settings struct {
	timeout     time.Duration
	httpClient  *http.Client
	log         Logger
	restyLogger resty.Logger
	debug       bool
}

// Option tunes client construction.
type Option func(*settings)

// WithTimeout bounds every request issued by the client.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHTTPClient supplies the transport client. It is copied, so the client
// timeout never changes hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.httpClient = hc }
}

// WithLogger logs one line per request (never the token).
func WithLogger(log Logger) Option {
	return func(s *settings) { s.log = log }
}

// WithRestyLogger routes resty's own diagnostics, e.g. to a zap SugaredLogger.
func WithRestyLogger(l resty.Logger) Option {
	return func(s *settings) { s.restyLogger = l }
}

// WithDebug enables resty request/response dumps. The Authorization header
// is masked in the dump.
func WithDebug(enabled bool) Option {
	return func(s *settings) { s.debug = enabled }
}

// New builds a client for baseURL authenticating with token. The token is sent
// verbatim as the Authorization header value.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	if token == "" || !httpguts.ValidHeaderFieldValue(token) {
		return nil, ErrInvalidToken
	}

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}

	s := settings{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&s)
	}

	rc := httpclient.New(httpclient.Options{
		Timeout:    s.timeout,
		HTTPClient: s.httpClient,
		Logger:     s.restyLogger,
		Debug:      s.debug,
		Headers: map[string]string{
			"Accept":        contentTypeJSON,
			"Authorization": token,
			"Content-Type":  contentTypeJSON,
		},
	})

	return &Client{
		http:    rc,
		baseURL: base,
		log:     ensureLogger(s.log),
	}, nil
}

// BaseURL returns the normalised base URL, without trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Header returns a copy of the headers sent on every request.
func (c *Client) Header() http.Header { return c.http.Header.Clone() }

// do issues a single request. Only connection-level failures are returned as
// errors; status handling is left to the caller.
func (c *Client) do(ctx context.Context, method, path string, body any) (*resty.Response, error) {
	endpoint := c.baseURL + path
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		c.log.WarnObj("dolibarr request failed", "dolibarr_request", map[string]any{
			"method": method,
			"url":    endpoint,
			"error":  err.Error(),
		})
		return nil, &TransportError{Method: method, URL: endpoint, Err: err}
	}

	c.log.DebugObj("dolibarr request completed", "dolibarr_request", map[string]any{
		"method":     method,
		"url":        endpoint,
		"status":     resp.StatusCode(),
		"elapsed_ms": resp.Time().Milliseconds(),
	})
	return resp, nil
}

// expectSuccess turns any non-2xx response into a TransportError.
func expectSuccess(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	return &TransportError{
		Method:     resp.Request.Method,
		URL:        resp.Request.URL,
		StatusCode: resp.StatusCode(),
		Body:       httpclient.Snippet(resp.Body(), maxErrorBodyBytes),
	}
}

// decodeJSON unmarshals the response body into v. Shape errors raised by ID
// decoding keep their ErrUnexpectedResponse identity; anything else is a
// transport-level decoding failure.
func decodeJSON(resp *resty.Response, v any) error {
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		if errors.Is(err, ErrUnexpectedResponse) {
			return err
		}
		return &TransportError{
			Method:     resp.Request.Method,
			URL:        resp.Request.URL,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// getJSON is the GET + 2xx + decode sequence shared by the plain read operations.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := expectSuccess(resp); err != nil {
		return err
	}
	return decodeJSON(resp, v)
}
