package publishers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Cyrix126/doli-client-api-go/pkg/httpclient"
	"github.com/go-resty/resty/v2"
)

// Headers set on every webhook delivery.
const (
	HeaderEvent          = "X-Doli-Event"
	HeaderResource       = "X-Doli-Resource"
	HeaderResourceID     = "X-Doli-Resource-Id"
	HeaderIdempotencyKey = "Idempotency-Key"
)

const webhookErrorSnippet = 512

// webhook posts each event as JSON. The fingerprint doubles as idempotency
// key, since a partial fanout failure redelivers the same change.
type webhook struct {
	id     string
	method string
	url    string
	client *resty.Client
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, _ Logger) (Publisher, error) {
	if err := cfg.HTTP.check(); err != nil {
		return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	method := cfg.HTTP.Method
	if method == "" {
		method = defaultWebhookMethod
	}
	timeout := cfg.HTTP.TimeoutSeconds
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	client := httpclient.New(httpclient.Options{
		Timeout: time.Duration(timeout) * time.Second,
		Headers: cfg.HTTP.Headers,
	})
	return &webhook{id: cfg.ID, method: method, url: cfg.HTTP.URL, client: client}, nil
}

func (w *webhook) ID() string   { return w.id }
func (w *webhook) Type() string { return TypeHTTP }
func (w *webhook) Close() error { return nil }

func (w *webhook) Publish(ctx context.Context, evt Event) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(HeaderEvent, evt.Kind).
		SetHeader(HeaderResource, evt.Resource()).
		SetHeader(HeaderResourceID, strconv.FormatInt(evt.ResourceID, 10)).
		SetHeader(HeaderIdempotencyKey, evt.Fingerprint).
		SetBody(evt).
		Execute(w.method, w.url)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", w.url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook answered %d: %s", resp.StatusCode(), httpclient.Snippet(resp.Body(), webhookErrorSnippet))
	}
	return nil
}
