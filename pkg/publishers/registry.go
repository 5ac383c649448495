package publishers

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Builder creates the publisher for one config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Registry maps publisher types to their builders.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry returns a registry holding builders, keyed by type.
func NewRegistry(builders map[string]Builder) *Registry {
	r := &Registry{builders: make(map[string]Builder, len(builders))}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// DefaultRegistry knows the webhook, SQS, SNS and Pub/Sub publishers.
func DefaultRegistry() *Registry {
	return NewRegistry(map[string]Builder{
		TypeHTTP:      newHTTPPublisher,
		TypeSQS:       newSQSPublisher,
		TypeSNS:       newSNSPublisher,
		TypeGCPPubSub: newGCPPubSubPublisher,
	})
}

// Register adds or replaces the builder for typ. Blank types and nil
// builders are ignored.
func (r *Registry) Register(typ string, b Builder) {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ == "" || b == nil {
		return
	}
	r.builders[typ] = b
}

// Build creates the sink for cfg, carrying its kinds filter.
func (r *Registry) Build(ctx context.Context, cfg PublisherConfig, log Logger) (Sink, error) {
	if cfg.Type == "" {
		return Sink{}, fmt.Errorf("publisher %q has no type configured", cfg.ID)
	}
	b, ok := r.builders[strings.ToLower(cfg.Type)]
	if !ok {
		return Sink{}, fmt.Errorf("no publisher registered for type %q", cfg.Type)
	}
	pub, err := b(ctx, cfg, orNoop(log))
	if err != nil {
		return Sink{}, err
	}
	return Sink{Publisher: pub, Kinds: cfg.KindFilter()}, nil
}

// BuildFanout builds every entry and wires them into one Fanout. When an
// entry fails, the sinks already built are closed.
func (r *Registry) BuildFanout(ctx context.Context, cfgs []PublisherConfig, log Logger) (*Fanout, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	sinks := make([]Sink, 0, len(cfgs))
	for _, cfg := range cfgs {
		sink, err := r.Build(ctx, cfg, log)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("build publisher %q: %w", cfg.ID, err), NewFanout(sinks...).Close())
		}
		sinks = append(sinks, sink)
	}
	return NewFanout(sinks...), nil
}
