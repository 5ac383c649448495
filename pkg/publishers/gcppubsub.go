package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// pubsubPublisher publishes to a Pub/Sub topic and waits for the server ack.
type pubsubPublisher struct {
	id      string
	client  *pubsub.Client
	topic   *pubsub.Topic
	ordered bool
	log     Logger
}

func newGCPPubSubPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if err := cfg.GCP.check(); err != nil {
		return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	p, err := dialPubSub(ctx, cfg.ID, *cfg.GCP, log)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func dialPubSub(ctx context.Context, id string, cfg GCPQueueConfig, log Logger) (*pubsubPublisher, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(cfg.Topic)
	topic.EnableMessageOrdering = cfg.Ordered
	return &pubsubPublisher{
		id:      id,
		client:  client,
		topic:   topic,
		ordered: cfg.Ordered,
		log:     orNoop(log),
	}, nil
}

func (p *pubsubPublisher) ID() string   { return p.id }
func (p *pubsubPublisher) Type() string { return TypeGCPPubSub }

func (p *pubsubPublisher) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := &pubsub.Message{Data: data, Attributes: evt.attributes()}
	if p.ordered {
		msg.OrderingKey = evt.GroupKey()
	}

	msgID, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		if p.ordered {
			// A failed ordered publish pauses its key until resumed.
			p.topic.ResumePublish(msg.OrderingKey)
		}
		logDeliveryFailure(p.log, p, evt, err)
		return fmt.Errorf("pubsub publish: %w", err)
	}
	logDelivery(p.log, p, evt, msgID)
	return nil
}

// Close flushes pending messages and releases the client.
func (p *pubsubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
