package publishers

import (
	"context"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
)

func startPubSub(t *testing.T, topic string) *pstest.Server {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { srv.Close() })
	t.Setenv("PUBSUB_EMULATOR_HOST", srv.Addr)

	ctx := context.Background()
	admin, err := pubsub.NewClient(ctx, "erp-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer admin.Close()
	if _, err := admin.CreateTopic(ctx, topic); err != nil {
		t.Fatalf("create topic: %v", err)
	}
	return srv
}

func TestPubSubPublisherSendsAttributes(t *testing.T) {
	srv := startPubSub(t, "dolibarr-changes")
	ctx := context.Background()

	pub, err := dialPubSub(ctx, "erp-pubsub", GCPQueueConfig{ProjectID: "erp-project", Topic: "dolibarr-changes"}, nil)
	if err != nil {
		t.Fatalf("dialPubSub: %v", err)
	}
	defer pub.Close()

	evt := NewEvent(KindCustomerChanged, 12, erpSource, "fp-cust", []byte(`{"id":"12","name":"ACME"}`))
	if err := pub.Publish(ctx, evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs := srv.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Attributes["kind"] != KindCustomerChanged || msgs[0].Attributes["resource_id"] != "12" {
		t.Fatalf("attributes = %v", msgs[0].Attributes)
	}
	if msgs[0].OrderingKey != "" {
		t.Fatalf("unordered topic got ordering key %q", msgs[0].OrderingKey)
	}
}

func TestPubSubOrderedPublisherKeysByRecord(t *testing.T) {
	srv := startPubSub(t, "dolibarr-ordered")
	ctx := context.Background()

	pub, err := dialPubSub(ctx, "erp-pubsub", GCPQueueConfig{ProjectID: "erp-project", Topic: "dolibarr-ordered", Ordered: true}, nil)
	if err != nil {
		t.Fatalf("dialPubSub: %v", err)
	}
	defer pub.Close()

	if err := pub.Publish(ctx, productEvent(42, "P42")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	msgs := srv.Messages()
	if len(msgs) != 1 || msgs[0].OrderingKey != "product-42" {
		t.Fatalf("ordering key not set: %+v", msgs)
	}
}
