package watcher

import (
	"context"
	"time"

	"github.com/Cyrix126/doli-client-api-go/pkg/dolibarr"
	"github.com/Cyrix126/doli-client-api-go/pkg/publishers"
)

// Client is the part of the Dolibarr API the watcher reads.
type Client interface {
	ListProductIDs(ctx context.Context) ([]int64, error)
	GetProduct(ctx context.Context, id int64) (*dolibarr.Product, error)
	GetCustomer(ctx context.Context, id int64) (*dolibarr.CustomerData, error)
	ListOrders(ctx context.Context, customerID int64) ([]dolibarr.Document, error)
	ListInvoices(ctx context.Context, customerID int64) ([]dolibarr.Document, error)
}

// EventPublisher publishes change events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Metrics receives pass counters.
type Metrics interface {
	Checked(resource string)
	Published(resource string)
	PublishFailed(resource string)
	FetchFailed(resource string)
	ObservePass(d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) Checked(string)            {}
func (nopMetrics) Published(string)          {}
func (nopMetrics) PublishFailed(string)      {}
func (nopMetrics) FetchFailed(string)        {}
func (nopMetrics) ObservePass(time.Duration) {}
