package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Cyrix126/doli-client-api-go/internal/logger"
	"github.com/Cyrix126/doli-client-api-go/internal/storage"
	"github.com/Cyrix126/doli-client-api-go/pkg/dolibarr"
	"github.com/Cyrix126/doli-client-api-go/pkg/publishers"
)

// Resource labels used for store keys, logs and metrics.
const (
	ResourceProduct  = "product"
	ResourceCustomer = "customer"
	ResourceOrders   = "orders"
	ResourceInvoices = "invoices"
)

// Service runs change detection passes against Dolibarr.
type Service struct {
	client    Client
	publisher EventPublisher
	store     storage.Store
	log       logger.Logger
	metrics   Metrics
	source    string
	delay     time.Duration
	customers []int64
}

// Options tunes a Service.
type Options struct {
	// Source is copied into every event, usually the API base URL.
	Source string
	// RequestDelay is waited between two product fetches.
	RequestDelay time.Duration
	// Customers are the thirdparty ids whose record, orders and invoices are watched.
	Customers []int64
}

// NewService wires a watcher. Nil store, logger and metrics fall back to no-ops.
func NewService(client Client, pub EventPublisher, store storage.Store, log logger.Logger, m Metrics, opts Options) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	if m == nil {
		m = nopMetrics{}
	}
	if store == nil {
		store, _ = storage.NewStore("none", "", storage.Options{})
	}
	customers := make([]int64, len(opts.Customers))
	copy(customers, opts.Customers)

	return &Service{
		client:    client,
		publisher: pub,
		store:     store,
		log:       log,
		metrics:   m,
		source:    opts.Source,
		delay:     opts.RequestDelay,
		customers: customers,
	}
}

// Run executes one pass over all products and watched customers. Per-record
// failures are collected and returned joined; cancellation ends the pass early
// without an error of its own.
func (s *Service) Run(ctx context.Context) error {
	if s == nil || s.client == nil || s.publisher == nil {
		return fmt.Errorf("watcher service is not initialized")
	}

	start := time.Now()
	var errs []error
	errs = append(errs, s.runProducts(ctx)...)
	errs = append(errs, s.runCustomers(ctx)...)
	s.metrics.ObservePass(time.Since(start))

	return errors.Join(errs...)
}

func (s *Service) runProducts(ctx context.Context) []error {
	ids, err := s.client.ListProductIDs(ctx)
	if err != nil {
		s.metrics.FetchFailed(ResourceProduct)
		if ctx.Err() != nil {
			return nil
		}
		return []error{fmt.Errorf("list products: %w", err)}
	}

	var errs []error
	changed := 0
	for i, id := range ids {
		if i > 0 && !s.wait(ctx) {
			break
		}
		if ctx.Err() != nil {
			break
		}

		product, err := s.client.GetProduct(ctx, id)
		if errors.Is(err, dolibarr.ErrIDDoesNotExist) {
			s.log.InfoObj("product vanished before fetch", "product_skip", map[string]any{
				"product_id": id,
			})
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.metrics.FetchFailed(ResourceProduct)
			errs = append(errs, fmt.Errorf("get product %d: %w", id, err))
			continue
		}

		ok, err := s.check(ctx, ResourceProduct, publishers.KindProductChanged, id, productKey(id), product)
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			changed++
		}
	}

	s.log.InfoObj("product pass completed", "product_result", map[string]any{
		"products_listed":  len(ids),
		"products_changed": changed,
		"errors":           len(errs),
	})
	return errs
}

func (s *Service) runCustomers(ctx context.Context) []error {
	var errs []error
	for _, id := range s.customers {
		if ctx.Err() != nil {
			break
		}
		if err := s.runCustomer(ctx, id); err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("customer watch failed", "customer_error", map[string]any{
				"customer_id": id,
				"error":       err.Error(),
			})
		}
	}
	return errs
}

func (s *Service) runCustomer(ctx context.Context, id int64) error {
	var errs []error

	if customer, err := s.client.GetCustomer(ctx, id); err != nil {
		s.metrics.FetchFailed(ResourceCustomer)
		errs = append(errs, fmt.Errorf("get customer %d: %w", id, err))
	} else if _, err := s.check(ctx, ResourceCustomer, publishers.KindCustomerChanged, id, customerKey(id, ""), customer); err != nil {
		errs = append(errs, err)
	}

	if orders, err := s.client.ListOrders(ctx, id); err != nil {
		s.metrics.FetchFailed(ResourceOrders)
		errs = append(errs, fmt.Errorf("list orders of customer %d: %w", id, err))
	} else if _, err := s.check(ctx, ResourceOrders, publishers.KindCustomerOrdersChanged, id, customerKey(id, ResourceOrders), orders); err != nil {
		errs = append(errs, err)
	}

	if invoices, err := s.client.ListInvoices(ctx, id); err != nil {
		s.metrics.FetchFailed(ResourceInvoices)
		errs = append(errs, fmt.Errorf("list invoices of customer %d: %w", id, err))
	} else if _, err := s.check(ctx, ResourceInvoices, publishers.KindCustomerInvoicesChanged, id, customerKey(id, ResourceInvoices), invoices); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// check fingerprints record and publishes it when it differs from the stored
// fingerprint. The new fingerprint is remembered only after every publisher
// accepted the event; a matching fingerprint is remembered again to renew it.
func (s *Service) check(ctx context.Context, resource, kind string, id int64, key string, record any) (bool, error) {
	s.metrics.Checked(resource)

	payload, fp, err := Fingerprint(record)
	if err != nil {
		return false, fmt.Errorf("fingerprint %s: %w", key, err)
	}

	prev, found, err := s.store.Fingerprint(key)
	if err != nil {
		s.log.WarnObj("fingerprint lookup failed", "storage_error", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
	} else if found && prev == fp {
		// Unchanged records still renew their expiry, or they would be
		// announced again once the TTL lapses.
		s.remember(key, fp)
		return false, nil
	}

	evt := publishers.NewEvent(kind, id, s.source, fp, payload)
	delivered, err := s.publisher.Publish(ctx, evt)
	if err != nil {
		s.metrics.PublishFailed(resource)
		return false, fmt.Errorf("publish %s: %w", key, err)
	}
	s.metrics.Published(resource)

	s.remember(key, fp)
	s.log.DebugObj("change published", "change_meta", map[string]any{
		"kind":       kind,
		"key":        key,
		"publishers": delivered,
	})
	return true, nil
}

func (s *Service) remember(key, fp string) {
	if err := s.store.Remember(key, fp); err != nil {
		s.log.WarnObj("fingerprint store failed", "storage_error", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// wait sleeps for the request delay; it returns false when ctx ends first.
func (s *Service) wait(ctx context.Context) bool {
	if s.delay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Fingerprint returns the JSON encoding of record and its hex sha256.
func Fingerprint(record any) (json.RawMessage, string, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, "", err
	}
	sum := sha256.Sum256(raw)
	return raw, hex.EncodeToString(sum[:]), nil
}

func productKey(id int64) string {
	return ResourceProduct + ":" + strconv.FormatInt(id, 10)
}

func customerKey(id int64, sub string) string {
	key := ResourceCustomer + ":" + strconv.FormatInt(id, 10)
	if sub != "" {
		key += ":" + sub
	}
	return key
}
