package publishers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Event kinds emitted by the watcher.
const (
	KindProductChanged          = "product.changed"
	KindCustomerChanged         = "customer.changed"
	KindCustomerOrdersChanged   = "customer.orders.changed"
	KindCustomerInvoicesChanged = "customer.invoices.changed"
)

// KnownKinds lists every kind the watcher can emit.
var KnownKinds = []string{
	KindProductChanged,
	KindCustomerChanged,
	KindCustomerOrdersChanged,
	KindCustomerInvoicesChanged,
}

// Event is a Dolibarr record whose fingerprint differs from the last one seen.
// Payload is the record as the client decoded it.
type Event struct {
	Kind        string          `json:"kind"`
	ResourceID  int64           `json:"resource_id"`
	Source      string          `json:"source"`
	Fingerprint string          `json:"fingerprint"`
	Payload     json.RawMessage `json:"payload"`
	DetectedAt  time.Time       `json:"detected_at"`
}

// NewEvent stamps an event with the current UTC time.
func NewEvent(kind string, resourceID int64, source, fingerprint string, payload json.RawMessage) Event {
	return Event{
		Kind:        kind,
		ResourceID:  resourceID,
		Source:      source,
		Fingerprint: fingerprint,
		Payload:     payload,
		DetectedAt:  time.Now().UTC(),
	}
}

// Resource is the record family of the event: "product" or "customer".
func (e Event) Resource() string {
	resource, _, _ := strings.Cut(e.Kind, ".")
	return resource
}

// GroupKey identifies the record an event is about. Brokers that keep order
// per group use it so that two changes of one record never swap.
func (e Event) GroupKey() string {
	return e.Resource() + "-" + strconv.FormatInt(e.ResourceID, 10)
}

// Subject is a short human readable summary, used as SNS subject.
func (e Event) Subject() string {
	return fmt.Sprintf("Dolibarr %s %d: %s", e.Resource(), e.ResourceID, e.Kind)
}

// attributes travel next to the body so subscribers can filter without
// decoding the payload.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"kind":        e.Kind,
		"resource":    e.Resource(),
		"resource_id": strconv.FormatInt(e.ResourceID, 10),
		"fingerprint": e.Fingerprint,
	}
}
