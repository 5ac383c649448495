package publishers

import (
	"context"
	"errors"
)

const erpSource = "https://erp.example/api/index.php"

func productEvent(id int64, ref string) Event {
	return NewEvent(KindProductChanged, id, erpSource, "fp-product-"+ref, []byte(`{"id":"`+ref+`","ref":"`+ref+`","price":"10.50"}`))
}

func ordersEvent(customerID int64) Event {
	return NewEvent(KindCustomerOrdersChanged, customerID, erpSource, "fp-orders", []byte(`[{"id":"1","ref":"CO2401-0001","total_ttc":"12.50"}]`))
}

// recordingPublisher remembers which events reached it.
type recordingPublisher struct {
	id       string
	typ      string
	fail     bool
	closeErr error
	got      []Event
	closed   bool
}

func (r *recordingPublisher) ID() string   { return r.id }
func (r *recordingPublisher) Type() string { return r.typ }

func (r *recordingPublisher) Publish(_ context.Context, evt Event) error {
	r.got = append(r.got, evt)
	if r.fail {
		return errors.New("sink unavailable")
	}
	return nil
}

func (r *recordingPublisher) Close() error {
	r.closed = true
	return r.closeErr
}
