package publishers

import "testing"

func TestKindFilterAccepts(t *testing.T) {
	cases := []struct {
		filter KindFilter
		kind   string
		want   bool
	}{
		{nil, KindCustomerInvoicesChanged, true},
		{KindFilter{"*"}, KindProductChanged, true},
		{KindFilter{KindProductChanged}, KindProductChanged, true},
		{KindFilter{KindProductChanged}, KindCustomerChanged, false},
		{KindFilter{"customer.*"}, KindCustomerChanged, true},
		{KindFilter{"customer.*"}, KindCustomerOrdersChanged, true},
		{KindFilter{"customer.*"}, KindProductChanged, false},
		{KindFilter{"customer.orders.*"}, KindCustomerInvoicesChanged, false},
		{KindFilter{"product.*", KindCustomerInvoicesChanged}, KindCustomerInvoicesChanged, true},
	}
	for _, tc := range cases {
		if got := tc.filter.Accepts(tc.kind); got != tc.want {
			t.Fatalf("%v.Accepts(%s) = %v, want %v", tc.filter, tc.kind, got, tc.want)
		}
	}
}

func TestSanitizeKinds(t *testing.T) {
	got := sanitizeKinds([]string{" Product.Changed ", "", "customer.*", "product.changed"})
	if len(got) != 2 || got[0] != KindProductChanged || got[1] != "customer.*" {
		t.Fatalf("sanitizeKinds = %v", got)
	}
}

func TestValidateKinds(t *testing.T) {
	for _, ok := range []KindFilter{nil, {"*"}, {"customer.*"}, {"customer.orders.*"}, {KindProductChanged}} {
		if err := validateKinds(ok); err != nil {
			t.Fatalf("validateKinds(%v): %v", ok, err)
		}
	}
	for _, bad := range []KindFilter{{"order.*"}, {"product"}, {"customer*"}, {"invoice.changed"}} {
		if err := validateKinds(bad); err == nil {
			t.Fatalf("expected %v to be rejected", bad)
		}
	}
}

func TestEventRoutingHelpers(t *testing.T) {
	evt := ordersEvent(12)
	if evt.Resource() != "customer" || evt.GroupKey() != "customer-12" {
		t.Fatalf("resource=%s group=%s", evt.Resource(), evt.GroupKey())
	}
	attrs := evt.attributes()
	if attrs["kind"] != KindCustomerOrdersChanged || attrs["resource_id"] != "12" || attrs["fingerprint"] != "fp-orders" {
		t.Fatalf("attributes = %v", attrs)
	}
	if got := productEvent(4, "P4").Subject(); got != "Dolibarr product 4: product.changed" {
		t.Fatalf("subject = %q", got)
	}
}
