package dolibarr

import (
	"context"
	"strconv"
)

// ListOrders returns the orders of a customer.
func (c *Client) ListOrders(ctx context.Context, customerID int64) ([]Document, error) {
	return c.listDocuments(ctx, "/orders", customerID)
}

// ListInvoices returns the invoices of a customer.
func (c *Client) ListInvoices(ctx context.Context, customerID int64) ([]Document, error) {
	return c.listDocuments(ctx, "/invoices", customerID)
}

func (c *Client) listDocuments(ctx context.Context, collection string, customerID int64) ([]Document, error) {
	var docs []Document
	if err := c.getJSON(ctx, collection+"?thirdparty_ids="+strconv.FormatInt(customerID, 10), &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
