package dolibarr

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

const (
	thirdpartiesPath      = "/thirdparties/"
	thirdpartiesEmailPath = "/thirdparties/email/"
)

func customerPath(id int64) string {
	return thirdpartiesPath + strconv.FormatInt(id, 10)
}

// GetCustomer returns the customer record with the given thirdparty id.
func (c *Client) GetCustomer(ctx context.Context, id int64) (*CustomerData, error) {
	var data CustomerData
	if err := c.getJSON(ctx, customerPath(id), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetCustomerByEmail returns the customer record registered under email. It is
// the usual way to discover a customer's id.
func (c *Client) GetCustomerByEmail(ctx context.Context, email string) (*CustomerData, error) {
	if email == "" {
		return nil, errors.New("get customer by email: email is empty")
	}
	var data CustomerData
	if err := c.getJSON(ctx, thirdpartiesEmailPath+url.PathEscape(email), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// UpdateCustomer replaces the whole customer record stored under id.
func (c *Client) UpdateCustomer(ctx context.Context, id int64, data *CustomerData) error {
	if data == nil {
		return errors.New("update customer: data is nil")
	}
	resp, err := c.do(ctx, http.MethodPut, customerPath(id), data)
	if err != nil {
		return err
	}
	return expectSuccess(resp)
}
