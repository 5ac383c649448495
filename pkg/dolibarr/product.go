package dolibarr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Cyrix126/doli-client-api-go/pkg/httpclient"
	"github.com/go-resty/resty/v2"
)

const (
	// Dolibarr reports missing products with this flattened key and English text.
	notFoundMessageKey     = "error/message"
	productNotFoundMessage = "Not Found: Product not found"

	productsPath    = "/products/"
	productsIDsPath = "/products?limit=0&ids_only=true"
)

func productPath(id int64) string {
	return productsPath + strconv.FormatInt(id, 10)
}

// CreateProduct posts a new product and returns the id Dolibarr assigned to it.
func (c *Client) CreateProduct(ctx context.Context, product *Product) (int64, error) {
	if product == nil {
		return 0, errors.New("create product: product is nil")
	}
	resp, err := c.do(ctx, http.MethodPost, productsPath, product)
	if err != nil {
		return 0, err
	}
	if err := expectSuccess(resp); err != nil {
		return 0, err
	}

	raw := strings.TrimSpace(string(resp.Body()))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: created product id %q", ErrUnexpectedResponse, httpclient.Snippet(resp.Body(), maxErrorBodyBytes))
	}
	return id, nil
}

// GetProduct fetches the product with the given id.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	resp, err := c.fetchProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	var product Product
	if err := decodeJSON(resp, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// GetBarcode returns the barcode of a product. ok is false when the product has
// no barcode (key absent, null or not a string).
func (c *Client) GetBarcode(ctx context.Context, id int64) (barcode string, ok bool, err error) {
	fields, err := c.productFields(ctx, id)
	if err != nil {
		return "", false, err
	}
	raw, present := fields["barcode"]
	if !present {
		return "", false, nil
	}
	var value *string
	if err := json.Unmarshal(raw, &value); err != nil || value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

// GetLabel returns the label of a product.
func (c *Client) GetLabel(ctx context.Context, id int64) (string, error) {
	fields, err := c.productFields(ctx, id)
	if err != nil {
		return "", err
	}
	raw, present := fields["label"]
	if !present {
		return "", fmt.Errorf("%w: product %d has no label", ErrUnexpectedResponse, id)
	}
	var label string
	if err := json.Unmarshal(raw, &label); err != nil {
		return "", fmt.Errorf("%w: product %d label is not a string", ErrUnexpectedResponse, id)
	}
	return label, nil
}

// ListProductIDs returns every product id known to Dolibarr, in server order.
// Empty, null or non-positive entries fail the whole call.
func (c *Client) ListProductIDs(ctx context.Context) ([]int64, error) {
	var raw []json.RawMessage
	if err := c.getJSON(ctx, productsIDsPath, &raw); err != nil {
		return nil, err
	}
	ids := make([]int64, len(raw))
	for i, elem := range raw {
		var id ID
		if blankNumeric(elem) {
			return nil, fmt.Errorf("%w: product id list entry %d is empty", ErrUnexpectedResponse, i)
		}
		if err := json.Unmarshal(elem, &id); err != nil {
			return nil, err
		}
		if id <= 0 {
			return nil, fmt.Errorf("%w: product id list entry %d is %d", ErrUnexpectedResponse, i, id)
		}
		ids[i] = int64(id)
	}
	return ids, nil
}

// UpdateProduct replaces the product identified by product.Key(). Success is
// decided by the status code alone.
func (c *Client) UpdateProduct(ctx context.Context, product *Product) error {
	if product == nil {
		return errors.New("update product: product is nil")
	}
	key := product.Key()
	if key == 0 {
		return errors.New("update product: product has no rowid")
	}
	resp, err := c.do(ctx, http.MethodPut, productPath(int64(key)), product)
	if err != nil {
		return err
	}
	return expectSuccess(resp)
}

// fetchProduct runs GET /products/{id} and applies the not-found rule before
// the generic status check.
func (c *Client) fetchProduct(ctx context.Context, id int64) (*resty.Response, error) {
	resp, err := c.do(ctx, http.MethodGet, productPath(id), nil)
	if err != nil {
		return nil, err
	}
	if productMissing(resp.StatusCode(), resp.Body()) {
		return nil, fmt.Errorf("product %d: %w", id, ErrIDDoesNotExist)
	}
	if err := expectSuccess(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) productFields(ctx context.Context, id int64) (map[string]json.RawMessage, error) {
	resp, err := c.fetchProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := decodeJSON(resp, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// productMissing reports whether a response is Dolibarr's product-not-found
// answer: status 404 and a literal "error/message" key holding the exact text.
func productMissing(status int, body []byte) bool {
	if status != http.StatusNotFound {
		return false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return false
	}
	raw, ok := fields[notFoundMessageKey]
	if !ok {
		return false
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		return false
	}
	return msg == productNotFoundMessage
}
