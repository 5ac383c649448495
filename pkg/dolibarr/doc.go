// Package dolibarr is a typed client for the Dolibarr ERP REST API: products,
// thirdparties (customers), orders and invoices.
//
// Every method performs exactly one HTTP round trip. There is no retry, no
// caching and no client-side state beyond the immutable handle built by New.
//
// Errors are classified as follows:
//
//   - ErrIDDoesNotExist: Dolibarr answered 404 with the product-not-found message.
//   - ErrInvalidToken: the token given to New is empty or not a legal header value.
//   - ErrUnexpectedResponse: the body did not have the shape the operation needs.
//   - *TransportError: connection failure, other non-2xx status, undecodable body.
package dolibarr
