package dolibarr

import (
	"errors"
	"fmt"
)

var (
	// ErrIDDoesNotExist is returned when Dolibarr confirms the requested product id is absent.
	ErrIDDoesNotExist = errors.New("product requested does not exist")
	// ErrInvalidToken is returned when the API token is empty or not a legal header value.
	ErrInvalidToken = errors.New("invalid api token")
	// ErrUnexpectedResponse is returned when a response body does not have the shape an operation requires.
	ErrUnexpectedResponse = errors.New("unexpected response from dolibarr api")
)

// TransportError wraps connection failures, unclassified non-2xx statuses and body decoding failures.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.URL, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusCode extracts the HTTP status carried by a TransportError, or 0.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}
