package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrSessionExpired marks a response that was the HTML login page instead
	// of the requested payload. The user has to sign in again.
	ErrSessionExpired = errors.New("client: session expired, sign in again")
	// ErrInvalidCredentials marks a rejected login attempt.
	ErrInvalidCredentials = errors.New("client: invalid credentials")
	// ErrUnknownFormat marks an export format outside csv, pdf, excel.
	ErrUnknownFormat = errors.New("client: unknown export format")
	// ErrSuperseded marks a list response discarded because a newer request
	// was issued before it arrived.
	ErrSuperseded = errors.New("client: response superseded by a newer request")
	// ErrMutationInFlight marks a second mutation submitted for an item whose
	// previous mutation has not resolved.
	ErrMutationInFlight = errors.New("client: mutation already in flight for item")
	// ErrInvalidQuantity marks a non-positive mutation quantity.
	ErrInvalidQuantity = errors.New("client: quantity must be positive")
	// ErrInsufficientStock marks an outbound quantity above the displayed stock.
	ErrInsufficientStock = errors.New("client: quantity exceeds available stock")
)

// HTTPError carries a non-2xx response status. The body is not retained.
type HTTPError struct {
	Status     int
	StatusText string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("client: server returned %d %s", e.Status, e.StatusText)
}

func newHTTPError(resp *http.Response) *HTTPError {
	return &HTTPError{Status: resp.StatusCode, StatusText: http.StatusText(resp.StatusCode)}
}
