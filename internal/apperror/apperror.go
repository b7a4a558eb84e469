package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyPaid carries a stable message that API callers pattern-match on.
	ErrAlreadyPaid = errors.New("Booking already paid")

	// ErrIntentNotFound means the gateway has no record of a payment intent
	// (expired, or test-mode data reset).
	ErrIntentNotFound = errors.New("payment intent not found")

	ErrMalformedPayload = errors.New("malformed webhook payload")
)

// NotFoundError marks a missing Offer/Booking/Client referenced by id.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func NewNotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// ValidationError holds a per-field error map surfaced as HTTP 422.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// GatewayError wraps a failed call to the payment processor. The underlying
// reason is logged server-side and never echoed to API callers.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("stripe %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
