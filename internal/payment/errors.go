package payment

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured    = errors.New("payment rail not configured")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedPayload = errors.New("malformed webhook payload")
	ErrNotPending       = errors.New("order is not awaiting payment")
)

// ProviderError wraps a failed call to a payment processor or chain node.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
