package payment

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured      = errors.New("payment provider is not configured")
	ErrMissingSignature   = errors.New("missing webhook signature")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrSignatureExpired   = errors.New("webhook timestamp outside tolerance")
	ErrMalformedEvent     = errors.New("malformed webhook event")
	ErrEmptyCheckoutItems = errors.New("checkout session needs at least one line item")
)

// ProviderError is a non-2xx reply from the payment provider.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider returned %d: %s", e.Status, e.Message)
}
