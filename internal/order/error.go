package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidStatus        = errors.New("invalid order status")
	ErrEmptyCheckout        = errors.New("checkout has no items")
	ErrProductUnavailable   = errors.New("product unavailable")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrPaymentNotConfigured = errors.New("Stripe is not configured. Set STRIPE_SECRET_KEY or use Cash On Delivery.")
	ErrPaymentProvider      = errors.New("payment provider failed")
)

type InsufficientStockError struct {
	ProductID string
	Name      string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s", e.Name)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type ProductUnavailableError struct {
	ProductID string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is unavailable", e.ProductID)
}

func (e *ProductUnavailableError) Is(target error) bool {
	return target == ErrProductUnavailable
}

// IsBusinessError reports errors that describe the request rather than the infrastructure.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrPaymentNotConfigured) ||
		errors.Is(err, ErrPaymentProvider) ||
		errors.Is(err, ErrEmptyCheckout)
}
