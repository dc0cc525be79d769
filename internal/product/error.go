package product

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("price must be greater than zero")
	ErrSlugTaken       = errors.New("slug already in use")
	ErrStockConflict   = errors.New("stock changed concurrently")
	ErrEmptyName       = errors.New("name is required")
	ErrProductInUse    = errors.New("product is referenced by existing orders; deactivate it instead")
)

// StockConflictError reports a guarded decrement that matched no row.
type StockConflictError struct {
	ProductID string
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("not enough stock left for product %s", e.ProductID)
}

func (e *StockConflictError) Is(target error) bool {
	return target == ErrStockConflict
}
