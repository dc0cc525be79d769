package cart

import "errors"

var (
	ErrNegativePrice = errors.New("cart line price must not be negative")
	ErrEmptyProduct  = errors.New("cart line product id is empty")
)
