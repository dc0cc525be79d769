package cart

import "github.com/shopspring/decimal"

// Line is one stored cart row; the JSON shape matches the shopper client's local cart.
type Line struct {
	ProductID string          `json:"productId" validate:"required,max=64"`
	Name      string          `json:"name" validate:"required,max=200"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl" validate:"max=2048"`
	Quantity  int             `json:"quantity" validate:"gte=1,lte=999"`
}

type Snapshot struct {
	Items []Line `json:"items" validate:"required,dive"`
}
