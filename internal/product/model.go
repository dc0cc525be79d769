package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type StockDecrement struct {
	ProductID string
	Quantity  int
}

type CreateInput struct {
	Name        string          `json:"name" validate:"required,min=2,max=120"`
	Slug        string          `json:"slug" validate:"omitempty,max=140"`
	Description string          `json:"description" validate:"max=4000"`
	ImageURL    string          `json:"imageUrl" validate:"omitempty,url"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	IsActive    *bool           `json:"isActive"`
}

// UpdateInput leaves nil fields untouched.
type UpdateInput struct {
	Name        *string          `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string          `json:"description" validate:"omitempty,max=4000"`
	ImageURL    *string          `json:"imageUrl" validate:"omitempty,url"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	IsActive    *bool            `json:"isActive"`
}

type ListOptions struct {
	Search string
	Limit  int
	Page   int
}

type ListResult struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}
