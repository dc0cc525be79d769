package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusPaid       Status = "PAID"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
)

var AllStatuses = []Status{
	StatusPending, StatusPaid, StatusProcessing, StatusShipped,
	StatusDelivered, StatusFailed, StatusCancelled,
}

func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Valid()
}

type PaymentMethod string

const (
	PaymentStripe PaymentMethod = "STRIPE"
	PaymentCOD    PaymentMethod = "COD"
)

type Order struct {
	ID            string          `json:"id"`
	CustomerEmail string          `json:"customerEmail"`
	Status        Status          `json:"status"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentRef    *string         `json:"paymentRef,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Items         []Item          `json:"items"`
}

// Item snapshots the unit price at the moment the order was placed.
type Item struct {
	ID          int64           `json:"id"`
	OrderID     string          `json:"orderId"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type CheckoutLine struct {
	ProductID string `json:"productId" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=999"`
}

type CheckoutInput struct {
	CustomerEmail string         `json:"customerEmail" validate:"required,email"`
	PaymentMethod string         `json:"paymentMethod" validate:"required,oneof=stripe cod"`
	Items         []CheckoutLine `json:"items" validate:"required,min=1,dive"`
}

func (in CheckoutInput) Method() PaymentMethod {
	if strings.EqualFold(in.PaymentMethod, "stripe") {
		return PaymentStripe
	}
	return PaymentCOD
}

const ModeDemo = "demo"

type CheckoutResult struct {
	OrderID     string           `json:"orderId"`
	CheckoutURL string           `json:"checkoutUrl,omitempty"`
	Total       *decimal.Decimal `json:"total,omitempty"`
	Mode        string           `json:"mode,omitempty"`
}

type NewOrder struct {
	ID            string
	CustomerEmail string
	PaymentMethod PaymentMethod
	Total         decimal.Decimal
	Items         []Item
}

type ListFilter struct {
	Status *Status
	Limit  int
	Page   int
}

type ListResult struct {
	Items []Order `json:"items"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
}
