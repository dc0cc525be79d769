package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderPlacedRoutingKey = "order.placed"
	OrderPaidRoutingKey   = "order.paid"
	DefaultExchange       = "order_exchange"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

type OrderItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderPlaced struct {
	OrderID       string          `json:"order_id"`
	CustomerEmail string          `json:"customer_email"`
	PaymentMethod string          `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	Items         []OrderItem     `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
}

type OrderPaid struct {
	OrderID    string    `json:"order_id"`
	PaymentRef string    `json:"payment_ref"`
	PaidAt     time.Time `json:"paid_at"`
}

// NoopPublisher drops every event; used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

func (NoopPublisher) Close() error { return nil }
