package payment

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

const (
	EventCheckoutCompleted = "checkout.session.completed"
	MetadataOrderID        = "orderId"
	ProviderStripe         = "STRIPE"
)

type LineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

type SessionParams struct {
	OrderID       string
	CustomerEmail string
	Currency      string
	SuccessURL    string
	CancelURL     string
	LineItems     []LineItem
}

type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Event is the subset of a provider webhook event the server acts on.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object SessionObject `json:"object"`
	} `json:"data"`
	Raw json.RawMessage `json:"-"`
}

type SessionObject struct {
	ID            string            `json:"id"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

func (e *Event) OrderID() string {
	return e.Data.Object.Metadata[MetadataOrderID]
}

type WebhookRecord struct {
	Provider  string
	EventID   string
	EventType string
	OrderID   string
	Payload   json.RawMessage
}
