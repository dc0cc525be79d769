package payment

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"stackstore-be/internal/logger"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error)
	Configured() bool
}

type stripeGateway struct {
	apiKey string
	client *resty.Client
}

type stripeErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewStripeGateway talks to the Stripe REST API at baseURL. An empty apiKey yields a
// gateway that reports itself unconfigured.
func NewStripeGateway(apiKey, baseURL string) Gateway {
	if apiKey == "" {
		logger.L().Warn("stripe secret key is empty, card checkout disabled")
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(apiKey, "").
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(300*time.Millisecond).
		SetHeader("Accept", "application/json")

	return &stripeGateway{apiKey: apiKey, client: client}
}

func (g *stripeGateway) Configured() bool {
	return g.apiKey != ""
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("method", "CreateCheckoutSession"),
		zap.String("order_id", params.OrderID),
	)

	if !g.Configured() {
		return nil, ErrNotConfigured
	}
	if len(params.LineItems) == 0 {
		return nil, ErrEmptyCheckoutItems
	}

	var (
		session  Session
		apiError stripeErrorBody
	)

	// Idempotency-Key keeps resty retries from opening a second session.
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", "checkout-"+params.OrderID).
		SetFormDataFromValues(sessionForm(params)).
		SetResult(&session).
		SetError(&apiError).
		Post("/v1/checkout/sessions")
	if err != nil {
		log.Error("stripe request failed", zap.Error(err))
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	if resp.IsError() {
		log.Error("stripe returned non-success status",
			zap.Int("status", resp.StatusCode()),
			zap.String("type", apiError.Error.Type),
		)
		msg := apiError.Error.Message
		if msg == "" {
			msg = resp.Status()
		}
		return nil, &ProviderError{Status: resp.StatusCode(), Message: msg}
	}

	log.Info("checkout session created", zap.String("session_id", session.ID))
	return &session, nil
}

func sessionForm(p SessionParams) url.Values {
	currency := p.Currency
	if currency == "" {
		currency = "usd"
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	form.Set("metadata["+MetadataOrderID+"]", p.OrderID)
	if p.CustomerEmail != "" {
		form.Set("customer_email", p.CustomerEmail)
	}

	for i, item := range p.LineItems {
		prefix := "line_items[" + strconv.Itoa(i) + "]"
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
		form.Set(prefix+"[price_data][currency]", currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(ToMinorUnits(item.UnitPrice), 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
	}
	return form
}

// ToMinorUnits converts a major-unit amount to cents, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
