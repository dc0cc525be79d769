package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stackstore-be/internal/events"
	"stackstore-be/internal/logger"
	"stackstore-be/internal/payment"
	"stackstore-be/internal/product"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CommitStrategy turns a validated checkout into an order, real or demo.
type CommitStrategy interface {
	Commit(ctx context.Context, in CheckoutInput) (*CheckoutResult, error)
	Name() string
}

// ProductFinder is the slice of the product repository checkout needs.
type ProductFinder interface {
	FindActiveByIDs(ctx context.Context, ids []string) ([]product.Product, error)
}

type PersistentStrategy struct {
	products  ProductFinder
	repo      Repository
	gateway   payment.Gateway
	publisher events.Publisher
	appURL    string
	newID     func() string
}

func NewPersistentStrategy(products ProductFinder, repo Repository, gateway payment.Gateway, publisher events.Publisher, appURL string) *PersistentStrategy {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &PersistentStrategy{
		products:  products,
		repo:      repo,
		gateway:   gateway,
		publisher: publisher,
		appURL:    strings.TrimRight(appURL, "/"),
		newID:     uuid.NewString,
	}
}

func (s *PersistentStrategy) Name() string { return "persistent" }

func (s *PersistentStrategy) Commit(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "strategy"),
		zap.String("method", "PersistentStrategy.Commit"),
	)

	lines := mergeLines(in.Items)
	if len(lines) == 0 {
		return nil, ErrEmptyCheckout
	}

	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}

	found, err := s.products.FindActiveByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	byID := make(map[string]product.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	// every line must resolve before any stock is judged
	for _, l := range lines {
		if _, ok := byID[l.ProductID]; !ok {
			return nil, &ProductUnavailableError{ProductID: l.ProductID}
		}
	}

	total := decimal.Zero
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		p := byID[l.ProductID]
		if p.Stock < l.Quantity {
			log.Info("insufficient stock",
				zap.String("product_id", p.ID),
				zap.Int("stock", p.Stock),
				zap.Int("requested", l.Quantity),
			)
			return nil, &InsufficientStockError{ProductID: p.ID, Name: p.Name}
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		items = append(items, Item{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			UnitPrice:   p.Price,
		})
	}

	method := in.Method()
	order, err := s.repo.CommitOrder(ctx, NewOrder{
		ID:            s.newID(),
		CustomerEmail: in.CustomerEmail,
		PaymentMethod: method,
		Total:         total,
		Items:         items,
	})
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{OrderID: order.ID}
	if method == PaymentStripe {
		if s.gateway == nil || !s.gateway.Configured() {
			log.Warn("card payment requested without provider credentials", zap.String("order_id", order.ID))
			s.publishPlaced(ctx, order)
			return nil, fmt.Errorf("order %s: %w", order.ID, ErrPaymentNotConfigured)
		}
		url, err := s.openSession(ctx, order, byID)
		if err != nil {
			return nil, err
		}
		result.CheckoutURL = url
	}

	s.publishPlaced(ctx, order)
	return result, nil
}

func (s *PersistentStrategy) openSession(ctx context.Context, order *Order, byID map[string]product.Product) (string, error) {
	params := payment.SessionParams{
		OrderID:       order.ID,
		CustomerEmail: order.CustomerEmail,
		SuccessURL:    s.appURL + "/checkout/success?orderId=" + order.ID,
		CancelURL:     s.appURL + "/checkout",
	}
	for _, it := range order.Items {
		params.LineItems = append(params.LineItems, payment.LineItem{
			Name:      byID[it.ProductID].Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			return "", fmt.Errorf("order %s: %w", order.ID, ErrPaymentNotConfigured)
		}
		return "", fmt.Errorf("order %s: %w: %v", order.ID, ErrPaymentProvider, err)
	}

	if err := s.repo.SetPaymentRef(ctx, order.ID, session.ID); err != nil {
		return "", fmt.Errorf("order %s: %w: store session ref: %v", order.ID, ErrPaymentProvider, err)
	}
	return session.URL, nil
}

func (s *PersistentStrategy) publishPlaced(ctx context.Context, order *Order) {
	evt := events.OrderPlaced{
		OrderID:       order.ID,
		CustomerEmail: order.CustomerEmail,
		PaymentMethod: string(order.PaymentMethod),
		Total:         order.TotalAmount,
		CreatedAt:     order.CreatedAt,
	}
	for _, it := range order.Items {
		evt.Items = append(evt.Items, events.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	if err := s.publisher.Publish(ctx, events.OrderPlacedRoutingKey, evt); err != nil {
		logger.FromCtx(ctx).Warn("failed to publish order placed",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}
}

// EphemeralStrategy prices the cart against the built-in demo catalog and stores nothing.
type EphemeralStrategy struct {
	catalog *product.Catalog
	now     func() time.Time
}

func NewEphemeralStrategy(catalog *product.Catalog) *EphemeralStrategy {
	return &EphemeralStrategy{catalog: catalog, now: time.Now}
}

func (s *EphemeralStrategy) Name() string { return "ephemeral" }

func (s *EphemeralStrategy) Commit(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	total := decimal.Zero
	for _, l := range mergeLines(in.Items) {
		p, ok := s.catalog.Lookup(l.ProductID)
		if !ok {
			continue
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	id := fmt.Sprintf("demo-%d", s.now().UnixMilli())
	logger.FromCtx(ctx).Info("demo order created",
		zap.String("layer", "strategy"),
		zap.String("order_id", id),
		zap.String("total", total.String()),
	)
	return &CheckoutResult{OrderID: id, Total: &total, Mode: ModeDemo}, nil
}

// FallbackStrategy runs Primary and answers with Fallback when the primary fails
// for reasons outside the request itself.
type FallbackStrategy struct {
	Primary  CommitStrategy
	Fallback CommitStrategy
}

func (s *FallbackStrategy) Name() string { return "fallback" }

func (s *FallbackStrategy) Commit(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	res, err := s.Primary.Commit(ctx, in)
	if err == nil || IsBusinessError(err) {
		return res, err
	}

	logger.FromCtx(ctx).Warn("primary checkout failed, using fallback",
		zap.String("layer", "strategy"),
		zap.String("primary", s.Primary.Name()),
		zap.String("fallback", s.Fallback.Name()),
		zap.Error(err),
	)
	return s.Fallback.Commit(ctx, in)
}

// mergeLines trims product ids and folds repeated ids into one line, keeping first-seen order.
func mergeLines(lines []CheckoutLine) []CheckoutLine {
	out := make([]CheckoutLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, l := range lines {
		id := strings.TrimSpace(l.ProductID)
		if id == "" || l.Quantity <= 0 {
			continue
		}
		if i, ok := index[id]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[id] = len(out)
		out = append(out, CheckoutLine{ProductID: id, Quantity: l.Quantity})
	}
	return out
}
