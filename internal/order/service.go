package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"stackstore-be/internal/events"
	"stackstore-be/internal/logger"
	"stackstore-be/internal/metrics"
	"stackstore-be/internal/utils"

	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type Service interface {
	Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error)
	MarkAsPaid(ctx context.Context, orderID, sessionRef string) error
	UpdateStatus(ctx context.Context, orderID string, status Status) (*Order, error)
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	ListOrdersByEmail(ctx context.Context, email string) ([]Order, error)
	ListOrders(ctx context.Context, filter ListFilter) (*ListResult, error)
}

type service struct {
	repo      Repository
	strategy  CommitStrategy
	publisher events.Publisher
	metrics   *metrics.Registry
	now       func() time.Time
}

// NewService wires the order service. repo may be nil when checkout runs purely on the
// ephemeral strategy; the query operations then report ErrOrderNotFound.
func NewService(repo Repository, strategy CommitStrategy, publisher events.Publisher, reg *metrics.Registry) Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &service{
		repo:      repo,
		strategy:  strategy,
		publisher: publisher,
		metrics:   reg,
		now:       time.Now,
	}
}

func (s *service) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
		zap.String("strategy", s.strategy.Name()),
	)

	timer := metrics.StartTimer()
	defer timer.ObserveInto(s.metrics.Counter(metrics.CheckoutLatency))

	in.CustomerEmail = strings.ToLower(strings.TrimSpace(in.CustomerEmail))
	in.PaymentMethod = strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	in.Items = mergeLines(in.Items)
	if len(in.Items) == 0 {
		s.metrics.Counter(metrics.CheckoutRejected).Inc()
		return nil, ErrEmptyCheckout
	}

	res, err := s.strategy.Commit(ctx, in)
	if err != nil {
		if IsBusinessError(err) {
			s.metrics.Counter(metrics.CheckoutRejected).Inc()
			log.Info("checkout rejected", zap.Error(err))
		} else {
			log.Error("checkout failed", zap.Error(err))
		}
		return nil, err
	}

	if res.Mode == ModeDemo {
		s.metrics.Counter(metrics.OrdersDemo).Inc()
	} else {
		s.metrics.Counter(metrics.OrdersCommitted).Inc()
	}

	log.Info("checkout completed",
		zap.String("order_id", res.OrderID),
		zap.Bool("redirect", res.CheckoutURL != ""),
	)
	return res, nil
}

func (s *service) MarkAsPaid(ctx context.Context, orderID, sessionRef string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "MarkAsPaid"),
		zap.String("order_id", orderID),
	)

	if s.repo == nil {
		return ErrOrderNotFound
	}

	changed, err := s.repo.MarkPaid(ctx, orderID, sessionRef)
	if err != nil {
		log.Error("failed to mark order paid", zap.Error(err))
		return err
	}
	if !changed {
		return nil
	}

	s.metrics.Counter(metrics.WebhookPaid).Inc()
	if err := s.publisher.Publish(ctx, events.OrderPaidRoutingKey, events.OrderPaid{
		OrderID:    orderID,
		PaymentRef: sessionRef,
		PaidAt:     s.now().UTC(),
	}); err != nil {
		log.Warn("failed to publish order paid", zap.Error(err))
	}

	log.Info("order marked paid")
	return nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID string, status Status) (*Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if s.repo == nil {
		return nil, ErrOrderNotFound
	}

	o, err := s.repo.UpdateStatus(ctx, orderID, status)
	if err != nil {
		if !errors.Is(err, ErrOrderNotFound) {
			logger.FromCtx(ctx).Error("failed to update order status",
				zap.String("layer", "service"),
				zap.String("order_id", orderID),
				zap.Error(err),
			)
		}
		return nil, err
	}
	return o, nil
}

func (s *service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	if s.repo == nil || strings.TrimSpace(orderID) == "" {
		return nil, ErrOrderNotFound
	}
	return s.repo.GetByID(ctx, orderID)
}

func (s *service) ListOrdersByEmail(ctx context.Context, email string) ([]Order, error) {
	email = strings.TrimSpace(email)
	if s.repo == nil || email == "" {
		return []Order{}, nil
	}
	return s.repo.ListByEmail(ctx, email)
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	limit, page, _ := utils.ClampPage(filter.Limit, filter.Page, defaultListLimit, maxListLimit)
	filter.Limit, filter.Page = limit, page

	if s.repo == nil {
		return &ListResult{Items: []Order{}, Page: page, Limit: limit}, nil
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ListResult{Items: items, Total: total, Page: page, Limit: limit}, nil
}
