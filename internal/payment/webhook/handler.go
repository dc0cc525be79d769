package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"stackstore-be/internal/logger"
	"stackstore-be/internal/metrics"
	"stackstore-be/internal/order"
	"stackstore-be/internal/payment"
	"stackstore-be/internal/transport"

	"go.uber.org/zap"
)

const maxPayloadBytes = 1 << 16

// PaidMarker is the part of the order service a completed checkout session drives.
type PaidMarker interface {
	MarkAsPaid(ctx context.Context, orderID, sessionRef string) error
}

type Handler struct {
	secret    string
	tolerance time.Duration
	orders    PaidMarker
	log       payment.Repository
	metrics   *metrics.Registry
	now       func() time.Time
}

// NewHandler builds the provider webhook endpoint. deliveries may be nil, in which
// case every verified event is applied without a delivery log.
func NewHandler(secret string, orders PaidMarker, deliveries payment.Repository, reg *metrics.Registry) *Handler {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Handler{
		secret:    secret,
		tolerance: payment.DefaultSignatureTolerance,
		orders:    orders,
		log:       deliveries,
		metrics:   reg,
		now:       time.Now,
	}
}

type ack struct {
	Received bool `json:"received"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "webhook"),
		zap.String("provider", payment.ProviderStripe),
	)

	if h.secret == "" {
		transport.WriteError(w, http.StatusBadRequest, "Stripe webhook is not configured")
		return
	}

	signature := r.Header.Get(payment.SignatureHeader)
	if signature == "" {
		h.reject(w, "Missing Stripe signature")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn("webhook payload too large", zap.Int64("limit", tooLarge.Limit))
			h.metrics.Counter(metrics.WebhookRejected).Inc()
			transport.WriteError(w, http.StatusRequestEntityTooLarge, "Webhook payload too large")
			return
		}
		h.reject(w, "Unable to read webhook payload")
		return
	}

	if err := payment.VerifyWebhookSignature(payload, signature, h.secret, h.tolerance, h.now()); err != nil {
		log.Warn("webhook signature rejected", zap.Error(err))
		h.reject(w, err.Error())
		return
	}

	event, err := payment.ParseEvent(payload)
	if err != nil {
		log.Warn("webhook payload rejected", zap.Error(err))
		h.reject(w, err.Error())
		return
	}
	log = log.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	var deliveryID int64
	if h.log != nil && event.ID != "" {
		id, duplicate, err := h.log.SaveWebhook(ctx, payment.WebhookRecord{
			Provider:  payment.ProviderStripe,
			EventID:   event.ID,
			EventType: event.Type,
			OrderID:   event.OrderID(),
			Payload:   event.Raw,
		})
		switch {
		case err != nil:
			log.Error("failed to record webhook delivery", zap.Error(err))
		case duplicate:
			log.Info("webhook already processed")
			transport.WriteJSON(w, http.StatusOK, ack{Received: true})
			return
		default:
			deliveryID = id
		}
	}

	if err := h.apply(ctx, event); err != nil {
		h.markFailed(ctx, deliveryID, err)
		if errors.Is(err, order.ErrOrderNotFound) {
			// the order will never appear, so retries cannot help
			log.Warn("webhook references unknown order", zap.String("order_id", event.OrderID()))
			transport.WriteJSON(w, http.StatusOK, ack{Received: true})
			return
		}
		log.Error("failed to apply webhook", zap.Error(err))
		transport.WriteError(w, http.StatusInternalServerError, "Webhook processing failed")
		return
	}

	h.markProcessed(ctx, deliveryID)
	transport.WriteJSON(w, http.StatusOK, ack{Received: true})
}

func (h *Handler) apply(ctx context.Context, event *payment.Event) error {
	if event.Type != payment.EventCheckoutCompleted {
		return nil
	}

	orderID := event.OrderID()
	if orderID == "" {
		logger.FromCtx(ctx).Info("completed session without order reference",
			zap.String("session_id", event.Data.Object.ID))
		return nil
	}
	return h.orders.MarkAsPaid(ctx, orderID, event.Data.Object.ID)
}

func (h *Handler) reject(w http.ResponseWriter, message string) {
	h.metrics.Counter(metrics.WebhookRejected).Inc()
	transport.WriteError(w, http.StatusBadRequest, message)
}

func (h *Handler) markProcessed(ctx context.Context, id int64) {
	if h.log == nil || id == 0 {
		return
	}
	if err := h.log.MarkWebhookProcessed(ctx, id); err != nil {
		logger.FromCtx(ctx).Warn("failed to mark webhook processed", zap.Int64("webhook_id", id), zap.Error(err))
	}
}

func (h *Handler) markFailed(ctx context.Context, id int64, cause error) {
	if h.log == nil || id == 0 {
		return
	}
	if err := h.log.MarkWebhookFailed(ctx, id, cause.Error()); err != nil {
		logger.FromCtx(ctx).Warn("failed to mark webhook failed", zap.Int64("webhook_id", id), zap.Error(err))
	}
}
