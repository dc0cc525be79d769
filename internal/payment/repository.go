package payment

import (
	"context"
	"database/sql"
	"errors"

	"stackstore-be/internal/logger"

	"go.uber.org/zap"
)

// Repository records verified provider webhook deliveries so each event is applied once.
type Repository interface {
	SaveWebhook(ctx context.Context, rec WebhookRecord) (webhookID int64, isDuplicate bool, err error)
	MarkWebhookProcessed(ctx context.Context, webhookID int64) error
	MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SaveWebhook(ctx context.Context, rec WebhookRecord) (int64, bool, error) {
	const q = `
	INSERT INTO payment_webhooks (provider, event_id, event_type, order_id, payload)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (provider, event_id) DO UPDATE
		SET attempts = payment_webhooks.attempts + 1
		WHERE payment_webhooks.processed_at IS NULL
	RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, q,
		rec.Provider, rec.EventID, rec.EventType, rec.OrderID, []byte(rec.Payload),
	).Scan(&id)
	if err != nil {
		// an already processed event hits ON CONFLICT without a row; unprocessed ones are retried
		if errors.Is(err, sql.ErrNoRows) {
			return 0, true, nil
		}
		logger.FromCtx(ctx).Error("failed to record webhook",
			zap.String("layer", "repository"),
			zap.String("event_id", rec.EventID),
			zap.Error(err),
		)
		return 0, false, err
	}
	return id, false, nil
}

func (r *repository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payment_webhooks SET processed_at = NOW(), process_error = NULL WHERE id = $1`, webhookID)
	return err
}

func (r *repository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payment_webhooks SET process_error = $2 WHERE id = $1`, webhookID, reason)
	return err
}
