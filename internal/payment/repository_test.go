package payment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_SaveWebhook(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	rec := WebhookRecord{
		Provider:  ProviderStripe,
		EventID:   "evt_1",
		EventType: EventCheckoutCompleted,
		OrderID:   "ord-1",
		Payload:   json.RawMessage(`{}`),
	}

	t.Run("New", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO payment_webhooks \(provider, event_id, event_type, order_id, payload\)`).
			WithArgs("STRIPE", "evt_1", EventCheckoutCompleted, "ord-1", []byte(`{}`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

		id, dup, err := repo.SaveWebhook(ctx, rec)
		require.NoError(t, err)
		assert.False(t, dup)
		assert.Equal(t, int64(11), id)
	})

	t.Run("Duplicate", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO payment_webhooks`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, dup, err := repo.SaveWebhook(ctx, rec)
		require.NoError(t, err)
		assert.True(t, dup)
	})

	t.Run("Error", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO payment_webhooks`).WillReturnError(errors.New("db down"))

		_, _, err := repo.SaveWebhook(ctx, rec)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkWebhook(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE payment_webhooks SET processed_at = NOW\(\), process_error = NULL WHERE id = \$1`).
		WithArgs(int64(11)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE payment_webhooks SET process_error = \$2 WHERE id = \$1`).
		WithArgs(int64(12), "order not found").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkWebhookProcessed(ctx, 11))
	require.NoError(t, repo.MarkWebhookFailed(ctx, 12, "order not found"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
