package payment

import (
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	secret := "whsec_test"
	now := time.Unix(1_700_000_000, 0)

	t.Run("Valid", func(t *testing.T) {
		header := SignPayload(payload, secret, now)
		assert.NoError(t, VerifyWebhookSignature(payload, header, secret, DefaultSignatureTolerance, now.Add(time.Minute)))
	})

	t.Run("AnyMatchingV1", func(t *testing.T) {
		sig := hex.EncodeToString(computeSignature(payload, secret, now.Unix()))
		header := fmt.Sprintf("t=%d,v1=00ff,v1=%s", now.Unix(), sig)
		assert.NoError(t, VerifyWebhookSignature(payload, header, secret, DefaultSignatureTolerance, now))
	})

	t.Run("Missing", func(t *testing.T) {
		assert.ErrorIs(t, VerifyWebhookSignature(payload, "  ", secret, DefaultSignatureTolerance, now), ErrMissingSignature)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		header := SignPayload(payload, "other", now)
		assert.ErrorIs(t, VerifyWebhookSignature(payload, header, secret, DefaultSignatureTolerance, now), ErrInvalidSignature)
	})

	t.Run("TamperedPayload", func(t *testing.T) {
		header := SignPayload(payload, secret, now)
		err := VerifyWebhookSignature([]byte(`{"id":"evt_2"}`), header, secret, DefaultSignatureTolerance, now)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("Stale", func(t *testing.T) {
		header := SignPayload(payload, secret, now)
		err := VerifyWebhookSignature(payload, header, secret, DefaultSignatureTolerance, now.Add(6*time.Minute))
		assert.ErrorIs(t, err, ErrSignatureExpired)
	})

	t.Run("NoTimestamp", func(t *testing.T) {
		assert.ErrorIs(t, VerifyWebhookSignature(payload, "v1=abcd", secret, 0, now), ErrInvalidSignature)
	})

	t.Run("BadTimestamp", func(t *testing.T) {
		assert.ErrorIs(t, VerifyWebhookSignature(payload, "t=abc,v1=abcd", secret, 0, now), ErrInvalidSignature)
	})
}

func TestParseEvent(t *testing.T) {
	t.Run("CheckoutCompleted", func(t *testing.T) {
		raw := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","payment_status":"paid","metadata":{"orderId":"ord-1"}}}}`)

		ev, err := ParseEvent(raw)
		require.NoError(t, err)
		assert.Equal(t, EventCheckoutCompleted, ev.Type)
		assert.Equal(t, "ord-1", ev.OrderID())
		assert.Equal(t, "cs_1", ev.Data.Object.ID)
		assert.JSONEq(t, string(raw), string(ev.Raw))
	})

	t.Run("NoMetadata", func(t *testing.T) {
		ev, err := ParseEvent([]byte(`{"id":"evt_1","type":"charge.refunded"}`))
		require.NoError(t, err)
		assert.Empty(t, ev.OrderID())
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := ParseEvent([]byte(`{`))
		assert.ErrorIs(t, err, ErrMalformedEvent)

		_, err = ParseEvent([]byte(`{"id":"evt_1"}`))
		assert.ErrorIs(t, err, ErrMalformedEvent)
	})
}
