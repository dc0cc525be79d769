package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureHeader           = "Stripe-Signature"
	DefaultSignatureTolerance = 5 * time.Minute
)

// VerifyWebhookSignature checks a "t=<unix>,v1=<hex>" header against
// HMAC-SHA256(secret, "<t>.<payload>"). Any matching v1 entry is accepted.
func VerifyWebhookSignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	header = strings.TrimSpace(header)
	if header == "" {
		return ErrMissingSignature
	}

	var (
		timestamp  int64
		haveTS     bool
		signatures [][]byte
	)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			timestamp, haveTS = ts, true
		case "v1":
			if sig, err := hex.DecodeString(value); err == nil {
				signatures = append(signatures, sig)
			}
		}
	}

	if !haveTS || len(signatures) == 0 {
		return ErrInvalidSignature
	}

	if tolerance > 0 {
		age := now.Sub(time.Unix(timestamp, 0))
		if age > tolerance || age < -tolerance {
			return ErrSignatureExpired
		}
	}

	expected := computeSignature(payload, secret, timestamp)
	for _, sig := range signatures {
		if hmac.Equal(sig, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// SignPayload builds a header value for payload, as the provider would.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(computeSignature(payload, secret, ts)))
}

func computeSignature(payload []byte, secret string, timestamp int64) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

func ParseEvent(payload []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}
	ev.Raw = json.RawMessage(payload)
	return &ev, nil
}
