package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// SignatureHeader carries the HMAC of a webhook body.
const SignatureHeader = "x-paystack-signature"

// ErrInvalidSignature is returned when a webhook signature does not match.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// WebhookEvent is the part of a Paystack notification the service acts on.
type WebhookEvent struct {
	Event     string
	Reference string
}

// VerifySignature checks the hex HMAC-SHA512 of body under secret.
func VerifySignature(secret string, body []byte, signature string) error {
	if secret == "" || signature == "" {
		return ErrInvalidSignature
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign returns the signature Paystack would send for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseWebhook verifies and decodes a webhook body.
func ParseWebhook(secret string, body []byte, signature string) (WebhookEvent, error) {
	if err := VerifySignature(secret, body, signature); err != nil {
		return WebhookEvent{}, err
	}
	var payload struct {
		Event string `json:"event"`
		Data  struct {
			Reference string `json:"reference"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookEvent{}, err
	}
	return WebhookEvent{Event: payload.Event, Reference: payload.Data.Reference}, nil
}
