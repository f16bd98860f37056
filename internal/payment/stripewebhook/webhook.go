// Package stripewebhook validates and extracts the minimal routing
// data from a Stripe webhook delivery: signature verification plus
// (event id, event type, primary object id). It never returns or logs
// the raw event payload or signature header.
package stripewebhook

import (
	"errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// InvalidSignature is returned when Stripe-Signature verification
// fails.
type InvalidSignature struct{ cause error }

func (e *InvalidSignature) Error() string { return "stripewebhook: invalid signature" }
func (e *InvalidSignature) Unwrap() error { return e.cause }

// InvalidPayload is returned when the verified event does not carry
// the minimal fields this system routes on.
type InvalidPayload struct{ Reason string }

func (e *InvalidPayload) Error() string { return "stripewebhook: invalid payload: " + e.Reason }

// Event is the minimal data this system routes stripe webhooks on.
type Event struct {
	EventID   string
	EventType string
	ObjectID  string
}

// VerifyAndExtract verifies payloadBytes against signatureHeader using
// webhookSecret, then extracts the routing-relevant fields. No part of
// the raw event is retained beyond these three fields.
func VerifyAndExtract(payloadBytes []byte, signatureHeader, webhookSecret string) (Event, error) {
	evt, err := webhook.ConstructEvent(payloadBytes, signatureHeader, webhookSecret)
	if err != nil {
		var sigErr stripe.SignatureVerificationError
		if errors.As(err, &sigErr) {
			return Event{}, &InvalidSignature{cause: err}
		}
		return Event{}, &InvalidPayload{Reason: err.Error()}
	}

	if evt.ID == "" || evt.Type == "" {
		return Event{}, &InvalidPayload{Reason: "missing event id or type"}
	}

	return Event{
		EventID:   evt.ID,
		EventType: string(evt.Type),
		ObjectID:  extractObjectID(evt),
	}, nil
}

func extractObjectID(evt stripe.Event) string {
	if evt.Data == nil {
		return ""
	}
	raw, ok := evt.Data.Object["id"].(string)
	if !ok {
		return ""
	}
	return raw
}

// AsInvalidSignature reports whether err is an InvalidSignature.
func AsInvalidSignature(err error) bool {
	var sig *InvalidSignature
	return errors.As(err, &sig)
}

// AsInvalidPayload reports whether err is an InvalidPayload.
func AsInvalidPayload(err error) bool {
	var ip *InvalidPayload
	return errors.As(err, &ip)
}
