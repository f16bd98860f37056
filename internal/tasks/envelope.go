// Package tasks implements the Task Dispatcher (spec §4.I): a uniform,
// backend-pluggable enqueue API deduplicated by task_id, carrying a
// versioned envelope that is never allowed to contain PII.
package tasks

import "encoding/json"

// EnvelopeVersion is the only wire version this dispatcher currently
// emits or accepts.
const EnvelopeVersion = "v1"

// Name is the discriminated-union tag for task payloads, replacing the
// original system's duck-typed dict dispatch per spec §9.
type Name string

const (
	NameExpireHold            Name = "expire_hold"
	NameStripeHandleEvent     Name = "stripe_handle_event"
	NameWhatsAppHandleMessage Name = "whatsapp_handle_message"
)

// Envelope is the canonical wire shape POSTed to the worker, or recorded
// by the inline backend for tests.
type Envelope struct {
	Version  string          `json:"version"`
	TaskName Name            `json:"task_name"`
	TaskID   string          `json:"task_id"`
	Payload  json.RawMessage `json:"payload"`
}

// ExpireHoldPayload drives tasks_holds.expire (spec §4.F Hold Expiration).
type ExpireHoldPayload struct {
	PropertyID    string `json:"property_id"`
	HoldID        string `json:"hold_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// StripeHandleEventPayload drives tasks_stripe.handle-event (spec §4.G).
type StripeHandleEventPayload struct {
	EventID       string `json:"event_id"`
	EventType     string `json:"event_type"`
	ObjectID      string `json:"object_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// WhatsAppHandleMessagePayload drives tasks_whatsapp.handle-message
// (spec §4.A/§4.D). ConversationID is a foreign key, not PII: it
// carries no channel address or text, only a reference the worker
// resolves through the conversation and vault tables. The payload
// never carries raw text or a raw channel address.
type WhatsAppHandleMessagePayload struct {
	PropertyID     string `json:"property_id"`
	MessageID      string `json:"message_id"`
	Provider       string `json:"provider"`
	ConversationID string `json:"conversation_id"`
	ContactHash    string `json:"contact_hash"`
	CorrelationID  string `json:"correlation_id,omitempty"`
}

// BuildEnvelope marshals a typed payload into a versioned Envelope.
func BuildEnvelope(taskID string, name Name, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Version:  EnvelopeVersion,
		TaskName: name,
		TaskID:   taskID,
		Payload:  raw,
	}, nil
}
