// Package outbox implements the append-only Outbox (spec §4.I / §9):
// every domain-visible state change is written here in the same
// transaction that produces it. Per §9's redesign note, payloads are
// modeled as tagged variants (one Go type per event type) rather than
// the duck-typed dicts the original system carried.
package outbox

import "encoding/json"

// EventType is the closed set of outbox event types this system emits.
type EventType string

const (
	EventHoldCreated          EventType = "HOLD_CREATED"
	EventHoldExpired          EventType = "HOLD_EXPIRED"
	EventReservationCancelled EventType = "RESERVATION_CANCELLED"
	EventWhatsAppSendMessage  EventType = "whatsapp.send_message"
)

// AggregateType names the domain aggregate an event is about.
type AggregateType string

const (
	AggregateHold        AggregateType = "hold"
	AggregateReservation AggregateType = "reservation"
)

// HoldCreatedPayload is the non-PII payload for EventHoldCreated.
type HoldCreatedPayload struct {
	RoomTypeID    string `json:"room_type_id"`
	Checkin       string `json:"checkin"`
	Checkout      string `json:"checkout"`
	Nights        int    `json:"nights"`
	TotalCents    int64  `json:"total_cents"`
	Currency      string `json:"currency"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// HoldExpiredPayload is the non-PII payload for EventHoldExpired.
type HoldExpiredPayload struct {
	RoomTypeID     string `json:"room_type_id,omitempty"`
	Checkin        string `json:"checkin,omitempty"`
	Checkout       string `json:"checkout,omitempty"`
	NightsReleased int    `json:"nights_released"`
	TotalCents     int64  `json:"total_cents"`
	Currency       string `json:"currency"`
}

// ReservationCancelledPayload is the non-PII payload for
// EventReservationCancelled.
type ReservationCancelledPayload struct {
	ReservationID     string `json:"reservation_id"`
	RefundAmountCents int64  `json:"refund_amount_cents"`
	Reason            string `json:"reason"`
	CancelledBy       string `json:"cancelled_by"`
}

// WhatsAppSendMessageParams carries only safe, enumerated, non-PII
// template parameters: never a raw guest name beyond a first-name
// token the template treats as opaque display text, never a phone
// number, never free-form message text.
type WhatsAppSendMessageParams struct {
	GuestFirstName string `json:"guest_first_name,omitempty"`
	PropertyName   string `json:"property_name,omitempty"`
	Checkin        string `json:"checkin,omitempty"`
	Checkout       string `json:"checkout,omitempty"`
}

// WhatsAppSendMessagePayload is the payload for EventWhatsAppSendMessage.
// ContactHash identifies the recipient; the outbound delivery task
// resolves it through the PII Vault, never storing or forwarding the
// raw address itself.
type WhatsAppSendMessagePayload struct {
	ContactHash string                    `json:"contact_hash"`
	Template    string                    `json:"template"`
	Params      WhatsAppSendMessageParams `json:"params"`
}

// Marshal encodes a typed payload to the JSON bytes stored in the
// outbox_events.payload column.
func Marshal(payload any) ([]byte, error) {
	return json.Marshal(payload)
}
