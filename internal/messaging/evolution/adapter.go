// Package evolution adapts Evolution API (WhatsApp) webhook payloads
// into the messaging layer's normalized message types (spec §4.A).
package evolution

import (
	"errors"
	"time"
)

const Provider = "evolution"

// InvalidPayload is returned when a webhook body does not have the
// shape this adapter expects.
type InvalidPayload struct {
	Reason string
}

func (e *InvalidPayload) Error() string { return "evolution: invalid payload: " + e.Reason }

// InboundMessage carries only metadata safe to log and persist
// (message id, provider, kind), never the sender address or body.
type InboundMessage struct {
	MessageID  string
	Provider   string
	ReceivedAt time.Time
	Kind       string
}

// NormalizedInbound additionally carries the sender JID and message
// text. Both fields are PII per spec §7: callers must discard them
// immediately after deriving a contact hash, parsing intent, and
// storing the raw values in the contact-refs vault.
type NormalizedInbound struct {
	MessageID  string
	Provider   string
	ReceivedAt time.Time
	Kind       string
	RemoteJID  string
	Text       *string
}

// ValidateAndExtract validates the payload shape and extracts only
// non-PII metadata, for logging and dedupe before any PII is touched.
func ValidateAndExtract(payload map[string]any, now time.Time) (InboundMessage, error) {
	data, _ := payload["data"].(map[string]any)
	key, _ := data["key"].(map[string]any)

	messageID, ok := key["id"].(string)
	if !ok || messageID == "" {
		return InboundMessage{}, &InvalidPayload{Reason: "missing or invalid message_id"}
	}

	kind := "unknown"
	if mt, ok := data["messageType"].(string); ok && mt != "" {
		kind = mt
	}

	return InboundMessage{
		MessageID:  messageID,
		Provider:   Provider,
		ReceivedAt: now,
		Kind:       kind,
	}, nil
}

// Normalize extracts the PII fields (remote JID, text) in addition to
// the metadata ValidateAndExtract returns. Callers must follow the
// discard discipline documented on NormalizedInbound.
func Normalize(payload map[string]any, now time.Time) (NormalizedInbound, error) {
	data, _ := payload["data"].(map[string]any)
	key, _ := data["key"].(map[string]any)

	messageID, ok := key["id"].(string)
	if !ok || messageID == "" {
		return NormalizedInbound{}, &InvalidPayload{Reason: "missing or invalid message_id"}
	}

	remoteJID, _ := key["remoteJid"].(string)
	if remoteJID == "" {
		return NormalizedInbound{}, &InvalidPayload{Reason: "missing remoteJid"}
	}

	kind := "unknown"
	if mt, ok := data["messageType"].(string); ok && mt != "" {
		kind = mt
	}

	var text *string
	message, _ := data["message"].(map[string]any)
	switch kind {
	case "conversation":
		if v, ok := message["conversation"].(string); ok {
			text = &v
		}
	case "extendedTextMessage":
		if ext, ok := message["extendedTextMessage"].(map[string]any); ok {
			if v, ok := ext["text"].(string); ok {
				text = &v
			}
		}
	}

	return NormalizedInbound{
		MessageID:  messageID,
		Provider:   Provider,
		ReceivedAt: now,
		Kind:       kind,
		RemoteJID:  remoteJID,
		Text:       text,
	}, nil
}

// AsInvalidPayload reports whether err is an InvalidPayload, mirroring
// the Python adapter's dedicated exception type.
func AsInvalidPayload(err error) bool {
	var ip *InvalidPayload
	return errors.As(err, &ip)
}
