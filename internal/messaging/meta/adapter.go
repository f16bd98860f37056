// Package meta adapts Meta WhatsApp Business (Cloud API) webhook
// payloads into the messaging layer's normalized message types,
// including the provider's HMAC-SHA256 webhook signature scheme
// (spec §4.A).
package meta

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

const Provider = "meta"

// InvalidPayload is returned when a webhook body does not have the
// shape this adapter expects.
type InvalidPayload struct {
	Reason string
}

func (e *InvalidPayload) Error() string { return "meta: invalid payload: " + e.Reason }

// SignatureError is returned when X-Hub-Signature-256 verification
// fails.
type SignatureError struct {
	Reason string
}

func (e *SignatureError) Error() string { return "meta: signature verification failed: " + e.Reason }

// InboundMessage carries only metadata safe to log and persist.
type InboundMessage struct {
	MessageID  string
	Provider   string
	ReceivedAt time.Time
	Kind       string
}

// NormalizedInbound additionally carries the sender JID and text, both
// PII per spec §7; see evolution.NormalizedInbound for the discard
// discipline these fields are subject to.
type NormalizedInbound struct {
	MessageID  string
	Provider   string
	ReceivedAt time.Time
	Kind       string
	RemoteJID  string
	Text       *string
}

// VerifySignature checks Meta's sha256=<hex> webhook signature over
// the raw request body against appSecret, using a constant-time
// comparison.
func VerifySignature(payloadBytes []byte, signatureHeader, appSecret string) error {
	if signatureHeader == "" {
		return &SignatureError{Reason: "missing signature header"}
	}
	const prefix = "sha256="
	if !strings.HasPrefix(signatureHeader, prefix) {
		return &SignatureError{Reason: "invalid signature format"}
	}
	expected := signatureHeader[len(prefix):]

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(payloadBytes)
	computed := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(computed), []byte(expected)) {
		return &SignatureError{Reason: "signature mismatch"}
	}
	return nil
}

// ValidateAndExtract validates the payload shape and extracts only
// non-PII metadata.
func ValidateAndExtract(payload map[string]any, now time.Time) (InboundMessage, error) {
	message := extractFirstMessage(payload)
	if message == nil {
		return InboundMessage{}, &InvalidPayload{Reason: "no message found in payload"}
	}

	messageID, ok := message["id"].(string)
	if !ok || messageID == "" {
		return InboundMessage{}, &InvalidPayload{Reason: "missing or invalid message_id"}
	}

	kind := "unknown"
	if mt, ok := message["type"].(string); ok && mt != "" {
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
// the metadata ValidateAndExtract returns. Meta identifies senders by
// phone number; Normalize reshapes that into the same JID format
// Evolution uses, so downstream contact-hashing is provider-agnostic.
func Normalize(payload map[string]any, now time.Time) (NormalizedInbound, error) {
	message := extractFirstMessage(payload)
	if message == nil {
		return NormalizedInbound{}, &InvalidPayload{Reason: "no message found in payload"}
	}

	messageID, ok := message["id"].(string)
	if !ok || messageID == "" {
		return NormalizedInbound{}, &InvalidPayload{Reason: "missing or invalid message_id"}
	}

	senderPhone, _ := message["from"].(string)
	if senderPhone == "" {
		return NormalizedInbound{}, &InvalidPayload{Reason: "missing sender phone number"}
	}
	remoteJID := senderPhone + "@s.whatsapp.net"

	kind := "unknown"
	if mt, ok := message["type"].(string); ok && mt != "" {
		kind = mt
	}

	var text *string
	if kind == "text" {
		if textObj, ok := message["text"].(map[string]any); ok {
			if v, ok := textObj["body"].(string); ok {
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

// PhoneNumberID extracts the sending WhatsApp Business phone number id
// from a Meta webhook envelope, or "" if absent.
func PhoneNumberID(payload map[string]any) string {
	entries, _ := payload["entry"].([]any)
	if len(entries) == 0 {
		return ""
	}
	entry, _ := entries[0].(map[string]any)
	changes, _ := entry["changes"].([]any)
	if len(changes) == 0 {
		return ""
	}
	change, _ := changes[0].(map[string]any)
	value, _ := change["value"].(map[string]any)
	metadata, _ := value["metadata"].(map[string]any)
	id, _ := metadata["phone_number_id"].(string)
	return id
}

// extractFirstMessage walks entry[0].changes[0].value.messages[0],
// mirroring Meta's webhook envelope shape.
func extractFirstMessage(payload map[string]any) map[string]any {
	entries, _ := payload["entry"].([]any)
	if len(entries) == 0 {
		return nil
	}
	entry, _ := entries[0].(map[string]any)
	changes, _ := entry["changes"].([]any)
	if len(changes) == 0 {
		return nil
	}
	change, _ := changes[0].(map[string]any)
	value, _ := change["value"].(map[string]any)
	messages, _ := value["messages"].([]any)
	if len(messages) == 0 {
		return nil
	}
	msg, _ := messages[0].(map[string]any)
	return msg
}

// AsInvalidPayload reports whether err is an InvalidPayload.
func AsInvalidPayload(err error) bool {
	var ip *InvalidPayload
	return errors.As(err, &ip)
}

// AsSignatureError reports whether err is a SignatureError.
func AsSignatureError(err error) bool {
	var se *SignatureError
	return errors.As(err, &se)
}
