// Package outbound implements outbound WhatsApp delivery for the
// worker's reply path (httpapi's whatsapp_handle_message handler),
// which resolves the raw channel address from the PII Vault
// immediately before calling Send. Nothing in this package consumes
// whatsapp.send_message outbox rows.
package outbound

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/0x9ef/clientx"

	"github.com/marcioluisms/hotelly2-sub001/internal/logging"
)

// hashForLog returns a non-reversible, truncated identifier safe to
// put in a log line, matching the original sender's _hash_identifier.
// It is deliberately unkeyed: this hash is a log correlation aid, not a
// lookup key, so it carries none of hashing.Hasher's contract.
func hashForLog(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])[:12]
}

// Sender delivers a rendered template to a raw channel address. Values
// for to and text are never logged by an implementation; callers must
// not log them either.
type Sender interface {
	Send(ctx context.Context, to, text, correlationID string) error
}

// MetaSender delivers text messages through the Meta Cloud API, the way
// the teacher's hotelbeds.API wraps clientx.API with a fixed base URL
// and a small set of fixed headers.
type MetaSender struct {
	api           *clientx.API
	phoneNumberID string
	accessToken   string
}

// NewMetaSender builds a MetaSender bound to a phone number id and
// access token, retrying transient failures once as the original
// sender does (MAX_RETRIES = 1).
func NewMetaSender(phoneNumberID, accessToken, graphAPIVersion string) *MetaSender {
	if graphAPIVersion == "" {
		graphAPIVersion = "v18.0"
	}
	api := clientx.NewAPI(
		clientx.WithBaseURL(fmt.Sprintf("https://graph.facebook.com/%s", graphAPIVersion)),
		clientx.WithRetry(1, 200*time.Millisecond, time.Second, nil),
	)
	return &MetaSender{api: api, phoneNumberID: phoneNumberID, accessToken: accessToken}
}

type sendMessageRequest struct {
	MessagingProduct string          `json:"messaging_product"`
	RecipientType    string          `json:"recipient_type"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Text             sendMessageText `json:"text"`
}

type sendMessageText struct {
	Body string `json:"body"`
}

type sendMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// Send posts a single text message. to must already be a bare phone
// number (see ExtractPhoneFromJID); text is the rendered template body.
func (s *MetaSender) Send(ctx context.Context, to, text, correlationID string) error {
	log := logging.FromContext(ctx)
	hashedTo := hashForLog(to)

	log.Info().
		Str("correlation_id", correlationID).
		Str("to_hash", hashedTo).
		Int("text_len", len(text)).
		Str("provider", "meta").
		Msg("sending outbound message via meta")

	req := &sendMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             sendMessageText{Body: text},
	}

	headers := http.Header{
		"Content-Type":  []string{"application/json"},
		"Authorization": []string{"Bearer " + s.accessToken},
	}

	_, err := clientx.NewRequestBuilder[sendMessageRequest, sendMessageResponse](s.api).
		Post(fmt.Sprintf("/%s/messages", s.phoneNumberID), req, clientx.WithRequestHeaders(headers)).
		WithErrorDecode(func(resp *http.Response) (bool, error) {
			return resp.StatusCode > 399, fmt.Errorf("outbound: meta API returned status %d", resp.StatusCode)
		}).
		DoWithDecode(ctx)
	if err != nil {
		log.Error().
			Str("correlation_id", correlationID).
			Str("to_hash", hashedTo).
			Str("provider", "meta").
			Err(err).
			Msg("outbound send via meta failed")
		return fmt.Errorf("outbound: send via meta: %w", err)
	}

	log.Info().
		Str("correlation_id", correlationID).
		Str("to_hash", hashedTo).
		Str("provider", "meta").
		Msg("outbound message sent via meta")
	return nil
}

// ExtractPhoneFromJID strips the "@s.whatsapp.net" (or any "@...")
// suffix from a WhatsApp JID, recovering the bare phone number a
// provider API expects as its recipient.
func ExtractPhoneFromJID(remoteJID string) string {
	if i := strings.IndexByte(remoteJID, '@'); i >= 0 {
		return remoteJID[:i]
	}
	return remoteJID
}
