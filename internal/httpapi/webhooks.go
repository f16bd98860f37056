package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
	"github.com/marcioluisms/hotelly2-sub001/internal/dedupe"
	"github.com/marcioluisms/hotelly2-sub001/internal/domain/conversations"
	"github.com/marcioluisms/hotelly2-sub001/internal/domain/intents"
	"github.com/marcioluisms/hotelly2-sub001/internal/logging"
	"github.com/marcioluisms/hotelly2-sub001/internal/messaging/evolution"
	metaadapter "github.com/marcioluisms/hotelly2-sub001/internal/messaging/meta"
	"github.com/marcioluisms/hotelly2-sub001/internal/payment/stripewebhook"
	"github.com/marcioluisms/hotelly2-sub001/internal/store"
	"github.com/marcioluisms/hotelly2-sub001/internal/tasks"
)

// Dedupe ledger sources for the three webhook providers.
const (
	evolutionWebhookSource = "whatsapp.evolution"
	metaWebhookSource      = "whatsapp.meta"
	stripeWebhookSource    = "stripe"
)

// handleEvolutionWebhook implements spec §4.A for the Evolution
// provider: the tenant is carried on X-Property-Id since Evolution
// does not sign its payloads.
func handleEvolutionWebhook(deps APIDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID := r.Header.Get("X-Property-Id")
		if propertyID == "" {
			writeError(w, r, apperr.Validation("missing_property_id", "X-Property-Id header is required"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, r, apperr.Validation("invalid_body", "could not read request body"))
			return
		}

		var envelope map[string]any
		if err := json.Unmarshal(body, &envelope); err != nil {
			writeError(w, r, apperr.Validation("invalid_json", "request body is not valid JSON"))
			return
		}

		now := time.Now().UTC()
		inboundMsg, err := evolution.ValidateAndExtract(envelope, now)
		if err != nil {
			writeError(w, r, apperr.Validation("invalid_payload", err.Error()))
			return
		}
		normalized, err := evolution.Normalize(envelope, now)
		if err != nil {
			writeError(w, r, apperr.Validation("invalid_payload", err.Error()))
			return
		}

		ingestInboundMessage(w, r, deps, propertyID, evolutionWebhookSource, evolution.Provider, inboundMsg.MessageID, normalized.RemoteJID, normalized.Text)
	}
}

// handleMetaWebhook implements spec §4.A for the Meta Cloud API
// provider, which requires HMAC-SHA256 verification over the raw
// request body before anything else is parsed.
func handleMetaWebhook(deps APIDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, r, apperr.Validation("invalid_body", "could not read request body"))
			return
		}

		secret := deps.Config.MetaWebhookSecret
		if secret == "" && !deps.Config.IsLocalDev() {
			writeError(w, r, apperr.ConfigurationMissing("META_WEBHOOK_SECRET is required outside local development"))
			return
		}
		if secret != "" {
			if err := metaadapter.VerifySignature(body, r.Header.Get("X-Hub-Signature-256"), secret); err != nil {
				writeError(w, r, apperr.New(apperr.KindAuth, "invalid_signature", "webhook signature verification failed"))
				return
			}
		}

		var envelope map[string]any
		if err := json.Unmarshal(body, &envelope); err != nil {
			writeError(w, r, apperr.Validation("invalid_json", "request body is not valid JSON"))
			return
		}

		propertyID := r.Header.Get("X-Property-Id")
		if propertyID == "" {
			propertyID = metaadapter.PhoneNumberID(envelope)
		}
		if propertyID == "" {
			writeError(w, r, apperr.Validation("missing_property_id", "could not resolve property from payload"))
			return
		}

		now := time.Now().UTC()
		inboundMsg, err := metaadapter.ValidateAndExtract(envelope, now)
		if err != nil {
			writeError(w, r, apperr.Validation("invalid_payload", err.Error()))
			return
		}
		normalized, err := metaadapter.Normalize(envelope, now)
		if err != nil {
			writeError(w, r, apperr.Validation("invalid_payload", err.Error()))
			return
		}

		ingestInboundMessage(w, r, deps, propertyID, metaWebhookSource, metaadapter.Provider, inboundMsg.MessageID, normalized.RemoteJID, normalized.Text)
	}
}

// ingestInboundMessage is the shared spec §4.A/§4.B/§4.D tail both
// WhatsApp providers reach once they have produced a normalized
// message: the Processed Event row is the first write of the
// transaction; if the event is new, the conversation state advances,
// the raw text is parsed into an intent and merged into the
// accumulated context, the raw address is stored in the PII Vault
// under its hash, and a non-PII whatsapp_handle_message task is
// enqueued so the worker can render and send the reply. Every raw
// value (text, remoteJID) is read only inside this function and never
// crosses into the task payload.
func ingestInboundMessage(w http.ResponseWriter, r *http.Request, deps APIDeps, propertyID, source, provider, messageID, remoteJID string, text *string) {
	ctx := r.Context()
	correlationID := logging.CorrelationID(ctx)
	contactHash := deps.Hasher.ContactHash(propertyID, provider, remoteJID)

	err := store.WithTx(ctx, deps.Pool, func(ctx context.Context, tx pgx.Tx) error {
		inserted, err := dedupe.Insert(ctx, tx, propertyID, source, messageID)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}

		if err := deps.Vault.Store(ctx, tx, propertyID, provider, contactHash, remoteJID, 0); err != nil {
			return err
		}

		conv, _, err := conversations.Upsert(ctx, tx, propertyID, provider, contactHash)
		if err != nil {
			return err
		}

		if text != nil {
			fresh := intents.ParseIntent(*text, nil, time.Now().UTC())
			if _, _, err := conversations.MergeContext(ctx, tx, conv, fresh); err != nil {
				return err
			}
		}

		payload := tasks.WhatsAppHandleMessagePayload{
			PropertyID:     propertyID,
			MessageID:      messageID,
			Provider:       provider,
			ConversationID: conv.ID,
			ContactHash:    contactHash,
			CorrelationID:  correlationID,
		}
		taskID := "whatsapp:" + messageID
		return deps.Dispatcher.Enqueue(ctx, taskID, tasks.NameWhatsAppHandleMessage, payload, "/tasks/whatsapp/handle-message", time.Time{})
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// handleStripeWebhook implements spec §4.A for the payment provider:
// verify the signature, reduce the event to its routing-relevant
// fields, dedupe, and enqueue a stripe_handle_event task for the
// worker to reconcile.
func handleStripeWebhook(deps APIDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, r, apperr.Validation("invalid_body", "could not read request body"))
			return
		}

		evt, err := stripewebhook.VerifyAndExtract(body, r.Header.Get("Stripe-Signature"), deps.Config.StripeWebhookSecret)
		if err != nil {
			if stripewebhook.AsInvalidSignature(err) {
				writeError(w, r, apperr.New(apperr.KindAuth, "invalid_signature", "webhook signature verification failed"))
				return
			}
			writeError(w, r, apperr.Validation("invalid_payload", err.Error()))
			return
		}

		ctx := r.Context()
		correlationID := logging.CorrelationID(ctx)

		propertyID, found, err := resolveStripePropertyID(ctx, deps.Pool, evt.ObjectID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !found {
			// No payment row references this object yet (e.g. an event
			// type this system does not key off provider_object_id).
			// There is no tenant to scope the dedupe ledger under, so
			// the event is accepted and dropped rather than processed.
			logging.FromContext(ctx).Warn().
				Str("event_id", evt.EventID).
				Str("event_type", evt.EventType).
				Msg("stripe webhook: no payment matches provider_object_id, dropping")
			writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}

		err = store.WithTx(ctx, deps.Pool, func(ctx context.Context, tx pgx.Tx) error {
			inserted, err := dedupe.Insert(ctx, tx, propertyID, stripeWebhookSource, evt.EventID)
			if err != nil {
				return err
			}
			if !inserted {
				return nil
			}

			payload := tasks.StripeHandleEventPayload{
				EventID:       evt.EventID,
				EventType:     evt.EventType,
				ObjectID:      evt.ObjectID,
				CorrelationID: correlationID,
			}
			taskID := "stripe:" + evt.EventID
			return deps.Dispatcher.Enqueue(ctx, taskID, tasks.NameStripeHandleEvent, payload, "/tasks/stripe/handle-event", time.Time{})
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
	}
}

// resolveStripePropertyID finds the tenant a Stripe webhook event
// belongs to by looking up the payment its primary object id
// references. Stripe webhooks carry no tenant header, so this lookup
// is the only way to scope the Processed Event row's mandatory
// property_id foreign key.
func resolveStripePropertyID(ctx context.Context, pool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, providerObjectID string) (string, bool, error) {
	var propertyID string
	err := pool.QueryRow(ctx, `
		SELECT property_id FROM payments WHERE provider = 'stripe' AND provider_object_id = $1 LIMIT 1
	`, providerObjectID).Scan(&propertyID)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return propertyID, true, nil
}
