package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
	"github.com/marcioluisms/hotelly2-sub001/internal/domain/conversations"
	"github.com/marcioluisms/hotelly2-sub001/internal/domain/holds"
	"github.com/marcioluisms/hotelly2-sub001/internal/domain/pricing"
	"github.com/marcioluisms/hotelly2-sub001/internal/logging"
	"github.com/marcioluisms/hotelly2-sub001/internal/messaging/outbound"
	"github.com/marcioluisms/hotelly2-sub001/internal/messaging/templates"
	"github.com/marcioluisms/hotelly2-sub001/internal/payment/broker"
	"github.com/marcioluisms/hotelly2-sub001/internal/store"
	"github.com/marcioluisms/hotelly2-sub001/internal/tasks"
)

// decodeEnvelope reads the canonical task envelope spec §6 defines and
// unmarshals its typed payload into dst.
func decodeEnvelope(r *http.Request, dst any) (tasks.Envelope, error) {
	var env tasks.Envelope
	if err := decodeJSON(r, &env); err != nil {
		return tasks.Envelope{}, err
	}
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return tasks.Envelope{}, apperr.Validation("invalid_envelope_payload", "task envelope payload does not match its task_name")
	}
	return env, nil
}

// handleTaskExpireHold implements the worker side of `POST
// /tasks/holds/expire` (spec §4.F Hold Expiration).
func handleTaskExpireHold(deps WorkerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload tasks.ExpireHoldPayload
		env, err := decodeEnvelope(r, &payload)
		if err != nil {
			writeError(w, r, err)
			return
		}

		var result holds.ExpireResult
		err = store.WithTx(r.Context(), deps.Pool, func(ctx context.Context, tx pgx.Tx) error {
			var innerErr error
			result, innerErr = holds.Expire(ctx, tx, payload.PropertyID, payload.HoldID, env.TaskID, payload.CorrelationID, time.Now().UTC())
			return innerErr
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": string(result.Status)})
	}
}

// stripeEventStatus maps a Stripe webhook event type onto the
// provider payment_status vocabulary broker.MapProviderStatus expects.
// Event types this system does not key a status transition off of
// fall through to the "needs_manual" default.
func stripeEventStatus(eventType string) string {
	switch eventType {
	case "checkout.session.completed":
		return "paid"
	case "checkout.session.expired":
		return "unpaid"
	default:
		return ""
	}
}

// handleTaskStripeEvent implements the worker side of `POST
// /tasks/stripe/handle-event` (spec §4.G).
func handleTaskStripeEvent(deps WorkerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload tasks.StripeHandleEventPayload
		_, err := decodeEnvelope(r, &payload)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := r.Context()
		propertyID, found, err := resolveStripePropertyID(ctx, deps.Pool, payload.ObjectID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !found {
			writeJSON(w, http.StatusOK, map[string]string{"status": "unknown_payment"})
			return
		}

		var status string
		err = store.WithTx(ctx, deps.Pool, func(ctx context.Context, tx pgx.Tx) error {
			var innerErr error
			status, innerErr = broker.ReconcileEvent(ctx, tx, propertyID, payload.ObjectID, stripeEventStatus(payload.EventType), payload.EventID, payload.CorrelationID)
			return innerErr
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": status})
	}
}

// handleTaskWhatsAppMessage implements the worker side of the
// whatsapp_handle_message task (spec §4.A/§4.D): reload the
// conversation the webhook ingress already advanced, either render
// the next missing-field prompt or run the pricing pipeline and
// render its result, then resolve the raw channel address through the
// PII Vault and send the reply. The address is read from the vault
// and handed to Sender.Send only after the database transaction that
// produced the reply text has committed.
func handleTaskWhatsAppMessage(deps WorkerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload tasks.WhatsAppHandleMessagePayload
		_, err := decodeEnvelope(r, &payload)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := r.Context()
		var conv conversations.Conversation
		var replyText string
		var createdHold *holds.Hold

		err = store.WithTx(ctx, deps.Pool, func(ctx context.Context, tx pgx.Tx) error {
			var innerErr error
			conv, innerErr = conversations.Get(ctx, tx, payload.ConversationID)
			if innerErr != nil {
				return innerErr
			}

			if !conv.Context.IsComplete() {
				promptKey := conversations.NextPrompt(conv.Context.Missing)
				replyText = templates.Render(promptKey, templates.Params{})
				return nil
			}

			buckets, innerErr := pricing.LoadChildAgeBuckets(ctx, tx, conv.PropertyID)
			if innerErr != nil {
				return innerErr
			}
			quote, innerErr := pricing.Quote(ctx, tx, conv.PropertyID, *conv.Context.RoomTypeID,
				*conv.Context.Checkin, *conv.Context.Checkout, *conv.Context.AdultCount,
				conv.Context.ChildrenAges, buckets)
			if innerErr != nil {
				if apperr.Is(innerErr, apperr.KindUnavailable) {
					replyText = templates.Render(templates.KeyUnavailable, templates.Params{})
					return nil
				}
				return innerErr
			}

			// One hold per conversation: the conversation id doubles as
			// the hold's creation key, so a guest whose conversation sits
			// at the sink state and sends further messages replays the
			// same hold instead of re-decrementing inventory.
			result, innerErr := holds.Create(ctx, tx, holds.CreateParams{
				PropertyID:     conv.PropertyID,
				RoomTypeID:     quote.RoomTypeID,
				Checkin:        quote.Checkin,
				Checkout:       quote.Checkout,
				TTL:            holds.DefaultHoldTTL,
				TotalCents:     quote.TotalCents,
				Currency:       quote.Currency,
				AdultCount:     *conv.Context.AdultCount,
				ChildrenAges:   conv.Context.ChildrenAges,
				ConversationID: &conv.ID,
				CreationKey:    &conv.ID,
				ContactChannel: &conv.Channel,
				ContactHash:    &conv.ContactHash,
				CorrelationID:  payload.CorrelationID,
			})
			if innerErr != nil {
				if apperr.Is(innerErr, apperr.KindUnavailable) {
					replyText = templates.Render(templates.KeyUnavailable, templates.Params{})
					return nil
				}
				return innerErr
			}
			createdHold = &result.Hold

			replyText = templates.Render(templates.KeyQuoteReady, templates.Params{
				Checkin:    quote.Checkin.Format("2006-01-02"),
				Checkout:   quote.Checkout.Format("2006-01-02"),
				TotalCents: quote.TotalCents,
				Currency:   quote.Currency,
			})
			return nil
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		if createdHold != nil {
			expirePayload := tasks.ExpireHoldPayload{
				PropertyID:    createdHold.PropertyID,
				HoldID:        createdHold.ID,
				CorrelationID: payload.CorrelationID,
			}
			taskID := holds.ExpirationTaskID(createdHold.PropertyID, createdHold.ID)
			if err := deps.Dispatcher.Enqueue(ctx, taskID, tasks.NameExpireHold, expirePayload, "/tasks/holds/expire", createdHold.ExpiresAt); err != nil {
				writeError(w, r, err)
				return
			}
		}

		address, found, err := deps.Vault.Get(ctx, conv.PropertyID, conv.Channel, conv.ContactHash)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !found {
			logging.FromContext(ctx).Warn().
				Str("conversation_id", conv.ID).
				Msg("whatsapp_handle_message: contact ref expired or missing, dropping reply")
			writeJSON(w, http.StatusOK, map[string]string{"status": "no_contact_ref"})
			return
		}

		if err := deps.Sender.Send(ctx, outbound.ExtractPhoneFromJID(address), replyText, payload.CorrelationID); err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
	}
}
