// Package broker implements the Payment Broker (spec §4.G): turning an
// active hold into a checkout session with an external provider, and
// reconciling that provider's authoritative payment status back into
// a confirmed reservation.
package broker

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
	"github.com/marcioluisms/hotelly2-sub001/internal/domain/holds"
	"github.com/marcioluisms/hotelly2-sub001/internal/domain/reservations"
	"github.com/marcioluisms/hotelly2-sub001/internal/logging"
)

const ProviderStripe = "stripe"

// PaymentStatus is the status column on the payments row.
type PaymentStatus string

const (
	PaymentCreated     PaymentStatus = "created"
	PaymentPending     PaymentStatus = "pending"
	PaymentSucceeded   PaymentStatus = "succeeded"
	PaymentFailed      PaymentStatus = "failed"
	PaymentNeedsManual PaymentStatus = "needs_manual"
)

// SessionProvider is the narrow interface the broker needs from a
// payment provider client; stripeclient.Client implements it against
// the real Stripe API.
type SessionProvider interface {
	CreateCheckoutSession(ctx context.Context, amountCents int64, currency, idempotencyKey string, metadata map[string]string) (sessionID, url string, err error)
	RetrieveCheckoutSessionURL(ctx context.Context, sessionID string) (url string, err error)
}

// ErrHoldNotFound and ErrHoldNotActive mirror spec §4.G's two failure
// modes for create_checkout_session.
var (
	ErrHoldNotFound  = apperr.NotFound("hold_not_found", "hold not found")
	ErrHoldNotActive = apperr.ConflictBusiness("hold_not_active", "hold is not active")
)

// IdempotencyKey returns the deterministic key a retried
// create-checkout-session call presents to the provider, so retries
// never create a second session for the same hold.
func IdempotencyKey(holdID string) string {
	return fmt.Sprintf("hold:%s:checkout_session", holdID)
}

// CheckoutResult is the outcome of CreateCheckoutSession.
type CheckoutResult struct {
	PaymentID        string
	ProviderObjectID string
	CheckoutURL      string
}

// CreateCheckoutSession implements spec §4.G's create_checkout_session.
func CreateCheckoutSession(ctx context.Context, tx pgx.Tx, provider SessionProvider, propertyID, holdID string) (CheckoutResult, error) {
	hold, ok, err := holds.Get(ctx, tx, propertyID, holdID)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("broker: load hold: %w", err)
	}
	if !ok {
		return CheckoutResult{}, ErrHoldNotFound
	}
	if hold.Status != holds.StatusActive {
		return CheckoutResult{}, ErrHoldNotActive
	}

	paymentID, objectID, found, err := findExistingPayment(ctx, tx, holdID)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("broker: find existing payment: %w", err)
	}
	if found {
		url, err := provider.RetrieveCheckoutSessionURL(ctx, objectID)
		if err != nil {
			return CheckoutResult{}, fmt.Errorf("broker: retrieve session: %w", err)
		}
		return CheckoutResult{PaymentID: paymentID, ProviderObjectID: objectID, CheckoutURL: url}, nil
	}

	sessionID, url, err := provider.CreateCheckoutSession(ctx, hold.TotalCents, hold.Currency, IdempotencyKey(holdID), map[string]string{"hold_id": holdID})
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("broker: create session: %w", err)
	}

	newPaymentID, err := insertPayment(ctx, tx, propertyID, holdID, hold.TotalCents, hold.Currency, sessionID)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("broker: insert payment: %w", err)
	}

	return CheckoutResult{PaymentID: newPaymentID, ProviderObjectID: sessionID, CheckoutURL: url}, nil
}

func findExistingPayment(ctx context.Context, tx pgx.Tx, holdID string) (paymentID, providerObjectID string, found bool, err error) {
	err = tx.QueryRow(ctx, `
		SELECT id, provider_object_id FROM payments WHERE hold_id = $1 AND provider = $2 LIMIT 1
	`, holdID, ProviderStripe).Scan(&paymentID, &providerObjectID)
	if err == pgx.ErrNoRows {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	return paymentID, providerObjectID, true, nil
}

func insertPayment(ctx context.Context, tx pgx.Tx, propertyID, holdID string, amountCents int64, currency, providerObjectID string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO payments (property_id, hold_id, provider, provider_object_id, status, amount_cents, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (property_id, provider, provider_object_id) DO NOTHING
		RETURNING id
	`, propertyID, holdID, ProviderStripe, providerObjectID, PaymentCreated, amountCents, currency).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != pgx.ErrNoRows {
		return "", err
	}
	err = tx.QueryRow(ctx, `
		SELECT id FROM payments WHERE property_id = $1 AND provider = $2 AND provider_object_id = $3
	`, propertyID, ProviderStripe, providerObjectID).Scan(&id)
	return id, err
}

// MapProviderStatus maps Stripe's checkout session payment_status onto
// this system's payment status, per spec §4.G.
func MapProviderStatus(providerPaymentStatus string) PaymentStatus {
	switch providerPaymentStatus {
	case "paid":
		return PaymentSucceeded
	case "unpaid":
		return PaymentPending
	default:
		return PaymentNeedsManual
	}
}

// ReconcileEvent implements spec §4.G's reconcile_event: look up the
// payment by provider object id, skip idempotently if already at the
// target status, otherwise update status and, on succeeded, convert
// the hold into a reservation under a deterministic task id.
func ReconcileEvent(ctx context.Context, tx pgx.Tx, propertyID, providerObjectID, providerPaymentStatus, eventID, correlationID string) (string, error) {
	newStatus := MapProviderStatus(providerPaymentStatus)

	var paymentID, holdID string
	var currentStatus PaymentStatus
	err := tx.QueryRow(ctx, `
		SELECT id, hold_id, status FROM payments WHERE property_id = $1 AND provider = $2 AND provider_object_id = $3
	`, propertyID, ProviderStripe, providerObjectID).Scan(&paymentID, &holdID, &currentStatus)
	if err == pgx.ErrNoRows {
		logging.FromContext(ctx).Warn().
			Str("event_id", eventID).
			Str("provider_object_id", providerObjectID).
			Msg("unknown payment")
		return "unknown_payment", nil
	}
	if err != nil {
		return "", fmt.Errorf("broker: load payment: %w", err)
	}

	if currentStatus == newStatus {
		return "already_at_target_status", nil
	}

	if _, err := tx.Exec(ctx, `
		UPDATE payments SET status = $1, updated_at = now() WHERE id = $2
	`, newStatus, paymentID); err != nil {
		return "", fmt.Errorf("broker: update status: %w", err)
	}

	if newStatus == PaymentSucceeded && holdID != "" {
		taskID := "stripe:" + eventID
		result, err := reservations.ConvertHold(ctx, tx, propertyID, holdID, correlationID)
		if err != nil {
			return "", fmt.Errorf("broker: convert hold: %w", err)
		}
		logging.FromContext(ctx).Info().
			Str("event_id", eventID).
			Str("task_id", taskID).
			Str("hold_id", holdID).
			Str("convert_status", result.Status).
			Msg("convert_hold completed")
	}

	return "processed", nil
}
