package reservations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
	"github.com/marcioluisms/hotelly2-sub001/internal/outbox"
)

// PolicyType is one of the three cancellation policy shapes spec §4.H
// (by way of the refund calculation) recognizes.
type PolicyType string

const (
	PolicyNonRefundable PolicyType = "non_refundable"
	PolicyFree          PolicyType = "free"
	PolicyFlexible      PolicyType = "flexible"
)

// CancellationPolicy is a property's configured refund rule, or the
// package default when none is configured.
type CancellationPolicy struct {
	PolicyType                 PolicyType
	FreeUntilDaysBeforeCheckin int
	PenaltyPercent             int
	Notes                      *string
}

// DefaultCancellationPolicy is used whenever a property has not
// configured its own cancellation policy.
var DefaultCancellationPolicy = CancellationPolicy{
	PolicyType:                 PolicyFlexible,
	FreeUntilDaysBeforeCheckin: 7,
	PenaltyPercent:             100,
}

// CalculateRefund computes the refund amount in cents for a
// cancellation happening "now", given the reservation total and
// checkin date.
func CalculateRefund(totalCents int64, checkin time.Time, policy CancellationPolicy, now time.Time) int64 {
	switch policy.PolicyType {
	case PolicyNonRefundable:
		return 0
	case PolicyFree:
		return totalCents
	default: // flexible
		daysUntilCheckin := int(checkin.Sub(now).Hours() / 24)
		if daysUntilCheckin >= policy.FreeUntilDaysBeforeCheckin {
			return totalCents
		}
		return totalCents * int64(100-policy.PenaltyPercent) / 100
	}
}

// ErrReservationNotFound is returned by CancelReservation when the
// reservation id does not exist.
var ErrReservationNotFound = apperr.NotFound("reservation_not_found", "reservation not found")

// ErrReservationNotCancellable is returned when the reservation's
// current status is neither "confirmed" nor "cancelled".
var ErrReservationNotCancellable = apperr.ConflictBusiness("reservation_not_cancellable", "reservation is not in a cancellable status")

// CancelResult reports what happened to one CancelReservation call.
type CancelResult struct {
	Status            string // "already_cancelled" | "cancelled"
	ReservationID     string
	RefundAmountCents int64
	PendingRefundID   *string
}

// CancelReservation implements spec §4.H's cancellation procedure:
// lock, idempotency check, validate, compute refund, update status,
// release per-night inv_booked, record a pending refund if positive,
// emit RESERVATION_CANCELLED.
func CancelReservation(ctx context.Context, tx pgx.Tx, reservationID, reason, cancelledBy, correlationID string, now time.Time) (CancelResult, error) {
	var propertyID, roomTypeID string
	var status Status
	var checkin, checkout time.Time
	var totalCents int64
	err := tx.QueryRow(ctx, `
		SELECT property_id, status, checkin, checkout, total_cents, room_type_id
		FROM reservations
		WHERE id = $1
		FOR UPDATE
	`, reservationID).Scan(&propertyID, &status, &checkin, &checkout, &totalCents, &roomTypeID)
	if err == pgx.ErrNoRows {
		return CancelResult{}, ErrReservationNotFound
	}
	if err != nil {
		return CancelResult{}, fmt.Errorf("reservations: lock for cancel: %w", err)
	}

	if status == StatusCancelled {
		return CancelResult{Status: "already_cancelled", ReservationID: reservationID}, nil
	}
	if status != StatusConfirmed {
		return CancelResult{}, ErrReservationNotCancellable
	}

	policy, err := loadPolicy(ctx, tx, propertyID)
	if err != nil {
		return CancelResult{}, fmt.Errorf("reservations: load policy: %w", err)
	}

	refund := CalculateRefund(totalCents, checkin, policy, now)

	if _, err := tx.Exec(ctx, `
		UPDATE reservations SET status = $1, updated_at = now() WHERE id = $2
	`, StatusCancelled, reservationID); err != nil {
		return CancelResult{}, fmt.Errorf("reservations: update status: %w", err)
	}

	for d := checkin; d.Before(checkout); d = d.AddDate(0, 0, 1) {
		if _, err := tx.Exec(ctx, `
			UPDATE ari_days SET inv_booked = inv_booked - 1, updated_at = now()
			WHERE property_id = $1 AND room_type_id = $2 AND date = $3 AND inv_booked >= 1
		`, propertyID, roomTypeID, d); err != nil {
			return CancelResult{}, fmt.Errorf("reservations: release night %s: %w", d.Format("2006-01-02"), err)
		}
	}

	var pendingRefundID *string
	if refund > 0 {
		id := uuid.NewString()
		if _, err := tx.Exec(ctx, `
			INSERT INTO pending_refunds (id, property_id, reservation_id, amount_cents, created_at)
			VALUES ($1,$2,$3,$4, now())
		`, id, propertyID, reservationID, refund); err != nil {
			return CancelResult{}, fmt.Errorf("reservations: insert pending refund: %w", err)
		}
		pendingRefundID = &id
	}

	payload, err := outbox.Marshal(outbox.ReservationCancelledPayload{
		ReservationID:     reservationID,
		RefundAmountCents: refund,
		Reason:            reason,
		CancelledBy:       cancelledBy,
	})
	if err != nil {
		return CancelResult{}, err
	}
	if err := outbox.Emit(ctx, tx, propertyID, outbox.EventReservationCancelled, outbox.AggregateReservation, reservationID, payload, correlationID); err != nil {
		return CancelResult{}, fmt.Errorf("reservations: emit outbox: %w", err)
	}

	return CancelResult{
		Status:            "cancelled",
		ReservationID:     reservationID,
		RefundAmountCents: refund,
		PendingRefundID:   pendingRefundID,
	}, nil
}

func loadPolicy(ctx context.Context, tx pgx.Tx, propertyID string) (CancellationPolicy, error) {
	var p CancellationPolicy
	err := tx.QueryRow(ctx, `
		SELECT policy_type, free_until_days_before_checkin, penalty_percent, notes
		FROM property_cancellation_policy
		WHERE property_id = $1
	`, propertyID).Scan(&p.PolicyType, &p.FreeUntilDaysBeforeCheckin, &p.PenaltyPercent, &p.Notes)
	if err == pgx.ErrNoRows {
		return DefaultCancellationPolicy, nil
	}
	if err != nil {
		return CancellationPolicy{}, err
	}
	return p, nil
}
