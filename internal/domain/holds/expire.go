package holds

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
	"github.com/marcioluisms/hotelly2-sub001/internal/dedupe"
	"github.com/marcioluisms/hotelly2-sub001/internal/outbox"
)

// ExpireSource is the processed_events source hold expiration dedupes
// under, distinct from any webhook ingress source.
const ExpireSource = "tasks.holds.expire"

// ExpireStatus is the outcome of one expiration attempt, matching the
// four-way result the scheduler's retry loop keys off.
type ExpireStatus string

const (
	ExpireNoop          ExpireStatus = "noop"
	ExpireNotExpiredYet ExpireStatus = "not_expired_yet"
	ExpireDuplicate     ExpireStatus = "duplicate"
	ExpireExpired       ExpireStatus = "expired"
)

// ExpireResult reports what happened to one expiration attempt.
type ExpireResult struct {
	Status         ExpireStatus
	HoldID         string
	NightsReleased int
}

// ErrInventoryConsistency signals the guarded inv_held decrement hit a
// zero-row result, meaning the inventory ledger disagrees with the
// hold's own record of what it is holding. This can only mean a bug
// elsewhere in the system; the transaction aborts rather than silently
// continuing.
var ErrInventoryConsistency = apperr.New(apperr.KindInventoryConsistency, "inventory_consistency", "inv_held decrement affected no rows")

// Expire runs the Hold Expiration procedure from spec §4.F. now is
// injectable for deterministic tests; production callers pass
// time.Now().UTC().
func Expire(ctx context.Context, tx pgx.Tx, propertyID, holdID, taskID, correlationID string, now time.Time) (ExpireResult, error) {
	var status Status
	var expiresAt time.Time
	err := tx.QueryRow(ctx, `
		SELECT status, expires_at FROM holds
		WHERE id = $1 AND property_id = $2
		FOR UPDATE
	`, holdID, propertyID).Scan(&status, &expiresAt)
	if err == pgx.ErrNoRows {
		return ExpireResult{Status: ExpireNoop, HoldID: holdID}, nil
	}
	if err != nil {
		return ExpireResult{}, fmt.Errorf("holds: lock for expire: %w", err)
	}
	if status != StatusActive {
		return ExpireResult{Status: ExpireNoop, HoldID: holdID}, nil
	}
	if now.Before(expiresAt) {
		return ExpireResult{Status: ExpireNotExpiredYet, HoldID: holdID}, nil
	}

	inserted, err := dedupe.Insert(ctx, tx, propertyID, ExpireSource, taskID)
	if err != nil {
		return ExpireResult{}, fmt.Errorf("holds: dedupe insert: %w", err)
	}
	if !inserted {
		return ExpireResult{Status: ExpireDuplicate, HoldID: holdID}, nil
	}

	rows, err := tx.Query(ctx, `
		SELECT room_type_id, date
		FROM hold_nights
		WHERE hold_id = $1 AND property_id = $2
		ORDER BY room_type_id, date ASC
	`, holdID, propertyID)
	if err != nil {
		return ExpireResult{}, fmt.Errorf("holds: load nights: %w", err)
	}
	type night struct {
		roomTypeID string
		date       time.Time
	}
	var nights []night
	for rows.Next() {
		var n night
		if err := rows.Scan(&n.roomTypeID, &n.date); err != nil {
			rows.Close()
			return ExpireResult{}, err
		}
		nights = append(nights, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return ExpireResult{}, err
	}

	var roomTypeID string
	released := 0
	for _, n := range nights {
		roomTypeID = n.roomTypeID
		tag, err := tx.Exec(ctx, `
			UPDATE ari_days
			   SET inv_held = inv_held - 1, updated_at = now()
			 WHERE property_id = $1 AND room_type_id = $2 AND date = $3
			   AND inv_held >= 1
		`, propertyID, n.roomTypeID, n.date)
		if err != nil {
			return ExpireResult{}, fmt.Errorf("holds: decrement night %s: %w", n.date.Format("2006-01-02"), err)
		}
		if tag.RowsAffected() == 0 {
			return ExpireResult{}, ErrInventoryConsistency
		}
		released++
	}

	var checkin, checkout *time.Time
	var totalCents int64
	var currency string
	if err := tx.QueryRow(ctx, `
		SELECT checkin, checkout, total_cents, currency FROM holds WHERE id = $1 AND property_id = $2
	`, holdID, propertyID).Scan(&checkin, &checkout, &totalCents, &currency); err != nil {
		return ExpireResult{}, fmt.Errorf("holds: reload hold: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE holds SET status = $1, updated_at = now() WHERE id = $2 AND property_id = $3
	`, StatusExpired, holdID, propertyID); err != nil {
		return ExpireResult{}, fmt.Errorf("holds: mark expired: %w", err)
	}

	payload := outbox.HoldExpiredPayload{
		RoomTypeID:     roomTypeID,
		NightsReleased: released,
		TotalCents:     totalCents,
		Currency:       currency,
	}
	if checkin != nil {
		payload.Checkin = checkin.Format("2006-01-02")
	}
	if checkout != nil {
		payload.Checkout = checkout.Format("2006-01-02")
	}
	raw, err := outbox.Marshal(payload)
	if err != nil {
		return ExpireResult{}, err
	}
	if err := outbox.Emit(ctx, tx, propertyID, outbox.EventHoldExpired, outbox.AggregateHold, holdID, raw, correlationID); err != nil {
		return ExpireResult{}, fmt.Errorf("holds: emit outbox: %w", err)
	}

	return ExpireResult{Status: ExpireExpired, HoldID: holdID, NightsReleased: released}, nil
}
