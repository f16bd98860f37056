// Package reservations implements the Reservation Lifecycle
// (spec §4.H): converting a hold into a confirmed stay, cancelling a
// confirmed stay with refund computation, folio payments, and the
// physical-room overlap guard a database exclusion constraint also
// enforces at the storage layer.
package reservations

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
)

// OperationalStatuses are the reservation statuses that occupy a
// physical room and therefore participate in overlap detection.
var OperationalStatuses = []string{"confirmed", "in_house", "checked_out"}

// RoomConflictError reports the first conflicting reservation found
// for a room/date-range pair.
type RoomConflictError struct {
	RoomID                   string
	ConflictingReservationID string
	ExistingCheckin          time.Time
	ExistingCheckout         time.Time
}

func (e *RoomConflictError) Error() string {
	return "room has a conflicting reservation"
}

// CheckRoomConflict returns the id of the first operational
// reservation overlapping [checkin, checkout) on roomID, or "" if
// none. Overlap uses the strict inequality formula from spec §3:
// existing.checkin < new.checkout AND existing.checkout > new.checkin,
// so touching dates (checkout day == checkin day) are not a conflict.
func CheckRoomConflict(ctx context.Context, tx pgx.Tx, roomID string, checkin, checkout time.Time, excludeReservationID string) (string, time.Time, time.Time, error) {
	query := `
		SELECT id, checkin, checkout
		FROM reservations
		WHERE room_id = $1
		  AND status = ANY($2)
		  AND checkin < $3
		  AND checkout > $4`
	args := []any{roomID, OperationalStatuses, checkout, checkin}
	if excludeReservationID != "" {
		query += " AND id != $5"
		args = append(args, excludeReservationID)
	}
	query += " ORDER BY checkin LIMIT 1"

	var id string
	var existingCheckin, existingCheckout time.Time
	err := tx.QueryRow(ctx, query, args...).Scan(&id, &existingCheckin, &existingCheckout)
	if err == pgx.ErrNoRows {
		return "", time.Time{}, time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	return id, existingCheckin, existingCheckout, nil
}

// AssertNoRoomConflict wraps CheckRoomConflict, returning a
// *RoomConflictError when an overlap exists, for call sites that
// should abort the operation outright.
func AssertNoRoomConflict(ctx context.Context, tx pgx.Tx, roomID string, checkin, checkout time.Time, excludeReservationID string) error {
	conflictID, existingCheckin, existingCheckout, err := CheckRoomConflict(ctx, tx, roomID, checkin, checkout, excludeReservationID)
	if err != nil {
		return err
	}
	if conflictID == "" {
		return nil
	}
	return apperr.Wrap(apperr.KindConflictBusiness, "room_conflict", "room has an overlapping reservation", &RoomConflictError{
		RoomID:                   roomID,
		ConflictingReservationID: conflictID,
		ExistingCheckin:          existingCheckin,
		ExistingCheckout:         existingCheckout,
	})
}
