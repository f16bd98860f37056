package reservations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
	"github.com/marcioluisms/hotelly2-sub001/internal/domain/holds"
	"github.com/marcioluisms/hotelly2-sub001/internal/logging"
	"github.com/marcioluisms/hotelly2-sub001/internal/outbox"
)

// Status is one of the reservation lifecycle states from spec §3.
type Status string

const (
	StatusPending        Status = "pending"
	StatusPendingPayment Status = "pending_payment"
	StatusConfirmed      Status = "confirmed"
	StatusInHouse        Status = "in_house"
	StatusCheckedOut     Status = "checked_out"
	StatusCancelled      Status = "cancelled"
)

// Reservation mirrors the reservation row described in spec §3.
type Reservation struct {
	ID             string
	PropertyID     string
	HoldID         *string
	ConversationID *string
	RoomTypeID     string
	RoomID         *string
	Checkin        time.Time
	Checkout       time.Time
	TotalCents     int64
	Currency       string
	Status         Status
	AdultCount     int
	ChildrenAges   []int
}

// ConvertResult reports what happened to one ConvertHold call.
type ConvertResult struct {
	Status        string // "noop" | "converted"
	ReservationID string
}

// ConvertHold implements spec §4.H.1: lock the hold, validate it is
// active, insert the reservation exactly once under UNIQUE(property,
// hold), mark the hold converted, and conditionally emit the
// outbound-message outbox event.
func ConvertHold(ctx context.Context, tx pgx.Tx, propertyID, holdID, correlationID string) (ConvertResult, error) {
	hold, ok, err := holds.GetForUpdate(ctx, tx, propertyID, holdID)
	if err != nil {
		return ConvertResult{}, fmt.Errorf("reservations: lock hold: %w", err)
	}
	if !ok {
		return ConvertResult{Status: "noop"}, nil
	}
	if hold.Status != holds.StatusActive {
		return ConvertResult{}, apperr.ConflictBusiness("hold_not_active", fmt.Sprintf("hold is not active (status: %s)", hold.Status))
	}

	reservationID, created, err := insertReservation(ctx, tx, propertyID, hold)
	if err != nil {
		return ConvertResult{}, fmt.Errorf("reservations: insert: %w", err)
	}

	if err := holds.MarkConverted(ctx, tx, propertyID, holdID); err != nil {
		return ConvertResult{}, fmt.Errorf("reservations: mark converted: %w", err)
	}

	if created && hold.ConversationID != nil {
		if err := emitConfirmationMessage(ctx, tx, propertyID, *hold.ConversationID, reservationID, hold, correlationID); err != nil {
			return ConvertResult{}, fmt.Errorf("reservations: emit confirmation: %w", err)
		}
	}

	return ConvertResult{Status: "converted", ReservationID: reservationID}, nil
}

func insertReservation(ctx context.Context, tx pgx.Tx, propertyID string, hold holds.Hold) (string, bool, error) {
	var existingID string
	err := tx.QueryRow(ctx, `
		SELECT id FROM reservations WHERE property_id = $1 AND hold_id = $2
	`, propertyID, hold.ID).Scan(&existingID)
	if err == nil {
		return existingID, false, nil
	}
	if err != pgx.ErrNoRows {
		return "", false, err
	}

	id := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO reservations (id, property_id, hold_id, conversation_id, room_type_id,
		                           checkin, checkout, total_cents, currency, status,
		                           adult_count, children_ages, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, now(), now())
		ON CONFLICT (property_id, hold_id) DO NOTHING
	`, id, propertyID, hold.ID, hold.ConversationID, hold.RoomTypeID,
		hold.Checkin, hold.Checkout, hold.TotalCents, hold.Currency, StatusConfirmed,
		hold.AdultCount, hold.ChildrenAges)
	if err != nil {
		return "", false, err
	}

	var finalID string
	if err := tx.QueryRow(ctx, `
		SELECT id FROM reservations WHERE property_id = $1 AND hold_id = $2
	`, propertyID, hold.ID).Scan(&finalID); err != nil {
		return "", false, err
	}
	return finalID, finalID == id, nil
}

// emitConfirmationMessage gates the reservation_confirmed emit on
// conversations.contact_hash being set, a proxy for spec §4.H.1 step
// 5's "the vault holds a contact for it". This function runs inside
// ConvertHold's transaction and has no pool to hand the PII Vault
// (Vault.Get takes *pgxpool.Pool, not a tx, see pii/vault.go), so it
// cannot check the vault entry's own 24h TTL here. The proxy can emit
// an outbox event for a contact whose vault entry has since expired;
// no consumer currently drains outbox_events for this event type, so
// there is nothing downstream to drop it yet (see DESIGN.md).
func emitConfirmationMessage(ctx context.Context, tx pgx.Tx, propertyID, conversationID, reservationID string, hold holds.Hold, correlationID string) error {
	var contactHash *string
	if err := tx.QueryRow(ctx, `
		SELECT contact_hash FROM conversations WHERE id = $1
	`, conversationID).Scan(&contactHash); err != nil && err != pgx.ErrNoRows {
		return err
	}
	if contactHash == nil || *contactHash == "" {
		logging.FromContext(ctx).Warn().
			Str("conversation_id", conversationID).
			Str("reservation_id", reservationID).
			Msg("skipping reservation notification: contact_hash missing")
		return nil
	}

	var propertyName string
	if err := tx.QueryRow(ctx, `SELECT name FROM properties WHERE id = $1`, propertyID).Scan(&propertyName); err != nil {
		if err == pgx.ErrNoRows {
			return nil
		}
		return err
	}

	payload, err := outbox.Marshal(outbox.WhatsAppSendMessagePayload{
		ContactHash: *contactHash,
		Template:    "reservation_confirmed",
		Params: outbox.WhatsAppSendMessageParams{
			PropertyName: propertyName,
			Checkin:      hold.Checkin.Format("2006-01-02"),
			Checkout:     hold.Checkout.Format("2006-01-02"),
		},
	})
	if err != nil {
		return err
	}
	return outbox.Emit(ctx, tx, propertyID, outbox.EventWhatsAppSendMessage, outbox.AggregateReservation, reservationID, payload, correlationID)
}
