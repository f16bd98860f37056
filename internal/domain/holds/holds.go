// Package holds implements the Hold Engine (spec §4.F): the
// concurrency-critical inventory contract. Every mutation here runs
// inside a caller-supplied pgx.Serializable transaction; the package
// never opens its own transaction so that Create and its outbox emit
// and its task scheduling compose correctly with the rest of a
// request.
package holds

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
	"github.com/marcioluisms/hotelly2-sub001/internal/outbox"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
	StatusConverted Status = "converted"
)

// Hold mirrors the hold row described in spec §3.
type Hold struct {
	ID             string
	PropertyID     string
	RoomTypeID     string
	Checkin        time.Time
	Checkout       time.Time
	ExpiresAt      time.Time
	TotalCents     int64
	Currency       string
	Status         Status
	ConversationID *string
	CreationKey    *string
	AdultCount     int
	ChildrenAges   []int
	ContactChannel *string
	ContactHash    *string
}

// CreateParams carries everything Create needs; all pricing has
// already been computed by the caller via domain/pricing.Quote.
type CreateParams struct {
	PropertyID     string
	RoomTypeID     string
	Checkin        time.Time
	Checkout       time.Time
	TTL            time.Duration
	TotalCents     int64
	Currency       string
	AdultCount     int
	ChildrenAges   []int
	ConversationID *string
	CreationKey    *string
	ContactChannel *string
	ContactHash    *string
	CorrelationID  string
}

// CreateResult reports whether Create produced a new hold or replayed
// an existing one under the same creation key.
type CreateResult struct {
	Hold    Hold
	Created bool
}

// DefaultHoldTTL is the window a hold stays active awaiting payment
// before the scheduled expiration task releases its inventory. The
// spec leaves the exact duration unspecified; thirty minutes matches
// a single WhatsApp checkout round-trip without tying up inventory
// indefinitely.
const DefaultHoldTTL = 30 * time.Minute

// ErrUnavailable signals that some night in the requested range could
// not be held because inventory was exhausted by the time this
// transaction serialised against its concurrent peers.
var ErrUnavailable = apperr.Unavailable("hold_unavailable", "requested stay is unavailable")

// Create runs the full procedure from spec §4.F steps 1-4: idempotent
// insert, per-night guarded inventory decrement, outbox emit. The
// caller commits tx and is responsible for step 5 (scheduling
// expiration) outside the transaction, since the task dispatcher must
// never be called from inside a transaction that might still roll
// back.
func Create(ctx context.Context, tx pgx.Tx, p CreateParams) (CreateResult, error) {
	if existing, ok, err := findByCreationKey(ctx, tx, p.PropertyID, p.CreationKey); err != nil {
		return CreateResult{}, err
	} else if ok {
		return CreateResult{Hold: existing, Created: false}, nil
	}

	id := uuid.NewString()
	expiresAt := time.Now().UTC().Add(p.TTL)

	_, err := tx.Exec(ctx, `
		INSERT INTO holds (id, property_id, room_type_id, checkin, checkout, expires_at,
		                    total_cents, currency, status, conversation_id, creation_key,
		                    adult_count, children_ages, contact_channel, contact_hash, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15, now())
	`, id, p.PropertyID, p.RoomTypeID, p.Checkin, p.Checkout, expiresAt,
		p.TotalCents, p.Currency, StatusActive, p.ConversationID, p.CreationKey,
		p.AdultCount, p.ChildrenAges, p.ContactChannel, p.ContactHash)
	if err != nil {
		return CreateResult{}, fmt.Errorf("holds: insert: %w", err)
	}

	for d := p.Checkin; d.Before(p.Checkout); d = d.AddDate(0, 0, 1) {
		tag, err := tx.Exec(ctx, `
			UPDATE ari_days
			   SET inv_held = inv_held + 1
			 WHERE property_id = $1 AND room_type_id = $2 AND date = $3
			   AND inv_total >= inv_booked + inv_held + 1
		`, p.PropertyID, p.RoomTypeID, d)
		if err != nil {
			return CreateResult{}, fmt.Errorf("holds: decrement night %s: %w", d.Format("2006-01-02"), err)
		}
		if tag.RowsAffected() == 0 {
			return CreateResult{}, ErrUnavailable
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO hold_nights (hold_id, property_id, room_type_id, date)
			VALUES ($1, $2, $3, $4)
		`, id, p.PropertyID, p.RoomTypeID, d); err != nil {
			return CreateResult{}, fmt.Errorf("holds: insert night %s: %w", d.Format("2006-01-02"), err)
		}
	}

	nights := int(p.Checkout.Sub(p.Checkin).Hours() / 24)
	payload, err := outbox.Marshal(outbox.HoldCreatedPayload{
		RoomTypeID:    p.RoomTypeID,
		Checkin:       p.Checkin.Format("2006-01-02"),
		Checkout:      p.Checkout.Format("2006-01-02"),
		Nights:        nights,
		TotalCents:    p.TotalCents,
		Currency:      p.Currency,
		CorrelationID: p.CorrelationID,
	})
	if err != nil {
		return CreateResult{}, err
	}
	if err := outbox.Emit(ctx, tx, p.PropertyID, outbox.EventHoldCreated, outbox.AggregateHold, id, payload, p.CorrelationID); err != nil {
		return CreateResult{}, fmt.Errorf("holds: emit outbox: %w", err)
	}

	return CreateResult{
		Hold: Hold{
			ID: id, PropertyID: p.PropertyID, RoomTypeID: p.RoomTypeID,
			Checkin: p.Checkin, Checkout: p.Checkout, ExpiresAt: expiresAt,
			TotalCents: p.TotalCents, Currency: p.Currency, Status: StatusActive,
			ConversationID: p.ConversationID, CreationKey: p.CreationKey,
			AdultCount: p.AdultCount, ChildrenAges: p.ChildrenAges,
			ContactChannel: p.ContactChannel, ContactHash: p.ContactHash,
		},
		Created: true,
	}, nil
}

// ExpirationTaskID is the deterministic, dedupe-friendly identifier
// the caller schedules the expiration task under, per spec §4.F step 5.
func ExpirationTaskID(propertyID, holdID string) string {
	return fmt.Sprintf("expire-hold:%s:%s", propertyID, holdID)
}

func findByCreationKey(ctx context.Context, tx pgx.Tx, propertyID string, creationKey *string) (Hold, bool, error) {
	if creationKey == nil || *creationKey == "" {
		return Hold{}, false, nil
	}
	var h Hold
	err := tx.QueryRow(ctx, `
		SELECT id, property_id, room_type_id, checkin, checkout, expires_at,
		       total_cents, currency, status, conversation_id, creation_key,
		       adult_count, children_ages, contact_channel, contact_hash
		FROM holds
		WHERE property_id = $1 AND creation_key = $2
	`, propertyID, *creationKey).Scan(
		&h.ID, &h.PropertyID, &h.RoomTypeID, &h.Checkin, &h.Checkout, &h.ExpiresAt,
		&h.TotalCents, &h.Currency, &h.Status, &h.ConversationID, &h.CreationKey,
		&h.AdultCount, &h.ChildrenAges, &h.ContactChannel, &h.ContactHash,
	)
	if err == pgx.ErrNoRows {
		return Hold{}, false, nil
	}
	if err != nil {
		return Hold{}, false, err
	}
	return h, true, nil
}

// Get loads a hold by id for read-only callers (e.g. the payment broker).
func Get(ctx context.Context, tx pgx.Tx, propertyID, holdID string) (Hold, bool, error) {
	var h Hold
	err := tx.QueryRow(ctx, `
		SELECT id, property_id, room_type_id, checkin, checkout, expires_at,
		       total_cents, currency, status, conversation_id, creation_key,
		       adult_count, children_ages, contact_channel, contact_hash
		FROM holds
		WHERE property_id = $1 AND id = $2
	`, propertyID, holdID).Scan(
		&h.ID, &h.PropertyID, &h.RoomTypeID, &h.Checkin, &h.Checkout, &h.ExpiresAt,
		&h.TotalCents, &h.Currency, &h.Status, &h.ConversationID, &h.CreationKey,
		&h.AdultCount, &h.ChildrenAges, &h.ContactChannel, &h.ContactHash,
	)
	if err == pgx.ErrNoRows {
		return Hold{}, false, nil
	}
	if err != nil {
		return Hold{}, false, err
	}
	return h, true, nil
}

// GetForUpdate loads and row-locks a hold, for callers that are about
// to mutate it (ConvertHold, cancellation, expiration).
func GetForUpdate(ctx context.Context, tx pgx.Tx, propertyID, holdID string) (Hold, bool, error) {
	var h Hold
	err := tx.QueryRow(ctx, `
		SELECT id, property_id, room_type_id, checkin, checkout, expires_at,
		       total_cents, currency, status, conversation_id, creation_key,
		       adult_count, children_ages, contact_channel, contact_hash
		FROM holds
		WHERE property_id = $1 AND id = $2
		FOR UPDATE
	`, propertyID, holdID).Scan(
		&h.ID, &h.PropertyID, &h.RoomTypeID, &h.Checkin, &h.Checkout, &h.ExpiresAt,
		&h.TotalCents, &h.Currency, &h.Status, &h.ConversationID, &h.CreationKey,
		&h.AdultCount, &h.ChildrenAges, &h.ContactChannel, &h.ContactHash,
	)
	if err == pgx.ErrNoRows {
		return Hold{}, false, nil
	}
	if err != nil {
		return Hold{}, false, err
	}
	return h, true, nil
}

// MarkConverted flips a hold to converted status, used by
// domain/reservations.ConvertHold.
func MarkConverted(ctx context.Context, tx pgx.Tx, propertyID, holdID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE holds SET status = $1 WHERE property_id = $2 AND id = $3
	`, StatusConverted, propertyID, holdID)
	return err
}
