// Package guests implements identity resolution for the Guest profile
// (spec §3): a property-scoped upsert keyed by email first, then
// phone, guarded by FOR UPDATE so two concurrent reservations for the
// same person never create duplicate rows.
package guests

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Guest mirrors the guests row.
type Guest struct {
	ID          string
	PropertyID  string
	FullName    string
	Email       *string
	Phone       *string
	DisplayName *string
	LastStayAt  time.Time
}

// UpsertParams carries the contact data a reservation confirmation
// makes available; Email and Phone are both optional but at least one
// should be present for the lookup to have any chance of matching an
// existing guest.
type UpsertParams struct {
	PropertyID  string
	FullName    string
	Email       *string
	Phone       *string
	DisplayName *string
	LastStayAt  *time.Time
}

// Upsert resolves or creates a guest profile, returning the guest id
// and whether a new row was inserted.
func Upsert(ctx context.Context, tx pgx.Tx, p UpsertParams) (id string, created bool, err error) {
	foundID, err := findLocked(ctx, tx, p.PropertyID, p.Email, p.Phone)
	if err != nil {
		return "", false, err
	}

	if foundID != "" {
		_, err := tx.Exec(ctx, `
			UPDATE guests
			   SET full_name = $1, last_stay_at = COALESCE($2, now()), updated_at = now()
			 WHERE id = $3
		`, p.FullName, p.LastStayAt, foundID)
		if err != nil {
			return "", false, fmt.Errorf("guests: update: %w", err)
		}
		return foundID, false, nil
	}

	var newID string
	err = tx.QueryRow(ctx, `
		INSERT INTO guests (property_id, full_name, email, phone, display_name, last_stay_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
		RETURNING id
	`, p.PropertyID, p.FullName, p.Email, p.Phone, p.DisplayName, p.LastStayAt).Scan(&newID)
	if err != nil {
		return "", false, fmt.Errorf("guests: insert: %w", err)
	}
	return newID, true, nil
}

func findLocked(ctx context.Context, tx pgx.Tx, propertyID string, email, phone *string) (string, error) {
	if email != nil && *email != "" {
		var id string
		err := tx.QueryRow(ctx, `
			SELECT id FROM guests WHERE property_id = $1 AND email = $2 FOR UPDATE
		`, propertyID, *email).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != pgx.ErrNoRows {
			return "", err
		}
	}

	if phone != nil && *phone != "" {
		var id string
		err := tx.QueryRow(ctx, `
			SELECT id FROM guests WHERE property_id = $1 AND phone = $2 FOR UPDATE
		`, propertyID, *phone).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != pgx.ErrNoRows {
			return "", err
		}
	}

	return "", nil
}
