// Package dedupe implements the Processed Events ledger (spec §4.B):
// at-most-once receipt of external events per (tenant, source, external
// id). The ledger write is always the first write in a handling
// transaction so that a rollback of later work rolls the ledger entry
// back with it.
package dedupe

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Insert attempts to record (propertyID, source, externalID) as
// processed. It returns inserted=true if the row was new, or
// inserted=false if the event had already been seen; callers must
// treat false as "already processed, perform no further side effects."
func Insert(ctx context.Context, tx pgx.Tx, propertyID, source, externalID string) (inserted bool, err error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO processed_events (property_id, source, external_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (property_id, source, external_id) DO NOTHING
	`, propertyID, source, externalID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Seen reports whether (propertyID, source, externalID) has already
// been recorded, without writing anything. Useful for read-only checks
// outside a mutating flow.
func Seen(ctx context.Context, pool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, propertyID, source, externalID string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM processed_events
			WHERE property_id = $1 AND source = $2 AND external_id = $3
		)
	`, propertyID, source, externalID).Scan(&exists)
	return exists, err
}
