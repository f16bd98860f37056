package outbox

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Emit appends one outbox row in the caller's transaction. The payload
// must already be one of the typed variants in events.go, marshaled via
// Marshal, keeping duck-typed payloads out of the write path entirely.
func Emit(ctx context.Context, tx pgx.Tx, propertyID string, eventType EventType, aggregateType AggregateType, aggregateID string, payload []byte, correlationID string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox_events (id, property_id, event_type, aggregate_type, aggregate_id, correlation_id, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`, uuid.NewString(), propertyID, string(eventType), string(aggregateType), aggregateID, correlationID, payload)
	return err
}
