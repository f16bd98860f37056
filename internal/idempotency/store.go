// Package idempotency implements the Idempotency Key replay store
// (spec's "Idempotency Key" data-model entry): a per-(key, endpoint)
// record of a canonical response, so a client's retried mutating
// request gets back exactly the response its first attempt produced
// instead of re-running the operation.
//
// Grounded on the original system's idempotency_keys table after its
// schema realignment (019_align_idempotency_keys_schema,
// 020_fix_idempotency_unique_index): a surrogate id primary key, the
// (idempotency_key, endpoint) pair under a plain (non-partial) unique
// index so it can be an ON CONFLICT target, and response_code/
// response_body columns populated once the real handler completes.
package idempotency

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
)

// Replay is a previously recorded response for (key, endpoint).
type Replay struct {
	ResponseCode int
	ResponseBody json.RawMessage
}

// ErrInFlight is returned by Begin when another request with the same
// (key, endpoint) is still being processed; its row exists but has no
// response recorded yet.
var ErrInFlight = apperr.ConflictBusiness("idempotency_key_in_flight", "a request with this idempotency key is already being processed")

// Begin claims (idempotencyKey, endpoint) for the current request. It
// returns (replay, true, nil) if a completed response already exists
// for this pair; the caller must return that response unchanged and
// perform no side effects. It returns (Replay{}, false, nil) when this
// call is the first to see this key, and the caller owns completing it
// via Complete.
func Begin(ctx context.Context, tx pgx.Tx, idempotencyKey, endpoint string) (Replay, bool, error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO idempotency_keys (idempotency_key, endpoint)
		VALUES ($1, $2)
		ON CONFLICT (idempotency_key, endpoint) DO NOTHING
	`, idempotencyKey, endpoint)
	if err != nil {
		return Replay{}, false, fmt.Errorf("idempotency: begin: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return Replay{}, false, nil
	}

	var code *int
	var body json.RawMessage
	err = tx.QueryRow(ctx, `
		SELECT response_code, response_body FROM idempotency_keys
		WHERE idempotency_key = $1 AND endpoint = $2
	`, idempotencyKey, endpoint).Scan(&code, &body)
	if err != nil {
		return Replay{}, false, fmt.Errorf("idempotency: load existing: %w", err)
	}
	if code == nil {
		return Replay{}, false, ErrInFlight
	}
	return Replay{ResponseCode: *code, ResponseBody: body}, true, nil
}

// Complete records the response for (idempotencyKey, endpoint) that
// Begin just claimed, so subsequent retries replay it instead of
// re-running the handler.
func Complete(ctx context.Context, tx pgx.Tx, idempotencyKey, endpoint string, responseCode int, responseBody any) error {
	raw, err := json.Marshal(responseBody)
	if err != nil {
		return fmt.Errorf("idempotency: marshal response: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE idempotency_keys
		   SET response_code = $1, response_body = $2
		 WHERE idempotency_key = $3 AND endpoint = $4
	`, responseCode, raw, idempotencyKey, endpoint)
	if err != nil {
		return fmt.Errorf("idempotency: complete: %w", err)
	}
	return nil
}
