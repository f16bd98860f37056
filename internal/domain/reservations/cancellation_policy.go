package reservations

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
)

// GetCancellationPolicy loads a property's configured cancellation
// policy, or DefaultCancellationPolicy when none is configured, for
// `GET /cancellation-policy`.
func GetCancellationPolicy(ctx context.Context, tx pgx.Tx, propertyID string) (CancellationPolicy, error) {
	return loadPolicy(ctx, tx, propertyID)
}

func validatePolicy(p CancellationPolicy) error {
	switch p.PolicyType {
	case PolicyNonRefundable, PolicyFree, PolicyFlexible:
	default:
		return apperr.Validation("invalid_policy_type", "unknown cancellation policy type")
	}
	if p.FreeUntilDaysBeforeCheckin < 0 {
		return apperr.Validation("invalid_free_until", "free_until_days_before_checkin must be >= 0")
	}
	if p.PenaltyPercent < 0 || p.PenaltyPercent > 100 {
		return apperr.Validation("invalid_penalty_percent", "penalty_percent must be between 0 and 100")
	}
	return nil
}

// PutCancellationPolicy validates and upserts a property's
// cancellation policy, for `PUT /cancellation-policy`.
func PutCancellationPolicy(ctx context.Context, tx pgx.Tx, propertyID string, p CancellationPolicy) (CancellationPolicy, error) {
	if err := validatePolicy(p); err != nil {
		return CancellationPolicy{}, err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO property_cancellation_policy (property_id, policy_type, free_until_days_before_checkin, penalty_percent, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (property_id) DO UPDATE
		SET policy_type = EXCLUDED.policy_type,
		    free_until_days_before_checkin = EXCLUDED.free_until_days_before_checkin,
		    penalty_percent = EXCLUDED.penalty_percent,
		    notes = EXCLUDED.notes
	`, propertyID, p.PolicyType, p.FreeUntilDaysBeforeCheckin, p.PenaltyPercent, p.Notes); err != nil {
		return CancellationPolicy{}, err
	}
	return p, nil
}
