package reservations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateRefund_NonRefundable_IsZero(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	checkin := now.AddDate(0, 0, 30)
	policy := CancellationPolicy{PolicyType: PolicyNonRefundable}
	assert.Equal(t, int64(0), CalculateRefund(100000, checkin, policy, now))
}

func TestCalculateRefund_Free_IsFullAmount(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	checkin := now.AddDate(0, 0, 1)
	policy := CancellationPolicy{PolicyType: PolicyFree}
	assert.Equal(t, int64(100000), CalculateRefund(100000, checkin, policy, now))
}

func TestCalculateRefund_Flexible_BeforeFreeWindow_IsFullAmount(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	checkin := now.AddDate(0, 0, 10)
	policy := CancellationPolicy{PolicyType: PolicyFlexible, FreeUntilDaysBeforeCheckin: 7, PenaltyPercent: 100}
	assert.Equal(t, int64(100000), CalculateRefund(100000, checkin, policy, now))
}

func TestCalculateRefund_Flexible_InsidePenaltyWindow_AppliesPenalty(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	checkin := now.AddDate(0, 0, 3) // past the 7-day free window: penalty applies
	policy := CancellationPolicy{PolicyType: PolicyFlexible, FreeUntilDaysBeforeCheckin: 7, PenaltyPercent: 100}
	assert.Equal(t, int64(0), CalculateRefund(100000, checkin, policy, now))
}

func TestCalculateRefund_Flexible_PartialPenalty(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	checkin := now.AddDate(0, 0, 3)
	policy := CancellationPolicy{PolicyType: PolicyFlexible, FreeUntilDaysBeforeCheckin: 7, PenaltyPercent: 50}
	assert.Equal(t, int64(50000), CalculateRefund(100000, checkin, policy, now))
}

func TestDefaultCancellationPolicy_MatchesSpecDefault(t *testing.T) {
	assert.Equal(t, PolicyFlexible, DefaultCancellationPolicy.PolicyType)
	assert.Equal(t, 7, DefaultCancellationPolicy.FreeUntilDaysBeforeCheckin)
	assert.Equal(t, 100, DefaultCancellationPolicy.PenaltyPercent)
}
