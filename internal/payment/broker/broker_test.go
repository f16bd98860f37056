package broker

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapProviderStatus(t *testing.T) {
	assert.Equal(t, PaymentSucceeded, MapProviderStatus("paid"))
	assert.Equal(t, PaymentPending, MapProviderStatus("unpaid"))
	assert.Equal(t, PaymentNeedsManual, MapProviderStatus(""))
	assert.Equal(t, PaymentNeedsManual, MapProviderStatus("something_else"))
}

func TestIdempotencyKey_IsDeterministicPerHold(t *testing.T) {
	assert.Equal(t, IdempotencyKey("hold_1"), IdempotencyKey("hold_1"))
	assert.NotEqual(t, IdempotencyKey("hold_1"), IdempotencyKey("hold_2"))
}

func TestReconcileEvent_UnknownPayment_ReturnsWithoutError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, hold_id, status FROM payments").
		WithArgs("prop_1", ProviderStripe, "cs_unknown").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	status, err := ReconcileEvent(context.Background(), tx, "prop_1", "cs_unknown", "paid", "evt_1", "")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))

	assert.Equal(t, "unknown_payment", status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileEvent_AlreadyAtTargetStatus_IsIdempotent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, hold_id, status FROM payments").
		WithArgs("prop_1", ProviderStripe, "cs_1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "hold_id", "status"}).
			AddRow("pay_1", "hold_1", PaymentSucceeded))
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	status, err := ReconcileEvent(context.Background(), tx, "prop_1", "cs_1", "paid", "evt_1", "")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))

	assert.Equal(t, "already_at_target_status", status)
	require.NoError(t, mock.ExpectationsWereMet())
}
