package idempotency

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestBegin_NewKey_ReturnsNotFoundForCallerToComplete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO idempotency_keys`).
		WithArgs("key-1", "/reservations/cancel").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	_, found, err := Begin(ctx, tx, "key-1", "/reservations/cancel")
	require.NoError(t, err)
	require.False(t, found)
	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBegin_CompletedKey_ReturnsReplay(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO idempotency_keys`).
		WithArgs("key-1", "/reservations/cancel").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`SELECT response_code, response_body FROM idempotency_keys`).
		WithArgs("key-1", "/reservations/cancel").
		WillReturnRows(pgxmock.NewRows([]string{"response_code", "response_body"}).
			AddRow(200, []byte(`{"status":"cancelled"}`)))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	replay, found, err := Begin(ctx, tx, "key-1", "/reservations/cancel")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 200, replay.ResponseCode)
	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBegin_InFlightKey_ReturnsErrInFlight(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO idempotency_keys`).
		WithArgs("key-1", "/reservations/cancel").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`SELECT response_code, response_body FROM idempotency_keys`).
		WithArgs("key-1", "/reservations/cancel").
		WillReturnRows(pgxmock.NewRows([]string{"response_code", "response_body"}).
			AddRow(nil, nil))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	_, _, err = Begin(ctx, tx, "key-1", "/reservations/cancel")
	require.ErrorIs(t, err, ErrInFlight)
	require.NoError(t, tx.Rollback(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}
