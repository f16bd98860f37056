package holds

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_NewHold_DecrementsEachNightAndEmitsOutbox(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	checkin := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	checkout := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO holds").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// Two nights: 2026-08-01 and 2026-08-02.
	mock.ExpectExec("UPDATE ari_days").
		WithArgs("prop_1", "rt_casal", checkin).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO hold_nights").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE ari_days").
		WithArgs("prop_1", "rt_casal", checkin.AddDate(0, 0, 1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO hold_nights").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO outbox_events").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := Create(context.Background(), tx, CreateParams{
		PropertyID: "prop_1",
		RoomTypeID: "rt_casal",
		Checkin:    checkin,
		Checkout:   checkout,
		TTL:        30 * time.Minute,
		TotalCents: 40000,
		Currency:   "BRL",
		AdultCount: 2,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))

	assert.True(t, result.Created)
	assert.Equal(t, StatusActive, result.Hold.Status)
	assert.NotEmpty(t, result.Hold.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_NightUnavailable_AbortsWithoutCommitting(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	checkin := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	checkout := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO holds").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE ari_days").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	_, err = Create(context.Background(), tx, CreateParams{
		PropertyID: "prop_1",
		RoomTypeID: "rt_casal",
		Checkin:    checkin,
		Checkout:   checkout,
		TTL:        30 * time.Minute,
		TotalCents: 20000,
		Currency:   "BRL",
		AdultCount: 2,
	})
	require.ErrorIs(t, err, ErrUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpire_NotExpiredYet_ReturnsEarlyWithoutLedgerWrite(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	futureExpiry := now.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status, expires_at FROM holds").
		WithArgs("hold_1", "prop_1").
		WillReturnRows(pgxmock.NewRows([]string{"status", "expires_at"}).
			AddRow(string(StatusActive), futureExpiry))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := Expire(context.Background(), tx, "prop_1", "hold_1", "task_1", "corr_1", now)
	require.NoError(t, err)
	assert.Equal(t, ExpireNotExpiredYet, result.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpire_HoldMissing_ReturnsNoop(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status, expires_at FROM holds").
		WithArgs("hold_missing", "prop_1").
		WillReturnRows(pgxmock.NewRows([]string{"status", "expires_at"}))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := Expire(context.Background(), tx, "prop_1", "hold_missing", "task_1", "corr_1", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, ExpireNoop, result.Status)
}

func TestExpire_AlreadyConverted_ReturnsNoop(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status, expires_at FROM holds").
		WithArgs("hold_1", "prop_1").
		WillReturnRows(pgxmock.NewRows([]string{"status", "expires_at"}).
			AddRow(string(StatusConverted), time.Now().UTC().Add(-time.Hour)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := Expire(context.Background(), tx, "prop_1", "hold_1", "task_1", "corr_1", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, ExpireNoop, result.Status)
}

func TestExpirationTaskID_IsDeterministic(t *testing.T) {
	a := ExpirationTaskID("prop_1", "hold_1")
	b := ExpirationTaskID("prop_1", "hold_1")
	assert.Equal(t, a, b)
	assert.Equal(t, "expire-hold:prop_1:hold_1", a)
}
