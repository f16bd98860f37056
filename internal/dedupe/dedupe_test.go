package dedupe

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsert_NewEvent_ReturnsInsertedTrue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO processed_events").
		WithArgs("prop_1", "whatsapp_meta", "msg_1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	inserted, err := Insert(context.Background(), tx, "prop_1", "whatsapp_meta", "msg_1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))

	assert.True(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_DuplicateEvent_ReturnsInsertedFalse(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO processed_events").
		WithArgs("prop_1", "whatsapp_meta", "msg_1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	inserted, err := Insert(context.Background(), tx, "prop_1", "whatsapp_meta", "msg_1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))

	assert.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}
