package conversations

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsert_NewConversation_StartsAtStateStart(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, state, context FROM conversations").
		WithArgs("prop_1", "whatsapp_evolution", "hash_1").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("INSERT INTO conversations").
		WithArgs("prop_1", "whatsapp_evolution", "hash_1", StateStart).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("conv_1"))
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	conv, created, err := Upsert(context.Background(), tx, "prop_1", "whatsapp_evolution", "hash_1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))

	assert.True(t, created)
	assert.Equal(t, StateStart, conv.State)
	assert.Equal(t, "conv_1", conv.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_ExistingConversation_AdvancesOneStep(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, state, context FROM conversations").
		WithArgs("prop_1", "whatsapp_evolution", "hash_1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "state", "context"}).
			AddRow("conv_1", StateStart, []byte(`{}`)))
	mock.ExpectExec("UPDATE conversations SET state").
		WithArgs(StateCollectingDates, "conv_1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	conv, created, err := Upsert(context.Background(), tx, "prop_1", "whatsapp_evolution", "hash_1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))

	assert.False(t, created)
	assert.Equal(t, StateCollectingDates, conv.State)
	assert.Equal(t, "conv_1", conv.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_TerminalState_StaysPinned(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, state, context FROM conversations").
		WithArgs("prop_1", "whatsapp_evolution", "hash_1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "state", "context"}).
			AddRow("conv_1", StateReadyToQuote, []byte(`{}`)))
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	conv, created, err := Upsert(context.Background(), tx, "prop_1", "whatsapp_evolution", "hash_1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))

	assert.False(t, created)
	assert.Equal(t, StateReadyToQuote, conv.State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_LoadsConversationByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, property_id, channel, contact_hash, state, context").
		WithArgs("conv_1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "property_id", "channel", "contact_hash", "state", "context"}).
			AddRow("conv_1", "prop_1", "whatsapp_meta", "hash_1", StateReadyToQuote, []byte(`{"room_type_id":"rt_casal"}`)))
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	conv, err := Get(context.Background(), tx, "conv_1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))

	assert.Equal(t, "prop_1", conv.PropertyID)
	assert.Equal(t, StateReadyToQuote, conv.State)
	require.NotNil(t, conv.Context.RoomTypeID)
	assert.Equal(t, "rt_casal", *conv.Context.RoomTypeID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNextPrompt_ReturnsFirstMissingInFixedOrder(t *testing.T) {
	assert.Equal(t, "prompt_ask_checkin", NextPrompt([]string{"adult_count", "checkin"}))
	assert.Equal(t, "prompt_ask_room_type", NextPrompt([]string{"room_type"}))
	assert.Equal(t, "", NextPrompt(nil))
}

func TestNext_TerminalStateMapsToItself(t *testing.T) {
	assert.Equal(t, StateReadyToQuote, Next(StateReadyToQuote))
	assert.Equal(t, StateCollectingDates, Next(StateStart))
}
