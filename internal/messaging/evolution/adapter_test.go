package evolution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestValidateAndExtract_Valid(t *testing.T) {
	payload := map[string]any{
		"data": map[string]any{
			"key":         map[string]any{"id": "MSG123"},
			"messageType": "conversation",
		},
	}
	msg, err := ValidateAndExtract(payload, now)
	require.NoError(t, err)
	assert.Equal(t, "MSG123", msg.MessageID)
	assert.Equal(t, Provider, msg.Provider)
	assert.Equal(t, "conversation", msg.Kind)
}

func TestValidateAndExtract_MissingMessageID(t *testing.T) {
	payload := map[string]any{"data": map[string]any{"key": map[string]any{}}}
	_, err := ValidateAndExtract(payload, now)
	require.Error(t, err)
	assert.True(t, AsInvalidPayload(err))
}

func TestValidateAndExtract_DefaultsKindToUnknown(t *testing.T) {
	payload := map[string]any{"data": map[string]any{"key": map[string]any{"id": "MSG1"}}}
	msg, err := ValidateAndExtract(payload, now)
	require.NoError(t, err)
	assert.Equal(t, "unknown", msg.Kind)
}

func TestNormalize_ConversationText(t *testing.T) {
	payload := map[string]any{
		"data": map[string]any{
			"key":         map[string]any{"id": "MSG1", "remoteJid": "5511999@s.whatsapp.net"},
			"messageType": "conversation",
			"message":     map[string]any{"conversation": "ola"},
		},
	}
	n, err := Normalize(payload, now)
	require.NoError(t, err)
	assert.Equal(t, "5511999@s.whatsapp.net", n.RemoteJID)
	require.NotNil(t, n.Text)
	assert.Equal(t, "ola", *n.Text)
}

func TestNormalize_ExtendedTextMessage(t *testing.T) {
	payload := map[string]any{
		"data": map[string]any{
			"key":         map[string]any{"id": "MSG1", "remoteJid": "5511999@s.whatsapp.net"},
			"messageType": "extendedTextMessage",
			"message": map[string]any{
				"extendedTextMessage": map[string]any{"text": "quero reservar"},
			},
		},
	}
	n, err := Normalize(payload, now)
	require.NoError(t, err)
	require.NotNil(t, n.Text)
	assert.Equal(t, "quero reservar", *n.Text)
}

func TestNormalize_MissingRemoteJID(t *testing.T) {
	payload := map[string]any{
		"data": map[string]any{"key": map[string]any{"id": "MSG1"}},
	}
	_, err := Normalize(payload, now)
	require.Error(t, err)
	assert.True(t, AsInvalidPayload(err))
}

func TestNormalize_UnknownKindHasNilText(t *testing.T) {
	payload := map[string]any{
		"data": map[string]any{
			"key":         map[string]any{"id": "MSG1", "remoteJid": "5511999@s.whatsapp.net"},
			"messageType": "imageMessage",
		},
	}
	n, err := Normalize(payload, now)
	require.NoError(t, err)
	assert.Nil(t, n.Text)
}
