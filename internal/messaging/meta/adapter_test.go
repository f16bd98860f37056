package meta

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func validEnvelope(message map[string]any) map[string]any {
	return map[string]any{
		"entry": []any{
			map[string]any{
				"changes": []any{
					map[string]any{
						"value": map[string]any{
							"metadata": map[string]any{"phone_number_id": "PNID1"},
							"messages": []any{message},
						},
					},
				},
			},
		},
	}
}

func TestVerifySignature_Valid(t *testing.T) {
	body := []byte(`{"hello":"world"}`)
	mac := hmac.New(sha256.New, []byte("app-secret"))
	mac.Write(body)
	sig := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	assert.NoError(t, VerifySignature(body, sig, "app-secret"))
}

func TestVerifySignature_Mismatch(t *testing.T) {
	err := VerifySignature([]byte("body"), "sha256=deadbeef", "app-secret")
	require.Error(t, err)
	assert.True(t, AsSignatureError(err))
}

func TestVerifySignature_MissingHeader(t *testing.T) {
	err := VerifySignature([]byte("body"), "", "app-secret")
	require.Error(t, err)
	assert.True(t, AsSignatureError(err))
}

func TestVerifySignature_BadFormat(t *testing.T) {
	err := VerifySignature([]byte("body"), "md5=abc", "app-secret")
	require.Error(t, err)
}

func TestValidateAndExtract_Valid(t *testing.T) {
	payload := validEnvelope(map[string]any{"id": "wamid.1", "type": "text"})
	msg, err := ValidateAndExtract(payload, now)
	require.NoError(t, err)
	assert.Equal(t, "wamid.1", msg.MessageID)
	assert.Equal(t, Provider, msg.Provider)
	assert.Equal(t, "text", msg.Kind)
}

func TestValidateAndExtract_NoMessages(t *testing.T) {
	payload := map[string]any{"entry": []any{}}
	_, err := ValidateAndExtract(payload, now)
	require.Error(t, err)
	assert.True(t, AsInvalidPayload(err))
}

func TestNormalize_TextMessage(t *testing.T) {
	payload := validEnvelope(map[string]any{
		"id":   "wamid.1",
		"from": "5511999999999",
		"type": "text",
		"text": map[string]any{"body": "oi"},
	})
	n, err := Normalize(payload, now)
	require.NoError(t, err)
	assert.Equal(t, "5511999999999@s.whatsapp.net", n.RemoteJID)
	require.NotNil(t, n.Text)
	assert.Equal(t, "oi", *n.Text)
}

func TestNormalize_MissingSenderPhone(t *testing.T) {
	payload := validEnvelope(map[string]any{"id": "wamid.1", "type": "text"})
	_, err := Normalize(payload, now)
	require.Error(t, err)
	assert.True(t, AsInvalidPayload(err))
}

func TestNormalize_NonTextKindHasNilText(t *testing.T) {
	payload := validEnvelope(map[string]any{"id": "wamid.1", "from": "5511999999999", "type": "image"})
	n, err := Normalize(payload, now)
	require.NoError(t, err)
	assert.Nil(t, n.Text)
}

func TestPhoneNumberID_ExtractsFromEnvelope(t *testing.T) {
	payload := validEnvelope(map[string]any{"id": "wamid.1", "from": "5511999999999", "type": "text"})
	assert.Equal(t, "PNID1", PhoneNumberID(payload))
}

func TestPhoneNumberID_MissingReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", PhoneNumberID(map[string]any{}))
}
