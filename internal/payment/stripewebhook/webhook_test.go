package stripewebhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_test_secret"

func signedHeader(t *testing.T, payload []byte, ts int64) string {
	t.Helper()
	signedPayload := fmt.Sprintf("%d.%s", ts, payload)
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(signedPayload))
	sig := hex.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("t=%d,v1=%s", ts, sig)
}

func TestVerifyAndExtract_ValidSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_test_123"}}}`)
	header := signedHeader(t, payload, time.Now().Unix())

	evt, err := VerifyAndExtract(payload, header, webhookSecret)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", evt.EventID)
	assert.Equal(t, "checkout.session.completed", evt.EventType)
	assert.Equal(t, "cs_test_123", evt.ObjectID)
}

func TestVerifyAndExtract_BadSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_test_123"}}}`)
	_, err := VerifyAndExtract(payload, "t=1,v1=deadbeef", webhookSecret)
	require.Error(t, err)
	assert.True(t, AsInvalidSignature(err))
}

func TestVerifyAndExtract_MissingEventID(t *testing.T) {
	payload := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_test_123"}}}`)
	header := signedHeader(t, payload, time.Now().Unix())

	_, err := VerifyAndExtract(payload, header, webhookSecret)
	require.Error(t, err)
	assert.True(t, AsInvalidPayload(err))
}
