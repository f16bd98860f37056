package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcioluisms/hotelly2-sub001/internal/tasks"
)

func TestStripeEventStatus(t *testing.T) {
	assert.Equal(t, "paid", stripeEventStatus("checkout.session.completed"))
	assert.Equal(t, "unpaid", stripeEventStatus("checkout.session.expired"))
	assert.Equal(t, "", stripeEventStatus("payment_intent.succeeded"))
}

func TestDecodeEnvelope_ValidPayload(t *testing.T) {
	env, err := tasks.BuildEnvelope("task_1", tasks.NameExpireHold, tasks.ExpireHoldPayload{
		PropertyID: "prop_1",
		HoldID:     "hold_1",
	})
	require.NoError(t, err)

	body, err := json.Marshal(env)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/tasks/holds/expire", bytes.NewReader(body))

	var payload tasks.ExpireHoldPayload
	gotEnv, err := decodeEnvelope(req, &payload)
	require.NoError(t, err)

	assert.Equal(t, "task_1", gotEnv.TaskID)
	assert.Equal(t, "prop_1", payload.PropertyID)
	assert.Equal(t, "hold_1", payload.HoldID)
}

func TestDecodeEnvelope_InvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/tasks/holds/expire", bytes.NewReader([]byte("not json")))

	var payload tasks.ExpireHoldPayload
	_, err := decodeEnvelope(req, &payload)
	require.Error(t, err)
}

func TestDecodeEnvelope_PayloadMismatch(t *testing.T) {
	body, err := json.Marshal(map[string]any{
		"version":   tasks.EnvelopeVersion,
		"task_name": tasks.NameExpireHold,
		"task_id":   "task_1",
		"payload":   "not-an-object",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/tasks/holds/expire", bytes.NewReader(body))
	var payload tasks.ExpireHoldPayload
	_, err = decodeEnvelope(req, &payload)
	require.Error(t, err)
	appErr, ok := asAppErr(err)
	require.True(t, ok)
	assert.Equal(t, "invalid_envelope_payload", appErr.Code)
}
