package tasks

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEnvelope_RoundTripsPayload(t *testing.T) {
	env, err := BuildEnvelope("task_1", NameExpireHold, ExpireHoldPayload{
		PropertyID: "prop_1",
		HoldID:     "hold_1",
	})
	require.NoError(t, err)

	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.Equal(t, NameExpireHold, env.TaskName)
	assert.Equal(t, "task_1", env.TaskID)

	var payload ExpireHoldPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "prop_1", payload.PropertyID)
	assert.Equal(t, "hold_1", payload.HoldID)
}
