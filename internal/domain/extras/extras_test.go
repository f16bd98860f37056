package extras

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTotal_PerUnit(t *testing.T) {
	total, err := CalculateTotal(ModePerUnit, 1500, 3, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4500), total)
}

func TestCalculateTotal_PerNight(t *testing.T) {
	total, err := CalculateTotal(ModePerNight, 1000, 2, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), total)
}

func TestCalculateTotal_PerGuest(t *testing.T) {
	total, err := CalculateTotal(ModePerGuest, 500, 1, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), total)
}

func TestCalculateTotal_PerGuestPerNight(t *testing.T) {
	total, err := CalculateTotal(ModePerGuestPerNight, 200, 1, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), total)
}

func TestCalculateTotal_RejectsInvalidInputs(t *testing.T) {
	_, err := CalculateTotal(ModePerUnit, -1, 1, 1, 1)
	assert.Error(t, err)

	_, err = CalculateTotal(ModePerUnit, 100, 0, 1, 1)
	assert.Error(t, err)

	_, err = CalculateTotal(ModePerUnit, 100, 1, 0, 1)
	assert.Error(t, err)

	_, err = CalculateTotal(ModePerUnit, 100, 1, 1, 0)
	assert.Error(t, err)

	_, err = CalculateTotal("NOT_A_MODE", 100, 1, 1, 1)
	assert.Error(t, err)
}
