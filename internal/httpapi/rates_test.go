package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcioluisms/hotelly2-sub001/internal/domain/pricing"
)

func TestRateDayWireRoundTrip(t *testing.T) {
	price := int64(12000)
	row := pricing.RateDay{
		RoomTypeID:    "rt_casal",
		Date:          time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Price1Pax:     &price,
		ClosedCheckin: true,
	}

	wire := rateDayToWire(row)
	assert.Equal(t, "2026-08-01", wire.Date)
	assert.Equal(t, &price, wire.Price1Pax)
	assert.True(t, wire.ClosedCheckin)

	back, err := rateDayFromWire(wire)
	require.NoError(t, err)
	assert.Equal(t, row.RoomTypeID, back.RoomTypeID)
	assert.True(t, row.Date.Equal(back.Date))
	assert.Equal(t, row.Price1Pax, back.Price1Pax)
}

func TestRateDayFromWire_MissingRoomTypeID(t *testing.T) {
	_, err := rateDayFromWire(rateDayWire{Date: "2026-08-01"})
	require.Error(t, err)
	appErr, ok := asAppErr(err)
	require.True(t, ok)
	assert.Equal(t, "missing_room_type_id", appErr.Code)
}

func TestRateDayFromWire_InvalidDate(t *testing.T) {
	_, err := rateDayFromWire(rateDayWire{RoomTypeID: "rt_casal", Date: "not-a-date"})
	require.Error(t, err)
	appErr, ok := asAppErr(err)
	require.True(t, ok)
	assert.Equal(t, "invalid_date", appErr.Code)
}

func TestHandleGetRates_MissingDateRange_Returns422(t *testing.T) {
	handler := handleGetRates(APIDeps{})

	req := httptest.NewRequest(http.MethodGet, "/rates", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleGetRates_InvalidStartDate_Returns422(t *testing.T) {
	handler := handleGetRates(APIDeps{})

	req := httptest.NewRequest(http.MethodGet, "/rates?start_date=not-a-date&end_date=2026-08-03", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
