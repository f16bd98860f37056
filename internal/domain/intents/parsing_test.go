package intents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var reference = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestParseIntent_DateRangeAndRoomType(t *testing.T) {
	p := ParseIntent("quero do dia 10/08 a 15/08 uma suite para 2 adultos", nil, reference)
	assert.NotNil(t, p.Checkin)
	assert.NotNil(t, p.Checkout)
	assert.Equal(t, 10, p.Checkin.Day())
	assert.Equal(t, 15, p.Checkout.Day())
	assert.Equal(t, "rt_suite", *p.RoomTypeID)
	assert.Equal(t, 2, *p.AdultCount)
	assert.True(t, p.IsComplete())
}

func TestParseIntent_MissingFieldsAreReported(t *testing.T) {
	p := ParseIntent("ola, gostaria de fazer uma reserva", nil, reference)
	assert.Nil(t, p.Checkin)
	assert.Nil(t, p.RoomTypeID)
	assert.Contains(t, p.Missing, "checkin")
	assert.Contains(t, p.Missing, "checkout")
	assert.Contains(t, p.Missing, "room_type")
	assert.Contains(t, p.Missing, "adult_count")
}

func TestParseIntent_ChildrenAgesStandalone(t *testing.T) {
	p := ParseIntent("8 e 10", nil, reference)
	assert.Equal(t, []int{8, 10}, p.ChildrenAges)
}

func TestParseIntent_ChildrenAgesWithKeyword(t *testing.T) {
	p := ParseIntent("2 criancas de 5 e 9 anos", nil, reference)
	assert.Equal(t, []int{5, 9}, p.ChildrenAges)
	assert.NotContains(t, p.Missing, "children_ages")
}

func TestParseIntent_InvertedDatesAreRejected(t *testing.T) {
	p := ParseIntent("do dia 15/08 a 10/08", nil, reference)
	assert.Nil(t, p.Checkin)
	assert.Nil(t, p.Checkout)
}

func TestParseIntent_GuestCountFallsBackToAdultCount(t *testing.T) {
	p := ParseIntent("somos 3 pessoas", nil, reference)
	if assert.NotNil(t, p.AdultCount) {
		assert.Equal(t, 3, *p.AdultCount)
	}
}

func TestMerge_LayersNonNilFields(t *testing.T) {
	checkin := reference
	base := ParsedIntent{Checkin: &checkin, Missing: []string{"checkout", "room_type", "adult_count"}}
	roomType := "rt_casal"
	next := ParsedIntent{RoomTypeID: &roomType}
	merged := Merge(base, next)
	assert.Equal(t, &checkin, merged.Checkin)
	assert.Equal(t, &roomType, merged.RoomTypeID)
	assert.Contains(t, merged.Missing, "checkout")
	assert.NotContains(t, merged.Missing, "room_type")
}
