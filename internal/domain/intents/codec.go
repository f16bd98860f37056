package intents

import (
	"encoding/json"
	"time"
)

// wireIntent is the JSON shape ParsedIntent is persisted as in a
// conversation's `context` jsonb column. Dates are serialized as plain
// calendar dates, matching §6's "dates are calendar dates" rule.
type wireIntent struct {
	Checkin      *string `json:"checkin,omitempty"`
	Checkout     *string `json:"checkout,omitempty"`
	RoomTypeID   *string `json:"room_type_id,omitempty"`
	AdultCount   *int    `json:"adult_count,omitempty"`
	ChildrenAges []int   `json:"children_ages,omitempty"`
}

const dateLayout = "2006-01-02"

// MarshalContext encodes p into the JSON bytes stored in
// conversations.context.
func MarshalContext(p ParsedIntent) ([]byte, error) {
	w := wireIntent{
		RoomTypeID:   p.RoomTypeID,
		AdultCount:   p.AdultCount,
		ChildrenAges: p.ChildrenAges,
	}
	if p.Checkin != nil {
		s := p.Checkin.Format(dateLayout)
		w.Checkin = &s
	}
	if p.Checkout != nil {
		s := p.Checkout.Format(dateLayout)
		w.Checkout = &s
	}
	return json.Marshal(w)
}

// UnmarshalContext decodes a conversation's stored context back into a
// ParsedIntent, recomputing Missing with computeMissing's fixed field
// order. An empty or null raw value decodes to a zero
// ParsedIntent (every field missing).
func UnmarshalContext(raw []byte) (ParsedIntent, error) {
	if len(raw) == 0 || string(raw) == "null" {
		p := ParsedIntent{}
		p.Missing = computeMissing(p)
		return p, nil
	}
	var w wireIntent
	if err := json.Unmarshal(raw, &w); err != nil {
		return ParsedIntent{}, err
	}
	p := ParsedIntent{
		RoomTypeID:   w.RoomTypeID,
		AdultCount:   w.AdultCount,
		ChildrenAges: w.ChildrenAges,
	}
	if w.Checkin != nil {
		if t, err := time.Parse(dateLayout, *w.Checkin); err == nil {
			p.Checkin = &t
		}
	}
	if w.Checkout != nil {
		if t, err := time.Parse(dateLayout, *w.Checkout); err == nil {
			p.Checkout = &t
		}
	}
	p.Missing = computeMissing(p)
	return p, nil
}
