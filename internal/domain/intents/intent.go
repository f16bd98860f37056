// Package intents models the parsed result of an inbound message, fed
// into the Conversation State Machine's context merge step (spec §4.D).
package intents

import "time"

// ParsedIntent carries only parsed metadata extracted from a message,
// never the raw text itself, per the system's PII boundary.
type ParsedIntent struct {
	Checkin      *time.Time
	Checkout     *time.Time
	RoomTypeID   *string
	AdultCount   *int
	ChildrenAges []int
	Missing      []string
}

// HasDates reports whether both checkin and checkout were parsed.
func (p ParsedIntent) HasDates() bool {
	return p.Checkin != nil && p.Checkout != nil
}

// IsComplete reports whether every required field was parsed.
func (p ParsedIntent) IsComplete() bool {
	return len(p.Missing) == 0
}

// Merge layers fresh fields from next on top of base, preferring next's
// values where present, matching the context-accumulation behaviour
// described in spec §4.D.
func Merge(base, next ParsedIntent) ParsedIntent {
	merged := base
	if next.Checkin != nil {
		merged.Checkin = next.Checkin
	}
	if next.Checkout != nil {
		merged.Checkout = next.Checkout
	}
	if next.RoomTypeID != nil {
		merged.RoomTypeID = next.RoomTypeID
	}
	if next.AdultCount != nil {
		merged.AdultCount = next.AdultCount
	}
	if len(next.ChildrenAges) > 0 {
		merged.ChildrenAges = next.ChildrenAges
	}
	merged.Missing = computeMissing(merged)
	return merged
}

func computeMissing(p ParsedIntent) []string {
	var missing []string
	if p.Checkin == nil {
		missing = append(missing, "checkin")
	}
	if p.Checkout == nil {
		missing = append(missing, "checkout")
	}
	if p.RoomTypeID == nil {
		missing = append(missing, "room_type")
	}
	if p.AdultCount == nil {
		missing = append(missing, "adult_count")
	}
	if len(p.ChildrenAges) == 0 {
		// Children are optional; absence alone is never "missing".
		// Only an explicit, ambiguous mention (handled by the parser)
		// produces a "children_ages" entry in Missing.
	}
	return missing
}
