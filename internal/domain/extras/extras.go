// Package extras computes the snapshot total for a catalog extra
// consumed on a reservation (spec §3 Reservation Extra).
package extras

import "github.com/marcioluisms/hotelly2-sub001/internal/apperr"

// PricingMode is one of the four ways a catalog extra's unit price is
// scaled into a reservation-level total.
type PricingMode string

const (
	ModePerUnit          PricingMode = "PER_UNIT"
	ModePerNight         PricingMode = "PER_NIGHT"
	ModePerGuest         PricingMode = "PER_GUEST"
	ModePerGuestPerNight PricingMode = "PER_GUEST_PER_NIGHT"
)

// CalculateTotal computes total_price_cents for one reservation extra
// line under the given mode.
func CalculateTotal(mode PricingMode, unitPriceCents int64, quantity, nights, totalGuests int) (int64, error) {
	if unitPriceCents < 0 {
		return 0, apperr.Validation("invalid_unit_price", "unit_price_cents must be >= 0")
	}
	if quantity < 1 {
		return 0, apperr.Validation("invalid_quantity", "quantity must be >= 1")
	}
	if nights < 1 {
		return 0, apperr.Validation("invalid_nights", "nights must be >= 1")
	}
	if totalGuests < 1 {
		return 0, apperr.Validation("invalid_total_guests", "total_guests must be >= 1")
	}

	switch mode {
	case ModePerUnit:
		return unitPriceCents * int64(quantity), nil
	case ModePerNight:
		return unitPriceCents * int64(quantity) * int64(nights), nil
	case ModePerGuest:
		return unitPriceCents * int64(quantity) * int64(totalGuests), nil
	case ModePerGuestPerNight:
		return unitPriceCents * int64(quantity) * int64(totalGuests) * int64(nights), nil
	default:
		return 0, apperr.Validation("invalid_pricing_mode", "unknown extra pricing mode")
	}
}
