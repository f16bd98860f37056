// Package templates renders the closed set of outbound message
// templates a conversation turn can produce, keeping every parameter
// a typed, enumerated, non-PII value per spec §6's outbox payload
// shape. It is the only place that turns a template key + params map
// into guest-facing text.
package templates

import "fmt"

// Keys for the prompt templates conversations.PromptKeys maps missing
// fields onto, plus the two system-generated templates (quote,
// reservation confirmation).
const (
	KeyAskCheckin           = "prompt_ask_checkin"
	KeyAskCheckout          = "prompt_ask_checkout"
	KeyAskRoomType          = "prompt_ask_room_type"
	KeyAskAdultCount        = "prompt_ask_adult_count"
	KeyAskChildrenAges      = "prompt_ask_children_ages"
	KeyQuoteReady           = "quote_ready"
	KeyUnavailable          = "stay_unavailable"
	KeyReservationConfirmed = "reservation_confirmed"
)

// Params is the typed, non-PII parameter bag every template renders
// from. Every field is optional; a template only reads the ones it
// needs.
type Params struct {
	PropertyName   string
	GuestFirstName string
	Checkin        string
	Checkout       string
	RoomTypeName   string
	TotalCents     int64
	Currency       string
}

// Render turns a template key and its parameters into guest-facing
// text. An unknown key renders a generic fallback rather than erroring,
// since a missing template must never block delivery of *something* to
// the guest.
func Render(key string, p Params) string {
	switch key {
	case KeyAskCheckin:
		return "Para qual data você gostaria de fazer o check-in?"
	case KeyAskCheckout:
		return "E para qual data seria o check-out?"
	case KeyAskRoomType:
		return "Qual tipo de quarto você prefere?"
	case KeyAskAdultCount:
		return "Quantos adultos ficarão na reserva?"
	case KeyAskChildrenAges:
		return "Há crianças na reserva? Se sim, qual a idade de cada uma?"
	case KeyQuoteReady:
		return fmt.Sprintf("Sua estadia de %s a %s fica em %s %s.", p.Checkin, p.Checkout, p.Currency, formatCents(p.TotalCents))
	case KeyUnavailable:
		return "Infelizmente não temos disponibilidade para as datas informadas."
	case KeyReservationConfirmed:
		greeting := "Sua reserva"
		if p.GuestFirstName != "" {
			greeting = fmt.Sprintf("%s, sua reserva", p.GuestFirstName)
		}
		return fmt.Sprintf("%s em %s de %s a %s está confirmada!", greeting, p.PropertyName, p.Checkin, p.Checkout)
	default:
		return "Obrigado pela sua mensagem."
	}
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d,%02d", cents/100, cents%100)
}
