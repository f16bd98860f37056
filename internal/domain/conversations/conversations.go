// Package conversations implements the Conversation State Machine
// (spec §4.D): a strictly forward-moving chain of states that advances
// by one step per inbound message (Upsert), jumps straight to its
// terminal state once the merged booking context is complete
// (MergeContext), and stays pinned there.
package conversations

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/marcioluisms/hotelly2-sub001/internal/domain/intents"
)

// State is one of the conversation's four states, in forward order.
type State string

const (
	StateStart              State = "start"
	StateCollectingDates    State = "collecting_dates"
	StateCollectingRoomType State = "collecting_room_type"
	StateReadyToQuote       State = "ready_to_quote"
)

// transitions encodes the single forward step from each state; the
// terminal state maps to itself, matching the teacher's table-driven
// dispatch style used for mapping HotelBeds error codes.
var transitions = map[State]State{
	StateStart:              StateCollectingDates,
	StateCollectingDates:    StateCollectingRoomType,
	StateCollectingRoomType: StateReadyToQuote,
	StateReadyToQuote:       StateReadyToQuote,
}

// Next returns the state one step after current.
func Next(current State) State {
	if next, ok := transitions[current]; ok {
		return next
	}
	return current
}

// Conversation is the row shape returned by Upsert/Get.
type Conversation struct {
	ID          string
	PropertyID  string
	Channel     string
	ContactHash string
	State       State
	Context     intents.ParsedIntent
}

// Upsert finds or creates the conversation for (propertyID, channel,
// contactHash) and advances its state by one step, per spec §4.D. It
// returns the conversation after the transition and whether it was
// newly created.
func Upsert(ctx context.Context, tx pgx.Tx, propertyID, channel, contactHash string) (Conversation, bool, error) {
	var id string
	var current State
	var rawContext []byte
	err := tx.QueryRow(ctx, `
		SELECT id, state, context FROM conversations
		WHERE property_id = $1 AND channel = $2 AND contact_hash = $3
		FOR UPDATE
	`, propertyID, channel, contactHash).Scan(&id, &current, &rawContext)

	if err == pgx.ErrNoRows {
		err = tx.QueryRow(ctx, `
			INSERT INTO conversations (property_id, channel, contact_hash, state, context, created_at, updated_at)
			VALUES ($1, $2, $3, $4, '{}'::jsonb, now(), now())
			RETURNING id
		`, propertyID, channel, contactHash, StateStart).Scan(&id)
		if err != nil {
			return Conversation{}, false, err
		}
		empty, _ := intents.UnmarshalContext(nil)
		return Conversation{ID: id, PropertyID: propertyID, Channel: channel, ContactHash: contactHash, State: StateStart, Context: empty}, true, nil
	}
	if err != nil {
		return Conversation{}, false, err
	}

	next := Next(current)
	if next != current {
		_, err = tx.Exec(ctx, `
			UPDATE conversations SET state = $1, updated_at = now() WHERE id = $2
		`, next, id)
		if err != nil {
			return Conversation{}, false, err
		}
	}

	parsedContext, err := intents.UnmarshalContext(rawContext)
	if err != nil {
		return Conversation{}, false, err
	}

	return Conversation{ID: id, PropertyID: propertyID, Channel: channel, ContactHash: contactHash, State: next, Context: parsedContext}, false, nil
}

// Get loads a conversation by id, for callers (e.g. the whatsapp
// message-handling task) that already know which conversation a
// message belongs to and don't need Upsert's find-or-create/advance
// behaviour.
func Get(ctx context.Context, tx pgx.Tx, conversationID string) (Conversation, error) {
	var c Conversation
	var rawContext []byte
	err := tx.QueryRow(ctx, `
		SELECT id, property_id, channel, contact_hash, state, context
		FROM conversations
		WHERE id = $1
	`, conversationID).Scan(&c.ID, &c.PropertyID, &c.Channel, &c.ContactHash, &c.State, &rawContext)
	if err != nil {
		return Conversation{}, err
	}
	c.Context, err = intents.UnmarshalContext(rawContext)
	if err != nil {
		return Conversation{}, err
	}
	return c, nil
}

// MergeContext layers a freshly-parsed intent onto the conversation's
// accumulated context, persists it, and sets the state to
// StateReadyToQuote whenever the merged intent is complete; otherwise
// the state is left as Upsert set it. It returns the merged intent and the prompt
// template key for the first field still missing, or "" once the
// intent is complete and ready for pricing.
func MergeContext(ctx context.Context, tx pgx.Tx, conv Conversation, fresh intents.ParsedIntent) (intents.ParsedIntent, string, error) {
	merged := intents.Merge(conv.Context, fresh)

	raw, err := intents.MarshalContext(merged)
	if err != nil {
		return intents.ParsedIntent{}, "", err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE conversations SET context = $1, updated_at = now() WHERE id = $2
	`, raw, conv.ID); err != nil {
		return intents.ParsedIntent{}, "", err
	}

	if merged.IsComplete() {
		if _, err := tx.Exec(ctx, `
			UPDATE conversations SET state = $1, updated_at = now() WHERE id = $2
		`, StateReadyToQuote, conv.ID); err != nil {
			return intents.ParsedIntent{}, "", err
		}
		return merged, "", nil
	}

	return merged, NextPrompt(merged.Missing), nil
}

// MissingFieldOrder is the fixed order the state machine checks booking
// context fields in when deciding the next prompt, per spec §4.D's
// "first missing field in a fixed order produces a corresponding prompt
// template key."
var MissingFieldOrder = []string{"checkin", "checkout", "room_type", "adult_count", "children_ages"}

// PromptKeys maps each field name to its prompt template key.
var PromptKeys = map[string]string{
	"checkin":       "prompt_ask_checkin",
	"checkout":      "prompt_ask_checkout",
	"room_type":     "prompt_ask_room_type",
	"adult_count":   "prompt_ask_adult_count",
	"children_ages": "prompt_ask_children_ages",
}

// NextPrompt returns the template key for the first missing field in
// MissingFieldOrder, or "" if missing has no entries from that set.
func NextPrompt(missing []string) string {
	missingSet := make(map[string]bool, len(missing))
	for _, m := range missing {
		missingSet[m] = true
	}
	for _, field := range MissingFieldOrder {
		if missingSet[field] {
			return PromptKeys[field]
		}
	}
	return ""
}
