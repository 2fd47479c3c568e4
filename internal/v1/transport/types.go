// Package transport implements the event channel and dispatcher (spec C6):
// the inbound/outbound event envelope, the tagged-union handler table that
// binds event names to C4/C5 mutations, and the per-session WebSocket
// connection that carries them. Grounded on the teacher's
// session.Client/transport.Client readPump/writePump shape, swapped from a
// protobuf oneof wire format to JSON frames (Design Note §9), and on
// session.Router's type-switch dispatch, swapped for a handler table keyed
// by event name.
package transport

import (
	"encoding/json"
	"fmt"
	"math"
)

// Envelope is the wire shape of every application message: a named event
// plus a single JSON payload object (spec §6 Channel protocol).
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// FlexID accepts either a JSON number or a numeric string for an id field,
// so the dispatcher tolerates JSON clients that send ids as strings (spec
// §4.6: "coerces string numerics to integers"). A value that is not a
// finite integer fails to unmarshal, which the dispatcher reports as
// BAD_REQUEST.
type FlexID int64

// UnmarshalJSON implements json.Unmarshaler. json.Number's underlying type
// is string, so decoding into it directly accepts both a bare JSON number
// (123) and a quoted numeric string ("123") without a second pass.
func (f *FlexID) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a number or numeric string")
	}
	v, err := n.Float64()
	if err != nil {
		return fmt.Errorf("id must be numeric: %w", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return fmt.Errorf("id must be a finite integer")
	}
	*f = FlexID(int64(v))
	return nil
}

// Int64 returns f as an int64, for the room registry / match engine which
// key their state by numeric room id.
func (f FlexID) Int64() int64 { return int64(f) }

// String returns f as a decimal string, for the deck loader which keys
// decks by string id (spec §1: deck identity is an external concern).
func (f FlexID) String() string { return fmt.Sprintf("%d", int64(f)) }

// Payload shapes for each inbound event (spec §6 Event payload shapes).
type createRoomPayload struct {
	DeckID FlexID `json:"deckId"`
}

type joinRoomPayload struct {
	RoomID FlexID `json:"roomId"`
	DeckID FlexID `json:"deckId"`
}

type roomOnlyPayload struct {
	RoomID FlexID `json:"roomId"`
}

type playCardPayload struct {
	RoomID    FlexID `json:"roomId"`
	CardIndex int    `json:"cardIndex"`
}
