// Package match implements the per-room turn-based duel state machine
// (spec C5): initialization, action handlers, and asymmetric view
// projection. The teacher has no card-game analog for this package; its
// turn/phase machine is grounded on the Tien Len match engine pattern
// (handleStartGame/handlePlayCards-style validated mutators plus a
// Fisher-Yates shuffle) found in the retrieval pack's other_examples.
package match

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/cardduel/server/internal/v1/deck"
)

const maxHandSize = 5
const winningScore = 3

// Role identifies which side of a match a session is on.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Errors surfaced to the offending session as error{event, message}
// (spec §7), never torn down the channel.
var (
	ErrNotYourTurn   = errors.New("NOT_YOUR_TURN")
	ErrInvalidIndex  = errors.New("INVALID_INDEX")
	ErrAlreadyActive = errors.New("ALREADY_ACTIVE")
	ErrNoActive      = errors.New("CONFLICT")
	ErrNotFound      = errors.New("NOT_FOUND")
)

// GameState is the authoritative, mutable state for one in-game room
// (spec §3). Card slices are drawn from the tail to keep shuffle-order
// semantics (spec §4.5).
type GameState struct {
	HostSessionID, GuestSessionID string

	HostDeck, GuestDeck []deck.Card
	HostHand, GuestHand []deck.Card
	HostActive          *deck.Card
	GuestActive         *deck.Card
	HostScore           int
	GuestScore          int

	CurrentPlayerSessionID string
}

// newGameState builds the initial state for a freshly started match:
// each player's deck is independently shuffled, hands empty, no active
// card, scores zero, host moves first (spec §4.5 Initialization).
func newGameState(hostSessionID, guestSessionID string, hostCards, guestCards []deck.Card) *GameState {
	hostDeck := shuffledCopy(hostCards)
	guestDeck := shuffledCopy(guestCards)

	return &GameState{
		HostSessionID:          hostSessionID,
		GuestSessionID:         guestSessionID,
		HostDeck:               hostDeck,
		GuestDeck:              guestDeck,
		CurrentPlayerSessionID: hostSessionID,
	}
}

// shuffledCopy returns a uniformly permuted copy of cards (Fisher-Yates),
// leaving the input slice untouched.
func shuffledCopy(cards []deck.Card) []deck.Card {
	out := make([]deck.Card, len(cards))
	copy(out, cards)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// roleOf reports which role sessionID plays in this state.
func (g *GameState) roleOf(sessionID string) (Role, bool) {
	switch sessionID {
	case g.HostSessionID:
		return RoleHost, true
	case g.GuestSessionID:
		return RoleGuest, true
	default:
		return "", false
	}
}

func (g *GameState) opponentSessionID(role Role) string {
	if role == RoleHost {
		return g.GuestSessionID
	}
	return g.HostSessionID
}

func (g *GameState) hand(role Role) []deck.Card {
	if role == RoleHost {
		return g.HostHand
	}
	return g.GuestHand
}

func (g *GameState) setHand(role Role, hand []deck.Card) {
	if role == RoleHost {
		g.HostHand = hand
	} else {
		g.GuestHand = hand
	}
}

func (g *GameState) deckOf(role Role) []deck.Card {
	if role == RoleHost {
		return g.HostDeck
	}
	return g.GuestDeck
}

func (g *GameState) setDeck(role Role, d []deck.Card) {
	if role == RoleHost {
		g.HostDeck = d
	} else {
		g.GuestDeck = d
	}
}

func (g *GameState) active(role Role) *deck.Card {
	if role == RoleHost {
		return g.HostActive
	}
	return g.GuestActive
}

func (g *GameState) setActive(role Role, c *deck.Card) {
	if role == RoleHost {
		g.HostActive = c
	} else {
		g.GuestActive = c
	}
}

func (g *GameState) score(role Role) int {
	if role == RoleHost {
		return g.HostScore
	}
	return g.GuestScore
}

func (g *GameState) incScore(role Role) {
	if role == RoleHost {
		g.HostScore++
	} else {
		g.GuestScore++
	}
}

// Engine owns every in-progress GameState, keyed by room id (spec §3
// Ownership: "the match engine (C5) owns game-states keyed by room-id").
type Engine struct {
	mu     sync.Mutex
	states map[int64]*GameState
}

// NewEngine builds an empty match engine.
func NewEngine() *Engine {
	return &Engine{states: make(map[int64]*GameState)}
}
