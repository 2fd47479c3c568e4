package match

import "github.com/cardduel/server/internal/v1/deck"

// View is the per-recipient asymmetric projection of a GameState (spec
// §3 GameStateView, Design Note §9: "must not be a type cast of the full
// state; implement as a pure projection that structurally omits the
// opponent's private fields"). There is no field here that could ever
// carry the opponent's hand or deck contents.
type View struct {
	MyHand       []deck.Card `json:"myHand"`
	MyActive     *deck.Card  `json:"myActive"`
	MyDeckCount  int         `json:"myDeckCount"`
	MyScore      int         `json:"myScore"`
	OpponentActive    *deck.Card `json:"opponentActive"`
	OpponentDeckCount int        `json:"opponentDeckCount"`
	OpponentScore     int        `json:"opponentScore"`
	CurrentPlayerSessionID string `json:"currentPlayerSessionId"`
}

// viewFor builds the View for the recipient playing role. It only ever reads the
// recipient's own hand; the opponent's hand field does not exist on
// View, so there is no code path that could serialize it.
func viewFor(g *GameState, role Role) View {
	opponent := role.opponent()
	return View{
		MyHand:                  copyCards(g.hand(role)),
		MyActive:                g.active(role),
		MyDeckCount:             len(g.deckOf(role)),
		MyScore:                 g.score(role),
		OpponentActive:          g.active(opponent),
		OpponentDeckCount:       len(g.deckOf(opponent)),
		OpponentScore:           g.score(opponent),
		CurrentPlayerSessionID:  g.CurrentPlayerSessionID,
	}
}

func (r Role) opponent() Role {
	if r == RoleHost {
		return RoleGuest
	}
	return RoleHost
}

func copyCards(cards []deck.Card) []deck.Card {
	out := make([]deck.Card, len(cards))
	copy(out, cards)
	return out
}

// Views bundles the two per-recipient views emitted after a mutation
// that affects both players (spec §4.6 gameStateUpdated).
type Views struct {
	Host  View
	Guest View
}

func viewsFor(g *GameState) Views {
	return Views{Host: viewFor(g, RoleHost), Guest: viewFor(g, RoleGuest)}
}

// Ended describes a natural match termination (spec §4.5: "If either
// score reaches 3, the match transitions to terminated").
type Ended struct {
	WinnerSessionID string
	HostScore       int
	GuestScore      int
}
