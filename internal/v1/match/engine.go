package match

import (
	"github.com/cardduel/server/internal/v1/deck"
	"github.com/cardduel/server/internal/v1/typechart"
)

// Result is returned by every action. Ended is non-nil exactly when the
// action caused the match to terminate, in which case Views is the zero
// value — gameEnded is emitted instead of gameStateUpdated (spec §4.5).
type Result struct {
	Views Views
	Ended *Ended
}

// Start initializes the game-state for a newly promoted room (spec
// §4.5 Initialization) and returns the initial per-recipient views.
// gameStarted carries no views, so the room registry discards them.
func (e *Engine) Start(roomID int64, hostSessionID, guestSessionID string, hostCards, guestCards []deck.Card) Views {
	e.mu.Lock()
	defer e.mu.Unlock()

	g := newGameState(hostSessionID, guestSessionID, hostCards, guestCards)
	e.states[roomID] = g
	return viewsFor(g)
}

// Remove tears down the game-state for roomID, if any. Idempotent, safe
// to call even if no match is in progress (spec §5 Resource release).
func (e *Engine) Remove(roomID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.states, roomID)
}

// DrawCards implements spec §4.5 Action: drawCards.
func (e *Engine) DrawCards(roomID int64, actorSessionID string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, role, err := e.currentPlayer(roomID, actorSessionID)
	if err != nil {
		return Result{}, err
	}

	hand := g.hand(role)
	d := g.deckOf(role)
	for len(hand) < maxHandSize && len(d) > 0 {
		last := d[len(d)-1]
		d = d[:len(d)-1]
		hand = append(hand, last)
	}
	g.setHand(role, hand)
	g.setDeck(role, d)

	return Result{Views: viewsFor(g)}, nil
}

// PlayCard implements spec §4.5 Action: playCard(cardIndex).
func (e *Engine) PlayCard(roomID int64, actorSessionID string, cardIndex int) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, role, err := e.currentPlayer(roomID, actorSessionID)
	if err != nil {
		return Result{}, err
	}

	hand := g.hand(role)
	if cardIndex < 0 || cardIndex >= len(hand) {
		return Result{}, ErrInvalidIndex
	}
	if g.active(role) != nil {
		return Result{}, ErrAlreadyActive
	}

	card := hand[cardIndex]
	remaining := make([]deck.Card, 0, len(hand)-1)
	remaining = append(remaining, hand[:cardIndex]...)
	remaining = append(remaining, hand[cardIndex+1:]...)
	g.setHand(role, remaining)
	g.setActive(role, &card)

	return Result{Views: viewsFor(g)}, nil
}

// Attack implements spec §4.5 Action: attack.
func (e *Engine) Attack(roomID int64, actorSessionID string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, role, err := e.currentPlayer(roomID, actorSessionID)
	if err != nil {
		return Result{}, err
	}

	opponent := role.opponent()
	attacker := g.active(role)
	defender := g.active(opponent)
	if attacker == nil || defender == nil {
		return Result{}, ErrNoActive
	}

	d := typechart.Damage(attacker.Attack, attacker.Type, defender.Type)
	defender.HP -= d
	if defender.HP <= 0 {
		g.setActive(opponent, nil)
		g.incScore(role)
	}

	g.CurrentPlayerSessionID = g.opponentSessionID(role)

	if g.score(role) >= winningScore {
		ended := &Ended{
			WinnerSessionID: sessionIDFor(g, role),
			HostScore:       g.HostScore,
			GuestScore:      g.GuestScore,
		}
		delete(e.states, roomID)
		return Result{Ended: ended}, nil
	}

	return Result{Views: viewsFor(g)}, nil
}

// EndTurn implements spec §4.5 Action: endTurn.
func (e *Engine) EndTurn(roomID int64, actorSessionID string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, role, err := e.currentPlayer(roomID, actorSessionID)
	if err != nil {
		return Result{}, err
	}

	g.CurrentPlayerSessionID = g.opponentSessionID(role)
	return Result{Views: viewsFor(g)}, nil
}

// currentPlayer looks up the game-state for roomID and validates that
// actorSessionID is both a participant and the current player.
func (e *Engine) currentPlayer(roomID int64, actorSessionID string) (*GameState, Role, error) {
	g, ok := e.states[roomID]
	if !ok {
		return nil, "", ErrNotFound
	}
	role, ok := g.roleOf(actorSessionID)
	if !ok || g.CurrentPlayerSessionID != actorSessionID {
		return nil, "", ErrNotYourTurn
	}
	return g, role, nil
}

func sessionIDFor(g *GameState, role Role) string {
	if role == RoleHost {
		return g.HostSessionID
	}
	return g.GuestSessionID
}
