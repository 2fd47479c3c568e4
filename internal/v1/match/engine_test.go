package match

import (
	"testing"

	"github.com/cardduel/server/internal/v1/deck"
	"github.com/cardduel/server/internal/v1/typechart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenCards(attack, hp int, typ typechart.Type) []deck.Card {
	cards := make([]deck.Card, 10)
	for i := range cards {
		cards[i] = deck.Card{ID: "c", Name: "Card", HP: hp, Attack: attack, Type: typ}
	}
	return cards
}

func TestStart_Initialization(t *testing.T) {
	e := NewEngine()
	views := e.Start(1, "host-sess", "guest-sess", tenCards(10, 50, typechart.Fire), tenCards(10, 50, typechart.Grass))

	assert.Equal(t, 10, views.Host.MyDeckCount)
	assert.Equal(t, 10, views.Guest.MyDeckCount)
	assert.Empty(t, views.Host.MyHand)
	assert.Equal(t, "host-sess", views.Host.CurrentPlayerSessionID)
}

func TestDrawCards_FillsToFive(t *testing.T) {
	e := NewEngine()
	e.Start(1, "host-sess", "guest-sess", tenCards(10, 50, typechart.Fire), tenCards(10, 50, typechart.Grass))

	result, err := e.DrawCards(1, "host-sess")
	require.NoError(t, err)
	assert.Len(t, result.Views.Host.MyHand, maxHandSize)
	assert.Equal(t, 5, result.Views.Host.MyDeckCount)
}

func TestDrawCards_NotYourTurn(t *testing.T) {
	e := NewEngine()
	e.Start(1, "host-sess", "guest-sess", tenCards(10, 50, typechart.Fire), tenCards(10, 50, typechart.Grass))

	_, err := e.DrawCards(1, "guest-sess")
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestPlayCard_InvalidIndex(t *testing.T) {
	e := NewEngine()
	e.Start(1, "host-sess", "guest-sess", tenCards(10, 50, typechart.Fire), tenCards(10, 50, typechart.Grass))
	e.DrawCards(1, "host-sess")

	_, err := e.PlayCard(1, "host-sess", 99)
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestPlayCard_AlreadyActive(t *testing.T) {
	e := NewEngine()
	e.Start(1, "host-sess", "guest-sess", tenCards(10, 50, typechart.Fire), tenCards(10, 50, typechart.Grass))
	e.DrawCards(1, "host-sess")

	_, err := e.PlayCard(1, "host-sess", 0)
	require.NoError(t, err)

	_, err = e.PlayCard(1, "host-sess", 0)
	assert.ErrorIs(t, err, ErrAlreadyActive)
}

func TestAttack_TypeAdvantageAndScore(t *testing.T) {
	e := NewEngine()
	e.Start(1, "host-sess", "guest-sess", tenCards(50, 50, typechart.Fire), tenCards(10, 60, typechart.Grass))

	e.DrawCards(1, "host-sess")
	e.PlayCard(1, "host-sess", 0)
	e.EndTurn(1, "host-sess")
	e.DrawCards(1, "guest-sess")
	e.PlayCard(1, "guest-sess", 0)
	e.EndTurn(1, "guest-sess")

	result, err := e.Attack(1, "host-sess")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Views.Host.MyScore, "Fire beats Grass, 50*2=100 >= 60 hp")
	assert.Nil(t, result.Views.Host.OpponentActive, "expected opponent active to be cleared on knockout")
	assert.Equal(t, "guest-sess", result.Views.Host.CurrentPlayerSessionID)
}

func TestAttack_KnockoutToWin(t *testing.T) {
	e := NewEngine()
	// Host's active, once played, one-shots every fresh guest active
	// (100 attack vs 10 hp), so the host never needs to replay a card:
	// only the defender's active is ever cleared by a knockout.
	e.Start(1, "host-sess", "guest-sess", tenCards(100, 50, typechart.Fire), tenCards(10, 10, typechart.Grass))

	e.DrawCards(1, "host-sess")
	e.PlayCard(1, "host-sess", 0)
	e.EndTurn(1, "host-sess")

	for i := 0; i < 3; i++ {
		e.DrawCards(1, "guest-sess")
		_, err := e.PlayCard(1, "guest-sess", 0)
		require.NoError(t, err, "playing guest card on round %d", i)
		e.EndTurn(1, "guest-sess")

		result, err := e.Attack(1, "host-sess")
		require.NoError(t, err, "attack %d", i)
		if i < 2 {
			assert.Nil(t, result.Ended, "did not expect match to end on attack %d", i)
			// Attack already flipped the turn back to guest for the next round.
		} else {
			require.NotNil(t, result.Ended, "expected match to end on the 3rd knockout")
			assert.Equal(t, "host-sess", result.Ended.WinnerSessionID)
			assert.Equal(t, 3, result.Ended.HostScore)
		}
	}

	// Game-state must be gone.
	_, err := e.EndTurn(1, "host-sess")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEndTurn_RoundTrip(t *testing.T) {
	e := NewEngine()
	e.Start(1, "host-sess", "guest-sess", tenCards(10, 50, typechart.Fire), tenCards(10, 50, typechart.Grass))

	result, err := e.EndTurn(1, "host-sess")
	require.NoError(t, err)
	assert.Equal(t, "guest-sess", result.Views.Host.CurrentPlayerSessionID)

	result, err = e.EndTurn(1, "guest-sess")
	require.NoError(t, err)
	assert.Equal(t, "host-sess", result.Views.Host.CurrentPlayerSessionID)
}

func TestView_NeverIncludesOpponentHand(t *testing.T) {
	// View has no field that could carry the opponent's hand; this test
	// pins that structural guarantee via a compile-time-shaped check.
	e := NewEngine()
	views := e.Start(1, "host-sess", "guest-sess", tenCards(10, 50, typechart.Fire), tenCards(10, 50, typechart.Grass))
	e.DrawCards(1, "host-sess")

	var v View = views.Host
	_ = v.MyHand // compiles
	// No OpponentHand field exists on View; nothing to assert beyond compilation.
}

func TestRemove_Idempotent(t *testing.T) {
	e := NewEngine()
	e.Start(1, "host-sess", "guest-sess", tenCards(10, 50, typechart.Fire), tenCards(10, 50, typechart.Grass))
	e.Remove(1)
	e.Remove(1)

	_, err := e.EndTurn(1, "host-sess")
	assert.ErrorIs(t, err, ErrNotFound)
}
