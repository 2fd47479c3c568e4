package deck

import (
	"context"
	"errors"
	"testing"

	"github.com/cardduel/server/internal/v1/typechart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenCards() []Card {
	cards := make([]Card, 10)
	for i := range cards {
		cards[i] = Card{ID: "c" + string(rune('0'+i)), Name: "Card", HP: 50, Attack: 10, Type: typechart.Fire}
	}
	return cards
}

func TestLoad_Success(t *testing.T) {
	repo := NewInMemoryRepository(map[string]*Record{
		"1": {OwnerUserID: "user-1", OwnerUsername: "alice", Cards: tenCards()},
	})
	loader := NewLoader(repo)

	username, cards, err := loader.Load(context.Background(), "1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
	assert.Len(t, cards, 10)
}

func TestLoad_NotFound(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	loader := NewLoader(repo)

	_, _, err := loader.Load(context.Background(), "missing", "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_Forbidden(t *testing.T) {
	repo := NewInMemoryRepository(map[string]*Record{
		"1": {OwnerUserID: "user-1", OwnerUsername: "alice", Cards: tenCards()},
	})
	loader := NewLoader(repo)

	_, _, err := loader.Load(context.Background(), "1", "user-2")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLoad_InvalidDeck(t *testing.T) {
	repo := NewInMemoryRepository(map[string]*Record{
		"1": {OwnerUserID: "user-1", OwnerUsername: "alice", Cards: tenCards()[:9]},
	})
	loader := NewLoader(repo)

	_, _, err := loader.Load(context.Background(), "1", "user-1")
	assert.ErrorIs(t, err, ErrInvalidDeck)
}

func TestLoader_StateStartsClosed(t *testing.T) {
	loader := NewLoader(NewInMemoryRepository(nil))
	assert.Equal(t, "closed", loader.State())
}

type failingRepo struct{}

func (failingRepo) GetDeck(ctx context.Context, deckID string) (*Record, error) {
	return nil, errors.New("boom")
}

func TestLoad_RepositoryFailureSurfacesInternal(t *testing.T) {
	loader := NewLoader(failingRepo{})

	_, _, err := loader.Load(context.Background(), "1", "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INTERNAL")
}
