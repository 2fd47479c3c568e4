package deck

import (
	"context"
	"sync"
)

// InMemoryRepository is a development/test stand-in for the external deck
// repository (spec §1 Out of scope: "Deck CRUD and card catalog storage"
// is an external collaborator described only by its interface).
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewInMemoryRepository builds a repository pre-seeded with records.
func NewInMemoryRepository(records map[string]*Record) *InMemoryRepository {
	if records == nil {
		records = make(map[string]*Record)
	}
	return &InMemoryRepository{records: records}
}

// GetDeck implements Repository.
func (r *InMemoryRepository) GetDeck(ctx context.Context, deckID string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[deckID]
	if !ok {
		return nil, ErrNotFound
	}
	cards := make([]Card, len(rec.Cards))
	copy(cards, rec.Cards)
	return &Record{OwnerUserID: rec.OwnerUserID, OwnerUsername: rec.OwnerUsername, Cards: cards}, nil
}

// Put inserts or replaces a deck record, for seeding in dev/test setups.
func (r *InMemoryRepository) Put(deckID string, record *Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[deckID] = record
}
