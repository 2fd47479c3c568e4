// Package deck adapts the external deck repository into game-ready card
// snapshots (spec C2). The repository call is this core's one suspension
// point (spec §5); callers must hold no lock across Load.
package deck

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cardduel/server/internal/v1/logging"
	"github.com/cardduel/server/internal/v1/metrics"
	"github.com/cardduel/server/internal/v1/typechart"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Card is an immutable card definition as the repository describes it,
// before it becomes a mutable game-card inside a match (spec §3).
type Card struct {
	ID     string
	Name   string
	HP     int
	Attack int
	Type   typechart.Type
}

// Record is what the external deck repository returns for one deck.
type Record struct {
	OwnerUserID   string
	OwnerUsername string
	Cards         []Card
}

// Repository is the external collaborator: relational deck/card/catalog
// storage that this core never mutates (spec §1 Out of scope).
type Repository interface {
	GetDeck(ctx context.Context, deckID string) (*Record, error)
}

// Sentinel errors, surfaced verbatim as the `message` field of an `error`
// event (spec §7).
var (
	ErrNotFound    = errors.New("NOT_FOUND")
	ErrForbidden   = errors.New("FORBIDDEN")
	ErrInvalidDeck = errors.New("INVALID_DECK")
)

const deckSize = 10

// Loader wraps Repository in a circuit breaker so a failing or slow
// repository degrades instead of cascading into every room/match handler
// that needs a deck.
type Loader struct {
	repo Repository
	cb   *gobreaker.CircuitBreaker[*Record]
}

// NewLoader builds a Loader around repo.
func NewLoader(repo Repository) *Loader {
	settings := gobreaker.Settings{
		Name:        "deck-repository",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn(context.Background(), "circuit breaker state change",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	}
	return &Loader{
		repo: repo,
		cb:   gobreaker.NewCircuitBreaker[*Record](settings),
	}
}

// State reports the circuit breaker's current state, for use by the
// readiness health check (spec Ambient Stack).
func (l *Loader) State() string {
	switch l.cb.State() {
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Load fetches deckID, validates it belongs to forUserID and has exactly
// 10 cards, and returns the owner's username plus game-card snapshots in
// repository order (spec §4.2).
func (l *Loader) Load(ctx context.Context, deckID, forUserID string) (string, []Card, error) {
	record, err := l.cb.Execute(func() (*Record, error) {
		return l.repo.GetDeck(ctx, deckID)
	})
	if err != nil {
		metrics.DeckRepositoryRequests.WithLabelValues("failure").Inc()
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrNotFound
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", nil, fmt.Errorf("INTERNAL: %w", err)
		}
		return "", nil, fmt.Errorf("INTERNAL: %w", err)
	}
	metrics.DeckRepositoryRequests.WithLabelValues("success").Inc()

	if record.OwnerUserID != forUserID {
		return "", nil, ErrForbidden
	}
	if len(record.Cards) != deckSize {
		return "", nil, ErrInvalidDeck
	}

	cards := make([]Card, len(record.Cards))
	copy(cards, record.Cards)
	return record.OwnerUsername, cards, nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
