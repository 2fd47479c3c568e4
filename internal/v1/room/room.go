// Package room implements the process-wide room registry (spec C4):
// room-id allocation, waiting-list snapshots, and room lifecycle. It is
// grounded on the teacher's Hub pattern (a map guarded by one mutex, a
// monotonic id counter) but drops the teacher's reconnection grace
// period entirely, since this spec has no reconnection feature (spec
// Non-goals: "no reconnection into an in-progress match") — a session
// close always removes its rooms immediately.
package room

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cardduel/server/internal/v1/deck"
	"github.com/cardduel/server/internal/v1/match"
	"github.com/cardduel/server/internal/v1/metrics"
)

// Status is a Room's lifecycle state (spec §3).
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusInGame  Status = "in-game"
)

// Sentinel errors, surfaced to the offending session as error{event,
// message} (spec §4.4, §7).
var (
	ErrNotFound = errors.New("NOT_FOUND")
	ErrRoomFull = errors.New("ROOM_FULL")
	ErrSelfJoin = errors.New("SELF_JOIN")
)

// Room is one matchmaking slot (spec §3).
type Room struct {
	ID     int64
	Status Status

	HostSessionID string
	HostUserID    string
	HostUsername  string
	HostDeckID    string

	GuestSessionID string
	GuestUserID    string
	GuestUsername  string
	GuestDeckID    string

	CreatedAt time.Time
}

// PublicView is the waiting-list projection of a Room (spec §3
// PublicRoomView): never exposes socket ids or deck contents.
type PublicView struct {
	ID            int64  `json:"id"`
	HostUsername  string `json:"hostUsername"`
	HostUserID    string `json:"hostUserId"`
	CreatedAtISO  string `json:"createdAt"`
}

func (r *Room) publicView() PublicView {
	return PublicView{
		ID:           r.ID,
		HostUsername: r.HostUsername,
		HostUserID:   r.HostUserID,
		CreatedAtISO: r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Side identifies which participant a session is, returned by JoinRoom
// inside StartedInfo so the caller can build gameStarted's "you"/"opponent"
// payload without re-deriving it (spec §6).
type Side struct {
	Role   string
	UserID string
	DeckID string
}

// StartedInfo is returned by JoinRoom on success: the room id and the
// host and guest Side descriptors. It carries no views, since
// gameStarted carries no GameStateView, only role info (spec §6
// gameStarted payload shape).
type StartedInfo struct {
	RoomID int64
	Host   Side
	Guest  Side
}

// Registry is the process-wide room table (spec §4.4). All mutations
// serialize on one mutex, matching the teacher's single-lock-per-process
// Hub design; a per-room lock is a valid refinement the spec explicitly
// allows (§5) but isn't needed at this event rate.
type Registry struct {
	mu      sync.Mutex
	rooms   map[int64]*Room
	nextID  int64
	loader  *deck.Loader
	matches *match.Engine
}

// NewRegistry builds an empty registry backed by loader for deck lookups
// and matches for game-state lifecycle.
func NewRegistry(loader *deck.Loader, matches *match.Engine) *Registry {
	return &Registry{
		rooms:   make(map[int64]*Room),
		loader:  loader,
		matches: matches,
	}
}

// CreateRoom implements spec §4.4 createRoom: loads the host's deck,
// stores a waiting room, and returns its public view for roomCreated
// plus the full waiting list for roomsListUpdated.
//
// The deck-repository call is the one suspension point in a handler
// (spec §5); it runs before the registry lock is taken, so no lock is
// held across it.
func (reg *Registry) CreateRoom(ctx context.Context, hostSessionID, hostUserID string, deckID string) (PublicView, []PublicView, error) {
	hostUsername, _, err := reg.loader.Load(ctx, deckID, hostUserID)
	if err != nil {
		return PublicView{}, nil, err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	id := atomic.AddInt64(&reg.nextID, 1)
	r := &Room{
		ID:            id,
		Status:        StatusWaiting,
		HostSessionID: hostSessionID,
		HostUserID:    hostUserID,
		HostUsername:  hostUsername,
		HostDeckID:    deckID,
		CreatedAt:     time.Now(),
	}
	reg.rooms[id] = r
	metrics.ActiveRooms.Set(float64(reg.countWaitingLocked()))

	return r.publicView(), reg.listWaitingLocked(), nil
}

// ListWaiting implements spec §4.4 listWaiting: a consistent snapshot of
// every waiting room, ordered by roomId ascending.
func (reg *Registry) ListWaiting() []PublicView {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.listWaitingLocked()
}

func (reg *Registry) listWaitingLocked() []PublicView {
	views := make([]PublicView, 0, len(reg.rooms))
	for id := int64(1); id <= reg.nextID; id++ {
		r, ok := reg.rooms[id]
		if !ok || r.Status != StatusWaiting {
			continue
		}
		views = append(views, r.publicView())
	}
	return views
}

func (reg *Registry) countWaitingLocked() int {
	n := 0
	for _, r := range reg.rooms {
		if r.Status == StatusWaiting {
			n++
		}
	}
	return n
}

// JoinRoom implements spec §4.4 joinRoom: validates the room and
// joiner, re-loads both decks, promotes the room to in-game, and
// initializes the match engine's game-state.
func (reg *Registry) JoinRoom(ctx context.Context, guestSessionID, guestUserID, guestDeckID string, roomID int64) (StartedInfo, []PublicView, error) {
	reg.mu.Lock()
	r, ok := reg.rooms[roomID]
	if !ok {
		reg.mu.Unlock()
		return StartedInfo{}, nil, ErrNotFound
	}
	if r.Status != StatusWaiting || r.GuestSessionID != "" {
		reg.mu.Unlock()
		return StartedInfo{}, nil, ErrRoomFull
	}
	if guestUserID == r.HostUserID {
		reg.mu.Unlock()
		return StartedInfo{}, nil, ErrSelfJoin
	}
	hostDeckID, hostUserID := r.HostDeckID, r.HostUserID
	reg.mu.Unlock()

	// Suspension point: no lock held across either deck load (spec §5).
	guestUsername, guestCards, err := reg.loader.Load(ctx, guestDeckID, guestUserID)
	if err != nil {
		return StartedInfo{}, nil, err
	}
	_, hostCards, err := reg.loader.Load(ctx, hostDeckID, hostUserID)
	if err != nil {
		return StartedInfo{}, nil, err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	// Re-check preconditions after the suspension point (spec §5).
	r, ok = reg.rooms[roomID]
	if !ok {
		return StartedInfo{}, nil, ErrNotFound
	}
	if r.Status != StatusWaiting || r.GuestSessionID != "" {
		return StartedInfo{}, nil, ErrRoomFull
	}

	r.Status = StatusInGame
	r.GuestSessionID = guestSessionID
	r.GuestUserID = guestUserID
	r.GuestUsername = guestUsername
	r.GuestDeckID = guestDeckID

	reg.matches.Start(roomID, r.HostSessionID, guestSessionID, hostCards, guestCards)
	metrics.ActiveRooms.Set(float64(reg.countWaitingLocked()))
	metrics.ActiveMatches.Inc()

	return StartedInfo{
		RoomID: roomID,
		Host:   Side{Role: "host", UserID: r.HostUserID, DeckID: r.HostDeckID},
		Guest:  Side{Role: "guest", UserID: guestUserID, DeckID: guestDeckID},
	}, reg.listWaitingLocked(), nil
}

// RemoveBySession implements spec §4.4 removeBySession: deletes every
// room where sessionID is host or guest, tearing down the match engine's
// game-state for each, even if an emission later fails (spec §5
// Resource release). Returns whether anything changed, so the caller
// knows whether to broadcast roomsListUpdated.
func (reg *Registry) RemoveBySession(sessionID string) (changed bool, waiting []PublicView) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for id, r := range reg.rooms {
		if r.HostSessionID != sessionID && r.GuestSessionID != sessionID {
			continue
		}
		wasInGame := r.Status == StatusInGame
		delete(reg.rooms, id)
		reg.matches.Remove(id)
		if wasInGame {
			metrics.ActiveMatches.Dec()
		}
		changed = true
	}

	metrics.ActiveRooms.Set(float64(reg.countWaitingLocked()))
	return changed, reg.listWaitingLocked()
}

// DeleteRoom removes roomID's record without touching the match engine,
// for use after a match has already ended naturally (spec §9 Open
// Question: this implementation deletes the room on gameEnded rather
// than leaving it for a later disconnect to clean up). A no-op if the
// room is already gone.
func (reg *Registry) DeleteRoom(roomID int64) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, roomID)
}

// Get returns the room for roomID, for handlers that need read access
// without mutating (e.g. resolving the participants' session ids before
// emitting to them).
func (reg *Registry) Get(roomID int64) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[roomID]
	if !ok {
		return nil, false
	}
	cp := *r
	return &cp, true
}
