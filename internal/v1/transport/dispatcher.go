package transport

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/cardduel/server/internal/v1/deck"
	"github.com/cardduel/server/internal/v1/logging"
	"github.com/cardduel/server/internal/v1/match"
	"github.com/cardduel/server/internal/v1/metrics"
	"github.com/cardduel/server/internal/v1/ratelimit"
	"github.com/cardduel/server/internal/v1/room"
	"go.uber.org/zap"
)

// errBadRequest reports a malformed payload: unknown room id shape,
// non-numeric ids, or a missing field (spec §4.5 Failure semantics,
// §7: "BAD_REQUEST").
var errBadRequest = errors.New("BAD_REQUEST")

// Dispatcher binds each inbound event name to a handler closing over the
// room registry (C4) and match engine (C5), and emits the resulting
// outbound events (spec C6). It is the tagged-union-plus-handler-table
// the Design Notes call for (§9), keyed by event name rather than a
// dynamic string-dispatch chain scattered through the codebase.
type Dispatcher struct {
	registry *room.Registry
	matches  *match.Engine
	sessions *Manager
	limiter  *ratelimit.RateLimiter

	handlers map[string]func(ctx context.Context, s *Session, data json.RawMessage) error
}

// NewDispatcher wires the handler table once, at startup.
func NewDispatcher(registry *room.Registry, matches *match.Engine, sessions *Manager, limiter *ratelimit.RateLimiter) *Dispatcher {
	d := &Dispatcher{registry: registry, matches: matches, sessions: sessions, limiter: limiter}
	d.handlers = map[string]func(context.Context, *Session, json.RawMessage) error{
		"getRooms":   d.handleGetRooms,
		"createRoom": d.handleCreateRoom,
		"joinRoom":   d.handleJoinRoom,
		"drawCards":  d.handleDrawCards,
		"playCard":   d.handlePlayCard,
		"attack":     d.handleAttack,
		"endTurn":    d.handleEndTurn,
	}
	return d
}

// Dispatch routes one inbound envelope to its handler, and on any error
// replies to the offending session alone — no broadcast, no state change
// (spec §7 Propagation policy).
func (d *Dispatcher) Dispatch(ctx context.Context, s *Session, env Envelope) {
	if d.limiter != nil && !d.limiter.CheckEvent(ctx, s.ID) {
		s.Emit("error", errorPayload{Event: env.Event, Message: "RATE_LIMITED"})
		return
	}

	start := time.Now()
	handler, ok := d.handlers[env.Event]
	if !ok {
		s.Emit("error", errorPayload{Event: env.Event, Message: "BAD_REQUEST"})
		metrics.WebsocketEvents.WithLabelValues(env.Event, "bad_request").Inc()
		return
	}

	logCtx := logging.WithUserID(logging.WithSessionID(ctx, s.ID), s.UserID)
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				logging.Error(logCtx, "panic in event handler", zap.String("event", env.Event), zap.Any("panic", r))
				err = errors.New("INTERNAL")
			}
		}()
		return handler(ctx, s, env.Data)
	}()

	metrics.EventProcessingDuration.WithLabelValues(env.Event).Observe(time.Since(start).Seconds())
	if err != nil {
		s.Emit("error", errorPayload{Event: env.Event, Message: err.Error()})
		metrics.WebsocketEvents.WithLabelValues(env.Event, "error").Inc()
		return
	}
	metrics.WebsocketEvents.WithLabelValues(env.Event, "ok").Inc()
}

// errorPayload is the outbound error{event, message} shape (spec §6).
type errorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

func decode[T any](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 {
		return v, errBadRequest
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errBadRequest
	}
	// Every field of a payload is required: reject any whose key is absent.
	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil {
		return v, errBadRequest
	}
	rt := reflect.TypeOf(v)
	for i := 0; i < rt.NumField(); i++ {
		name, _, _ := strings.Cut(rt.Field(i).Tag.Get("json"), ",")
		if _, ok := present[name]; !ok {
			return v, errBadRequest
		}
	}
	return v, nil
}

func (d *Dispatcher) handleGetRooms(ctx context.Context, s *Session, _ json.RawMessage) error {
	s.Emit("roomsList", d.registry.ListWaiting())
	return nil
}

func (d *Dispatcher) handleCreateRoom(ctx context.Context, s *Session, data json.RawMessage) error {
	payload, err := decode[createRoomPayload](data)
	if err != nil {
		return err
	}

	view, waiting, err := d.registry.CreateRoom(ctx, s.ID, s.UserID, payload.DeckID.String())
	if err != nil {
		return translateDeckErr(err)
	}

	s.Emit("roomCreated", view)
	d.sessions.Broadcast("roomsListUpdated", waiting)
	return nil
}

func (d *Dispatcher) handleJoinRoom(ctx context.Context, s *Session, data json.RawMessage) error {
	payload, err := decode[joinRoomPayload](data)
	if err != nil {
		return err
	}

	info, waiting, err := d.registry.JoinRoom(ctx, s.ID, s.UserID, payload.DeckID.String(), payload.RoomID.Int64())
	if err != nil {
		return translateJoinErr(err)
	}

	r, ok := d.registry.Get(info.RoomID)
	if !ok {
		return errors.New("INTERNAL")
	}
	emitGameStarted(d.sessions, info, r.HostSessionID, r.GuestSessionID)
	d.sessions.Broadcast("roomsListUpdated", waiting)
	return nil
}

// emitGameStarted sends each participant spec §6's {roomId, you,
// opponent} payload with their own role first — never a shared struct
// that would require the recipient to know which side is "mine".
func emitGameStarted(sessions *Manager, info room.StartedInfo, hostSessionID, guestSessionID string) {
	type party struct {
		Role   string `json:"role"`
		UserID string `json:"userId"`
		DeckID string `json:"deckId"`
	}
	type payload struct {
		RoomID   int64 `json:"roomId"`
		You      party `json:"you"`
		Opponent party `json:"opponent"`
	}

	host := party{Role: info.Host.Role, UserID: info.Host.UserID, DeckID: info.Host.DeckID}
	guest := party{Role: info.Guest.Role, UserID: info.Guest.UserID, DeckID: info.Guest.DeckID}

	if s, ok := sessions.Get(hostSessionID); ok {
		s.Emit("gameStarted", payload{RoomID: info.RoomID, You: host, Opponent: guest})
	}
	if s, ok := sessions.Get(guestSessionID); ok {
		s.Emit("gameStarted", payload{RoomID: info.RoomID, You: guest, Opponent: host})
	}
}

func (d *Dispatcher) handleDrawCards(ctx context.Context, s *Session, data json.RawMessage) error {
	payload, err := decode[roomOnlyPayload](data)
	if err != nil {
		return err
	}
	result, err := d.matches.DrawCards(payload.RoomID.Int64(), s.ID)
	if err != nil {
		return translateMatchErr(err)
	}
	d.emitResult(payload.RoomID.Int64(), result)
	return nil
}

func (d *Dispatcher) handlePlayCard(ctx context.Context, s *Session, data json.RawMessage) error {
	payload, err := decode[playCardPayload](data)
	if err != nil {
		return err
	}
	if payload.CardIndex < 0 {
		return errBadRequest
	}
	result, err := d.matches.PlayCard(payload.RoomID.Int64(), s.ID, payload.CardIndex)
	if err != nil {
		return translateMatchErr(err)
	}
	d.emitResult(payload.RoomID.Int64(), result)
	return nil
}

func (d *Dispatcher) handleAttack(ctx context.Context, s *Session, data json.RawMessage) error {
	payload, err := decode[roomOnlyPayload](data)
	if err != nil {
		return err
	}
	result, err := d.matches.Attack(payload.RoomID.Int64(), s.ID)
	if err != nil {
		return translateMatchErr(err)
	}
	d.emitResult(payload.RoomID.Int64(), result)
	return nil
}

func (d *Dispatcher) handleEndTurn(ctx context.Context, s *Session, data json.RawMessage) error {
	payload, err := decode[roomOnlyPayload](data)
	if err != nil {
		return err
	}
	result, err := d.matches.EndTurn(payload.RoomID.Int64(), s.ID)
	if err != nil {
		return translateMatchErr(err)
	}
	d.emitResult(payload.RoomID.Int64(), result)
	return nil
}

// emitResult resolves the room's host/guest session ids and emits either
// gameStateUpdated to both (each their own view) or gameEnded to both,
// followed by the room's deletion once a match has a winner (spec §4.5,
// §9 Open Question: "this implementation deletes the room record when
// gameEnded fires").
func (d *Dispatcher) emitResult(roomID int64, result match.Result) {
	r, ok := d.registry.Get(roomID)
	if !ok {
		return
	}

	if result.Ended != nil {
		payload := gameEndedPayload{
			RoomID:          roomID,
			WinnerSessionID: result.Ended.WinnerSessionID,
			HostScore:       result.Ended.HostScore,
			GuestScore:      result.Ended.GuestScore,
		}
		if s, ok := d.sessions.Get(r.HostSessionID); ok {
			s.Emit("gameEnded", payload)
		}
		if s, ok := d.sessions.Get(r.GuestSessionID); ok {
			s.Emit("gameEnded", payload)
		}
		metrics.ActiveMatches.Dec()
		d.registry.DeleteRoom(roomID)
		return
	}

	if s, ok := d.sessions.Get(r.HostSessionID); ok {
		s.Emit("gameStateUpdated", result.Views.Host)
	}
	if s, ok := d.sessions.Get(r.GuestSessionID); ok {
		s.Emit("gameStateUpdated", result.Views.Guest)
	}
}

type gameEndedPayload struct {
	RoomID          int64  `json:"roomId"`
	WinnerSessionID string `json:"winnerSessionId"`
	HostScore       int    `json:"hostScore"`
	GuestScore      int    `json:"guestScore"`
}

// translateDeckErr / translateJoinErr / translateMatchErr map sentinel
// errors from C2/C4/C5 to the `message` string of the error event (spec
// §7). Unrecognized errors become INTERNAL rather than leaking internals.
func translateDeckErr(err error) error {
	switch {
	case errors.Is(err, deck.ErrNotFound):
		return errors.New("NOT_FOUND")
	case errors.Is(err, deck.ErrForbidden):
		return errors.New("FORBIDDEN")
	case errors.Is(err, deck.ErrInvalidDeck):
		return errors.New("INVALID_DECK")
	default:
		return errors.New("INTERNAL")
	}
}

func translateJoinErr(err error) error {
	switch {
	case errors.Is(err, room.ErrNotFound):
		return errors.New("NOT_FOUND")
	case errors.Is(err, room.ErrRoomFull):
		return errors.New("CONFLICT")
	case errors.Is(err, room.ErrSelfJoin):
		return errors.New("SELF_JOIN")
	case errors.Is(err, deck.ErrNotFound), errors.Is(err, deck.ErrForbidden), errors.Is(err, deck.ErrInvalidDeck):
		return translateDeckErr(err)
	default:
		return errors.New("INTERNAL")
	}
}

func translateMatchErr(err error) error {
	switch {
	case errors.Is(err, match.ErrNotFound):
		return errors.New("NOT_FOUND")
	case errors.Is(err, match.ErrNotYourTurn):
		return errors.New("NOT_YOUR_TURN")
	case errors.Is(err, match.ErrInvalidIndex):
		return errors.New("INVALID_INDEX")
	case errors.Is(err, match.ErrAlreadyActive):
		return errors.New("ALREADY_ACTIVE")
	case errors.Is(err, match.ErrNoActive):
		return errors.New("CONFLICT")
	default:
		return errors.New("INTERNAL")
	}
}
