package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/cardduel/server/internal/v1/auth"
	"github.com/cardduel/server/internal/v1/logging"
	"github.com/cardduel/server/internal/v1/match"
	"github.com/cardduel/server/internal/v1/metrics"
	"github.com/cardduel/server/internal/v1/ratelimit"
	"github.com/cardduel/server/internal/v1/room"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// TokenValidator authenticates a handshake token into a principal (spec
// C3). Satisfied by *auth.Validator; narrowed to an interface so the hub
// doesn't depend on auth's concrete type.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Principal, error)
}

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 16
)

// Hub upgrades authenticated handshakes into Sessions and wires their
// readPump/writePump into the Dispatcher (spec C6). Grounded on the
// teacher's session.Hub/transport.Hub ServeWs + HandleConnection split,
// generalized from per-room clients to per-process sessions (spec §3:
// a session is not scoped to one room — it may create or join rooms
// over its lifetime).
type Hub struct {
	validator      TokenValidator
	sessions       *Manager
	dispatcher     *Dispatcher
	registry       *room.Registry
	matches        *match.Engine
	limiter        *ratelimit.RateLimiter
	allowedOrigins []string
}

// NewHub wires the hub's dependencies. allowedOrigins controls the
// WebSocket handshake's CheckOrigin, matching the teacher's CORS posture
// for the upgrade route specifically (gin-contrib/cors covers the REST
// routes; the upgrade route needs its own check since it isn't an XHR).
func NewHub(validator TokenValidator, registry *room.Registry, matches *match.Engine, limiter *ratelimit.RateLimiter, allowedOrigins []string) *Hub {
	sessions := NewManager()
	return &Hub{
		validator:      validator,
		sessions:       sessions,
		dispatcher:     NewDispatcher(registry, matches, sessions, limiter),
		registry:       registry,
		matches:        matches,
		limiter:        limiter,
		allowedOrigins: allowedOrigins,
	}
}

// ServeWs authenticates the handshake token and, on success, upgrades to
// a WebSocket and starts the session's pumps (spec C3, §6 Channel
// protocol: "present a token in the handshake attributes under the key
// token").
func (h *Hub) ServeWs(c *gin.Context) {
	if h.limiter != nil && !h.limiter.CheckHandshake(c.Request.Context(), c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limited"})
		return
	}

	token := c.Query("token")
	principal, err := h.validator.ValidateToken(token)
	if err != nil {
		status := http.StatusUnauthorized
		msg := "AUTH_INVALID"
		if token == "" {
			msg = "AUTH_MISSING"
		}
		logging.Warn(c.Request.Context(), "handshake rejected", zap.String("reason", msg))
		c.JSON(status, gin.H{"error": msg})
		return
	}

	if err := validateOrigin(c.Request, h.allowedOrigins); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return validateOrigin(r, h.allowedOrigins) == nil
		},
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Error(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
		return
	}

	s := newSession(uuid.NewString(), principal.UserID, principal.Email, conn)
	h.sessions.Register(s)
	metrics.IncConnection()
	ctx := logging.WithUserID(logging.WithSessionID(c.Request.Context(), s.ID), s.UserID)
	logging.Info(ctx, "session connected")

	go h.writePump(s)
	go h.readPump(s)
}

// readPump decodes inbound JSON envelopes and dispatches them in arrival
// order (spec §5 Ordering guarantees: "within a single session, events
// are processed in arrival order"), and tears the session down on
// disconnect (spec §4.4 removeBySession, §5 Resource release).
func (h *Hub) readPump(s *Session) {
	defer h.handleDisconnect(s)
	s.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.Emit("error", errorPayload{Event: "", Message: "BAD_REQUEST"})
			continue
		}

		h.dispatcher.Dispatch(context.Background(), s, env)
	}
}

func (h *Hub) writePump(s *Session) {
	defer s.conn.Close()
	for message := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	s.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// handleDisconnect tears down every room the session participated in,
// even if broadcasting the resulting roomsListUpdated later fails (spec
// §5 Resource release: "even if an emission fails, the room and its
// game-state are removed").
func (h *Hub) handleDisconnect(s *Session) {
	h.sessions.Unregister(s.ID)
	metrics.DecConnection()

	changed, waiting := h.registry.RemoveBySession(s.ID)
	if changed {
		h.sessions.Broadcast("roomsListUpdated", waiting)
	}
	logging.Info(logging.WithSessionID(context.Background(), s.ID), "session disconnected")
}

// validateOrigin allows non-browser clients (no Origin header, e.g.
// tests and native clients) and otherwise requires scheme+host to match
// one of allowedOrigins. Grounded on the teacher's hub_helpers.go
// validateOrigin.
func validateOrigin(r *http.Request, allowedOrigins []string) error {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return nil
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return err
	}

	for _, allowed := range allowedOrigins {
		allowedURL, err := url.Parse(allowed)
		if err != nil {
			continue
		}
		if originURL.Scheme == allowedURL.Scheme && originURL.Host == allowedURL.Host {
			return nil
		}
	}
	return errOriginNotAllowed
}

var errOriginNotAllowed = errors.New("origin not allowed")
