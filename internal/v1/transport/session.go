package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cardduel/server/internal/v1/logging"
	"go.uber.org/zap"
)

// wsConnection is the subset of *websocket.Conn a Session needs, narrowed
// to an interface so tests can substitute a fake (teacher's wsConnection
// shape in internal/v1/transport/client.go).
type wsConnection interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetReadLimit(limit int64)
	SetWriteDeadline(t time.Time) error
}

// Session is one authenticated channel connection (spec §3 Session): a
// server-assigned id stable for the connection's lifetime, plus the
// principal C3 attached at handshake.
type Session struct {
	ID     string
	UserID string
	Email  string

	conn wsConnection
	send chan []byte

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// newSession wraps conn for id/userID/email, with a buffered outbound
// queue matching the teacher's Client.send sizing.
func newSession(id, userID, email string, conn wsConnection) *Session {
	return &Session{
		ID:     id,
		UserID: userID,
		Email:  email,
		conn:   conn,
		send:   make(chan []byte, 256),
	}
}

// Emit enqueues a named event for delivery on this session's writePump.
// It never blocks the caller on a slow client: a full queue drops the
// message and logs, matching the teacher's Client.SendProto behavior.
func (s *Session) Emit(event string, payload any) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return
	}
	s.mu.RUnlock()

	ctx := logging.WithSessionID(logging.WithUserID(context.Background(), s.UserID), s.ID)

	data, err := json.Marshal(Envelope{Event: event, Data: mustRawJSON(payload)})
	if err != nil {
		logging.Error(ctx, "failed to marshal outbound envelope", zap.String("event", event), zap.Error(err))
		return
	}

	select {
	case s.send <- data:
	default:
		logging.Warn(ctx, "session send queue full, dropping message", zap.String("event", event))
	}
}

func mustRawJSON(payload any) json.RawMessage {
	raw, err := json.Marshal(payload)
	if err != nil {
		return json.RawMessage("null")
	}
	return raw
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.send)
		s.conn.Close()
	})
}

// Manager tracks every live authenticated session, for broadcast delivery
// (roomsListUpdated) and for resolving a room participant's session-id
// back to a live Session to emit on (spec §4.6, §4.4 removeBySession).
// Grounded on the teacher's Hub map-guarded-by-one-mutex shape,
// generalized from rooms to sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager builds an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Register adds a session after a successful handshake (spec §3: "created
// at handshake after C3 succeeds").
func (m *Manager) Register(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

// Unregister removes and closes a session (spec §3: "destroyed on channel
// close").
func (m *Manager) Unregister(sessionID string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if ok {
		s.close()
	}
}

// Get returns the live session for sessionID, if still connected.
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// Broadcast emits event to every currently authenticated session (spec
// §6: "the server never sends unsolicited messages except
// roomsListUpdated... broadcast to all authenticated sessions").
func (m *Manager) Broadcast(event string, payload any) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		s.Emit(event, payload)
	}
}

// Count reports the number of live sessions, for metrics.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
