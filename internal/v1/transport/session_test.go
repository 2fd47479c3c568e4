package transport

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_BroadcastReachesAllRegisteredSessions(t *testing.T) {
	m := NewManager()
	a := newSession("a", "user-a", "a@example.com", stubConn{})
	b := newSession("b", "user-b", "b@example.com", stubConn{})
	m.Register(a)
	m.Register(b)

	m.Broadcast("roomsListUpdated", []int{1, 2, 3})

	for _, s := range []*Session{a, b} {
		env := drain(t, s)
		assert.Equal(t, "roomsListUpdated", env.Event)
	}
	assert.Equal(t, 2, m.Count())
}

func TestManager_UnregisterRemovesAndClosesSession(t *testing.T) {
	m := NewManager()
	s := newSession("a", "user-a", "a@example.com", stubConn{})
	m.Register(s)

	m.Unregister("a")

	_, ok := m.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Count())

	// Emitting after close must not panic or send on a closed channel.
	s.Emit("ignored", nil)
}

func TestSession_EmitProducesEventEnvelope(t *testing.T) {
	s := newSession("a", "user-a", "a@example.com", stubConn{})
	s.Emit("gameStarted", map[string]int{"roomId": 1})

	data := <-s.send
	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, "gameStarted", env.Event)

	var payload map[string]int
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, 1, payload["roomId"])
}
