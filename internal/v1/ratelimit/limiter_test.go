package ratelimit

import (
	"context"
	"testing"

	"github.com/cardduel/server/internal/v1/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) *RateLimiter {
	cfg := &config.Config{
		RateLimitWsHandshake: "5-M",
		RateLimitWsEvent:     "5-M",
	}
	rl, err := NewRateLimiter(cfg)
	require.NoError(t, err)
	return rl
}

func TestCheckHandshake(t *testing.T) {
	rl := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.True(t, rl.CheckHandshake(ctx, "1.2.3.4"))
	}

	assert.False(t, rl.CheckHandshake(ctx, "1.2.3.4"))

	// A different IP has its own bucket.
	assert.True(t, rl.CheckHandshake(ctx, "5.6.7.8"))
}

func TestCheckEvent(t *testing.T) {
	rl := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.True(t, rl.CheckEvent(ctx, "session-1"))
	}

	assert.False(t, rl.CheckEvent(ctx, "session-1"))

	// A different session has its own bucket.
	assert.True(t, rl.CheckEvent(ctx, "session-2"))
}

func TestNewRateLimiter_InvalidRate(t *testing.T) {
	cfg := &config.Config{
		RateLimitWsHandshake: "not-a-rate",
		RateLimitWsEvent:     "5-M",
	}
	_, err := NewRateLimiter(cfg)
	assert.Error(t, err)
}
