// Package ratelimit throttles the handshake route and the per-session
// event stream. A single process has no cross-instance state to share
// (spec Non-goals: no horizontal scaling), so the in-memory store is the
// only store this core needs.
package ratelimit

import (
	"context"
	"fmt"

	"github.com/cardduel/server/internal/v1/config"
	"github.com/cardduel/server/internal/v1/logging"
	"github.com/cardduel/server/internal/v1/metrics"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

// RateLimiter holds the rate limiter instances guarding the channel.
type RateLimiter struct {
	handshake *limiter.Limiter
	event     *limiter.Limiter
}

// NewRateLimiter builds a RateLimiter from the configured
// RATE_LIMIT_WS_HANDSHAKE / RATE_LIMIT_WS_EVENT rates.
func NewRateLimiter(cfg *config.Config) (*RateLimiter, error) {
	handshakeRate, err := limiter.NewRateFromFormatted(cfg.RateLimitWsHandshake)
	if err != nil {
		return nil, fmt.Errorf("invalid handshake rate: %w", err)
	}

	eventRate, err := limiter.NewRateFromFormatted(cfg.RateLimitWsEvent)
	if err != nil {
		return nil, fmt.Errorf("invalid event rate: %w", err)
	}

	store := memory.NewStore()

	return &RateLimiter{
		handshake: limiter.New(store, handshakeRate),
		event:     limiter.New(store, eventRate),
	}, nil
}

// CheckHandshake reports whether a new channel connection from ip is
// allowed. Fails open (allows the connection) if the store errors.
func (rl *RateLimiter) CheckHandshake(ctx context.Context, ip string) bool {
	lc, err := rl.handshake.Get(ctx, ip)
	if err != nil {
		logging.Error(ctx, "rate limiter store failed (handshake)", zap.Error(err))
		return true
	}
	metrics.RateLimitRequests.WithLabelValues("handshake").Inc()
	if lc.Reached {
		metrics.RateLimitExceeded.WithLabelValues("handshake", "ip").Inc()
		return false
	}
	return true
}

// CheckEvent reports whether sessionID may send another inbound event.
// Fails open if the store errors.
func (rl *RateLimiter) CheckEvent(ctx context.Context, sessionID string) bool {
	lc, err := rl.event.Get(ctx, sessionID)
	if err != nil {
		logging.Error(ctx, "rate limiter store failed (event)", zap.Error(err))
		return true
	}
	metrics.RateLimitRequests.WithLabelValues("event").Inc()
	if lc.Reached {
		metrics.RateLimitExceeded.WithLabelValues("event", "session").Inc()
		return false
	}
	return true
}
