package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the duel server.
//
// Naming convention: namespace_subsystem_name
// - namespace: duel (application-level grouping)
// - subsystem: websocket, room, match, deck, circuit_breaker, rate_limit (feature-level grouping)
// - name: specific metric (connections_active, events_total, etc.)
//
// Metric Types:
// - Gauge: Current state (connections, rooms, matches)
// - Counter: Cumulative events (events processed, errors)
// - Histogram: Latency distributions (event processing time)

var (
	// ActiveWebSocketConnections tracks the current number of active session channels.
	ActiveWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "duel",
		Subsystem: "websocket",
		Name:      "connections_active",
		Help:      "Current number of active session channels",
	})

	// ActiveRooms tracks the current number of rooms waiting for an opponent.
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "duel",
		Subsystem: "room",
		Name:      "rooms_active",
		Help:      "Current number of rooms waiting for an opponent",
	})

	// ActiveMatches tracks the current number of in-progress matches.
	ActiveMatches = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "duel",
		Subsystem: "match",
		Name:      "matches_active",
		Help:      "Current number of in-progress matches",
	})

	// WebsocketEvents tracks the total number of inbound events processed
	// (CounterVec keyed by event name and outcome).
	WebsocketEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "duel",
		Subsystem: "websocket",
		Name:      "events_total",
		Help:      "Total inbound events processed",
	}, []string{"event", "status"})

	// EventProcessingDuration tracks the time spent handling an inbound event.
	EventProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "duel",
		Subsystem: "websocket",
		Name:      "event_processing_seconds",
		Help:      "Time spent processing an inbound event",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"event"})

	// CircuitBreakerState tracks the current state of the deck-repository
	// circuit breaker. 0: Closed (Healthy), 1: Open (Failure), 2: Half-Open.
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "duel",
		Subsystem: "circuit_breaker",
		Name:      "state",
		Help:      "Current state of the circuit breaker (0: Closed, 1: Open, 2: Half-Open)",
	}, []string{"service"})

	// CircuitBreakerFailures tracks the total number of requests rejected by
	// the circuit breaker.
	CircuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "duel",
		Subsystem: "circuit_breaker",
		Name:      "failures_total",
		Help:      "Total requests rejected by the circuit breaker",
	}, []string{"service"})

	// RateLimitExceeded tracks the total number of requests that exceeded a
	// rate limit.
	RateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "duel",
		Subsystem: "rate_limit",
		Name:      "exceeded_total",
		Help:      "Total number of requests that exceeded the rate limit",
	}, []string{"scope", "reason"})

	// RateLimitRequests tracks the total number of requests checked against
	// a rate limiter.
	RateLimitRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "duel",
		Subsystem: "rate_limit",
		Name:      "requests_total",
		Help:      "Total number of requests checked against the rate limiter",
	}, []string{"scope"})

	// DeckRepositoryRequests tracks the total number of outbound deck
	// repository lookups.
	DeckRepositoryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "duel",
		Subsystem: "deck",
		Name:      "repository_requests_total",
		Help:      "Total number of deck repository lookups",
	}, []string{"status"})
)

func IncConnection() {
	ActiveWebSocketConnections.Inc()
}

func DecConnection() {
	ActiveWebSocketConnections.Dec()
}
