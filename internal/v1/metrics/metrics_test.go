package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegistration(t *testing.T) {
	t.Run("WebsocketEvents", func(t *testing.T) {
		WebsocketEvents.WithLabelValues("attack", "ok").Inc()
		val := testutil.ToFloat64(WebsocketEvents.WithLabelValues("attack", "ok"))
		if val < 1 {
			t.Errorf("Expected WebsocketEvents to be at least 1, got %v", val)
		}
	})

	t.Run("EventProcessingDuration", func(t *testing.T) {
		EventProcessingDuration.WithLabelValues("attack").Observe(0.01)
	})

	t.Run("CircuitBreakerState", func(t *testing.T) {
		CircuitBreakerState.WithLabelValues("deck-repository").Set(1)
		val := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("deck-repository"))
		if val != 1 {
			t.Errorf("Expected CircuitBreakerState to be 1, got %v", val)
		}
	})

	t.Run("DeckRepositoryRequests", func(t *testing.T) {
		DeckRepositoryRequests.WithLabelValues("success").Inc()
		val := testutil.ToFloat64(DeckRepositoryRequests.WithLabelValues("success"))
		if val < 1 {
			t.Errorf("Expected DeckRepositoryRequests to be at least 1, got %v", val)
		}
	})

	t.Run("Connection gauge helpers", func(t *testing.T) {
		before := testutil.ToFloat64(ActiveWebSocketConnections)
		IncConnection()
		if testutil.ToFloat64(ActiveWebSocketConnections) != before+1 {
			t.Errorf("Expected IncConnection to increment gauge")
		}
		DecConnection()
		if testutil.ToFloat64(ActiveWebSocketConnections) != before {
			t.Errorf("Expected DecConnection to decrement gauge")
		}
	})
}
