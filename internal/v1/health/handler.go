package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// DeckRepositoryChecker reports the current state of the circuit breaker
// guarding the deck repository, this core's only outbound network
// dependency (spec §5). Implemented by internal/v1/deck.Loader.
type DeckRepositoryChecker interface {
	// State returns "closed", "open" or "half-open".
	State() string
}

// Handler manages health check endpoints
type Handler struct {
	deckRepo DeckRepositoryChecker
}

// NewHandler creates a new health check handler. deckRepo may be nil, in
// which case readiness always reports the deck repository as healthy
// (useful for tests that don't wire a real repository).
func NewHandler(deckRepo DeckRepositoryChecker) *Handler {
	return &Handler{deckRepo: deckRepo}
}

// LivenessResponse represents the liveness probe response
type LivenessResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadinessResponse represents the readiness probe response
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Liveness handles the liveness probe endpoint
// GET /health/live
// Returns 200 if the process is alive (no dependency checks)
func (h *Handler) Liveness(c *gin.Context) {
	response := LivenessResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, response)
}

// Readiness handles the readiness probe endpoint
// GET /health/ready
// Returns 200 unless the deck-repository circuit breaker is open.
func (h *Handler) Readiness(c *gin.Context) {
	checks := make(map[string]string)
	deckStatus := h.checkDeckRepository()
	checks["deck_repository"] = deckStatus

	status := "ready"
	statusCode := http.StatusOK
	if deckStatus != "healthy" {
		status = "unavailable"
		statusCode = http.StatusServiceUnavailable
	}

	response := ReadinessResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	c.JSON(statusCode, response)
}

// checkDeckRepository reports "healthy" unless the circuit breaker has
// opened, in which case deck loads are currently failing fast.
func (h *Handler) checkDeckRepository() string {
	if h.deckRepo == nil {
		return "healthy"
	}
	if h.deckRepo.State() == "open" {
		return "unhealthy"
	}
	return "healthy"
}
