package handler

import (
	"context"
	"net/http"

	"github.com/schedura-ai/booking-assistant/internal/business"
)

// ConfigLoader loads the business document.
type ConfigLoader interface {
	Load(ctx context.Context) (*business.Config, error)
}

// ConnectionChecker reports whether a broker connection is up.
type ConnectionChecker interface {
	IsConnected() bool
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	config ConfigLoader
	events ConnectionChecker
}

// NewHealthHandler creates a new health handler. events may be nil when
// event publishing is disabled.
func NewHealthHandler(config ConfigLoader, events ConnectionChecker) *HealthHandler {
	return &HealthHandler{
		config: config,
		events: events,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, err := h.config.Load(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "business config unavailable: " + err.Error(),
		})
		return
	}

	if h.events != nil && !h.events.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
