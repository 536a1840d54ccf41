package handler

import (
	"net/http"
)

// connChecker reports whether the backing remote connection is alive.
// The in-memory remote does not implement it, so offline deployments
// always report ready.
type connChecker interface {
	IsConnected() bool
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	remote any
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(remote any) *HealthHandler {
	return &HealthHandler{
		remote: remote,
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
	if c, ok := h.remote.(connChecker); ok && !c.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "remote store not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
