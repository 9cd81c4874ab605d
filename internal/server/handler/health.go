package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports backend liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler creates a HealthHandler over the cache backend.
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// HealthCheck reports overall liveness plus the store's reachability. The
// endpoint stays 200 even when the store is down: reads degrade rather
// than fail.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	storeStatus := "ok"
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			storeStatus = "unreachable"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"store":     storeStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
