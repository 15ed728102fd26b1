package handler

import (
	"context"
	"net/http"
)

// LedgerProbe reports whether the shared ledger is answering reads.
type LedgerProbe interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	probe LedgerProbe
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(probe LedgerProbe) *HealthHandler {
	return &HealthHandler{probe: probe}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 once the ledger serves reads.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if err := h.probe.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "ledger unhealthy", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"ledger": "ok",
	})
}
