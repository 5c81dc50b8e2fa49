package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/mdkeep-go/internal/core/domain"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Version: h.deps.Version,
	}
	if h.deps.NextBackup != nil {
		if next := h.deps.NextBackup(); !next.IsZero() {
			resp.NextBackup = next.UTC().Format(time.RFC3339)
		}
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// handleReady handles GET /ready.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.deps.Ready != nil {
		if err := h.deps.Ready(r.Context()); err != nil {
			h.logger.Warn("readiness check failed", "error", err)
			h.writeError(w, r, http.StatusServiceUnavailable, domain.ErrStorage.Code, "not ready", HealthResponse{
				Status: "unavailable",
				Time:   time.Now().UTC().Format(time.RFC3339),
				Error:  err.Error(),
			})
			return
		}
	}
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "ready",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
