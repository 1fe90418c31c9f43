package admin

import (
	"encoding/json"
	"net/http"
	"time"
)

// V1RunCleanupResponse reports how much each sweep pass reclaimed
type V1RunCleanupResponse struct {
	ExpiredSessionsCleaned int `json:"expired_sessions_cleaned"`
	OrphansCleaned         int `json:"orphans_cleaned"`
}

// RunCleanupV1 runs both sweep passes on demand, the same work the
// background sweeper does on its interval
func (h *HandlerV1) RunCleanupV1(w http.ResponseWriter, r *http.Request) {
	expired, err := h.cleanupService.CleanupExpiredSessions(r.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Error("error sweeping expired sessions", "error", err)
		http.Error(w, "internal server error", http.StatusServiceUnavailable)
		return
	}

	orphans, err := h.cleanupService.CleanupOrphanedData(r.Context())
	if err != nil {
		h.logger.Error("error sweeping orphaned data", "error", err)
		http.Error(w, "internal server error", http.StatusServiceUnavailable)
		return
	}

	h.metrics.SessionsCleaned.Add(float64(expired))

	resp := V1RunCleanupResponse{
		ExpiredSessionsCleaned: expired,
		OrphansCleaned:         orphans,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("error encoding response", "error", err)
	}
}
