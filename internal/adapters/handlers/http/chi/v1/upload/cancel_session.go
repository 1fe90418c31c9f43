package upload

import (
	"errors"
	"net/http"

	"filedepot/internal/core/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (h *HandlerV1) CancelSessionV1(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	// Cancel is idempotent, a session that is already gone still
	// answers no content.
	cancelErr := h.uploadService.Cancel(r.Context(), sessionID)
	switch {
	case errors.Is(cancelErr, domain.ErrInvalidState):
		http.Error(w, cancelErr.Error(), http.StatusConflict)
		return
	case cancelErr != nil:
		h.logger.Error("error cancelling session", "sessionId", sessionID, "error", cancelErr)
		http.Error(w, "internal server error", http.StatusServiceUnavailable)
		return
	default:
		w.WriteHeader(http.StatusNoContent)
		return
	}
}
