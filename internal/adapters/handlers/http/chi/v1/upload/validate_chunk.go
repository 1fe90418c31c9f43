package upload

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"filedepot/internal/core/digest"
	"filedepot/internal/core/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// V1ValidateChunkRequest is the request to verify a stored chunk
// against a client-side digest
type V1ValidateChunkRequest struct {
	Digest string `json:"digest"`
}

// V1ValidateChunkResponse reports whether the stored chunk matches
type V1ValidateChunkResponse struct {
	SessionID  uuid.UUID `json:"session_id"`
	ChunkIndex int       `json:"chunk_index"`
	Valid      bool      `json:"valid"`
}

func (h *HandlerV1) ValidateChunkV1(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "chunkIndex"))
	if err != nil {
		http.Error(w, "invalid chunk index", http.StatusBadRequest)
		return
	}

	var req V1ValidateChunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("error decoding validate chunk request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Digest == "" {
		http.Error(w, "missing param", http.StatusBadRequest)
		return
	}

	expected, err := digest.Parse(req.Digest)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	valid, validateErr := h.uploadService.ValidateChunk(r.Context(), sessionID, index, expected)
	switch {
	case errors.Is(validateErr, domain.ErrInvalidArgument):
		http.Error(w, validateErr.Error(), http.StatusBadRequest)
		return
	case errors.Is(validateErr, domain.ErrSessionNotFound), errors.Is(validateErr, domain.ErrChunkNotFound):
		http.Error(w, validateErr.Error(), http.StatusNotFound)
		return
	case validateErr != nil:
		h.logger.Error("error validating chunk", "sessionId", sessionID, "chunkIndex", index, "error", validateErr)
		http.Error(w, "internal server error", http.StatusServiceUnavailable)
		return
	default:
		resp := V1ValidateChunkResponse{
			SessionID:  sessionID,
			ChunkIndex: index,
			Valid:      valid,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			h.logger.Error("error encoding response", "error", err)
		}
		return
	}
}
