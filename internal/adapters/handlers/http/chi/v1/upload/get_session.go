package upload

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"filedepot/internal/core/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// V1GetSessionResponse is the resumable-client view of a session:
// metadata plus which chunk indexes are present and which are missing
type V1GetSessionResponse struct {
	SessionID       uuid.UUID  `json:"session_id"`
	FileName        string     `json:"file_name"`
	TotalSize       int64      `json:"total_size"`
	ChunkSize       int64      `json:"chunk_size"`
	TotalChunks     int        `json:"total_chunks"`
	UploadedChunks  int        `json:"uploaded_chunks"`
	Percent         float64    `json:"percent"`
	Status          string     `json:"status"`
	DeclaredDigest  string     `json:"declared_digest,omitempty"`
	OwnerID         string     `json:"owner_id,omitempty"`
	FinalizedFileID *uuid.UUID `json:"finalized_file_id,omitempty"`
	UploadedIndexes []int      `json:"uploaded_indexes"`
	MissingIndexes  []int      `json:"missing_indexes"`
	CreatedAt       time.Time  `json:"created_at"`
	ExpiresAt       time.Time  `json:"expires_at"`
}

func (h *HandlerV1) GetSessionV1(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	detail, statusErr := h.uploadService.Status(r.Context(), sessionID)
	switch {
	case errors.Is(statusErr, domain.ErrSessionNotFound):
		http.Error(w, statusErr.Error(), http.StatusNotFound)
		return
	case statusErr != nil:
		h.logger.Error("error fetching session status", "sessionId", sessionID, "error", statusErr)
		http.Error(w, "internal server error", http.StatusServiceUnavailable)
		return
	default:
		session := detail.Session
		resp := V1GetSessionResponse{
			SessionID:       session.ID,
			FileName:        session.FileName,
			TotalSize:       session.TotalSize,
			ChunkSize:       session.ChunkSize,
			TotalChunks:     session.TotalChunks,
			UploadedChunks:  session.UploadedChunks,
			Percent:         session.Progress(),
			Status:          string(session.Status),
			DeclaredDigest:  string(session.DeclaredDigest),
			OwnerID:         session.OwnerID,
			FinalizedFileID: session.FinalizedFileID,
			UploadedIndexes: detail.UploadedIndexes,
			MissingIndexes:  detail.MissingIndexes,
			CreatedAt:       session.CreatedAt,
			ExpiresAt:       session.ExpiresAt,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			h.logger.Error("error encoding response", "error", err)
		}
		return
	}
}
