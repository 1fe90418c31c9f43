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

// ChunkDigestHeader carries the client's digest of the chunk body,
// e.g. "sha256:9f86d0...". When present the stored bytes are verified
// against it.
const ChunkDigestHeader = "X-Chunk-Digest"

// V1UploadChunkResponse reports session progress after a chunk upload
type V1UploadChunkResponse struct {
	SessionID      uuid.UUID `json:"session_id"`
	ChunkIndex     int       `json:"chunk_index"`
	UploadedChunks int       `json:"uploaded_chunks"`
	TotalChunks    int       `json:"total_chunks"`
	Percent        float64   `json:"percent"`
	Status         string    `json:"status"`
}

func (h *HandlerV1) UploadChunkV1(w http.ResponseWriter, r *http.Request) {
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

	// Chunk bodies arrive raw, the declared length is required up front
	if r.ContentLength < 0 {
		http.Error(w, "content length is required", http.StatusLengthRequired)
		return
	}

	var chunkDigest digest.Digest
	if raw := r.Header.Get(ChunkDigestHeader); raw != "" {
		chunkDigest, err = digest.Parse(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	progress, uploadErr := h.uploadService.UploadChunk(r.Context(), sessionID, index, r.Body, r.ContentLength, chunkDigest)
	switch {
	case errors.Is(uploadErr, domain.ErrInvalidArgument):
		h.logger.Error("invalid chunk upload", "sessionId", sessionID, "chunkIndex", index, "error", uploadErr)
		http.Error(w, uploadErr.Error(), http.StatusBadRequest)
		return
	case errors.Is(uploadErr, domain.ErrSessionNotFound):
		http.Error(w, uploadErr.Error(), http.StatusNotFound)
		return
	case errors.Is(uploadErr, domain.ErrSessionExpired):
		http.Error(w, uploadErr.Error(), http.StatusGone)
		return
	case errors.Is(uploadErr, domain.ErrInvalidState):
		http.Error(w, uploadErr.Error(), http.StatusConflict)
		return
	case errors.Is(uploadErr, domain.ErrSizeMismatch), errors.Is(uploadErr, domain.ErrDigestMismatch):
		http.Error(w, uploadErr.Error(), http.StatusUnprocessableEntity)
		return
	case uploadErr != nil:
		h.logger.Error("error uploading chunk", "sessionId", sessionID, "chunkIndex", index, "error", uploadErr)
		http.Error(w, "internal server error", http.StatusServiceUnavailable)
		return
	default:
		h.metrics.ChunksUploaded.Inc()
		h.metrics.ChunkBytes.Add(float64(r.ContentLength))

		resp := V1UploadChunkResponse{
			SessionID:      sessionID,
			ChunkIndex:     index,
			UploadedChunks: progress.UploadedChunks,
			TotalChunks:    progress.TotalChunks,
			Percent:        progress.Percent,
			Status:         string(progress.Status),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			h.logger.Error("error encoding response", "error", err)
		}
		return
	}
}
