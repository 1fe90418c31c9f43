package upload

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"filedepot/internal/core/digest"
	"filedepot/internal/core/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// V1MergeSessionRequest is the request to assemble a completed session.
// The body is optional, expected_digest adds a whole-file check on top
// of any digest declared at init.
type V1MergeSessionRequest struct {
	ExpectedDigest string `json:"expected_digest"`
}

// V1MergeSessionResponse references the finalized file the merge
// produced or, when the content was already stored, attached to
type V1MergeSessionResponse struct {
	FileID    uuid.UUID `json:"file_id"`
	Digest    string    `json:"digest"`
	SizeBytes int64     `json:"size_bytes"`
	Dedup     bool      `json:"dedup"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *HandlerV1) MergeSessionV1(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	var req V1MergeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Error("error decoding merge request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var expected digest.Digest
	if req.ExpectedDigest != "" {
		expected, err = digest.Parse(req.ExpectedDigest)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	result, mergeErr := h.uploadService.Merge(r.Context(), sessionID, expected)
	switch {
	case errors.Is(mergeErr, domain.ErrInvalidArgument):
		http.Error(w, mergeErr.Error(), http.StatusBadRequest)
		return
	case errors.Is(mergeErr, domain.ErrSessionNotFound), errors.Is(mergeErr, domain.ErrChunkNotFound):
		http.Error(w, mergeErr.Error(), http.StatusNotFound)
		return
	case errors.Is(mergeErr, domain.ErrSessionExpired):
		http.Error(w, mergeErr.Error(), http.StatusGone)
		return
	case errors.Is(mergeErr, domain.ErrInvalidState), errors.Is(mergeErr, domain.ErrIncompleteUpload):
		http.Error(w, mergeErr.Error(), http.StatusConflict)
		return
	case errors.Is(mergeErr, domain.ErrDigestMismatch):
		h.metrics.MergesTotal.WithLabelValues("digest_mismatch").Inc()
		http.Error(w, mergeErr.Error(), http.StatusUnprocessableEntity)
		return
	case mergeErr != nil:
		h.metrics.MergesTotal.WithLabelValues("error").Inc()
		h.logger.Error("error merging session", "sessionId", sessionID, "error", mergeErr)
		http.Error(w, "internal server error", http.StatusServiceUnavailable)
		return
	default:
		h.metrics.MergesTotal.WithLabelValues("ok").Inc()
		if result.Dedup {
			h.metrics.DedupHits.Inc()
		}

		resp := V1MergeSessionResponse{
			FileID:    result.File.ID,
			Digest:    string(result.File.Digest),
			SizeBytes: result.File.SizeBytes,
			Dedup:     result.Dedup,
			CreatedAt: result.File.CreatedAt,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			h.logger.Error("error encoding response", "error", err)
		}
		return
	}
}
