package file

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"filedepot/internal/core/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// V1GetFileResponse is the metadata of a finalized file
type V1GetFileResponse struct {
	FileID    uuid.UUID `json:"file_id"`
	Digest    string    `json:"digest"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *HandlerV1) GetFileV1(w http.ResponseWriter, r *http.Request) {
	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		http.Error(w, "invalid file id", http.StatusBadRequest)
		return
	}

	found, findErr := h.uploadService.FindFile(r.Context(), fileID)
	switch {
	case errors.Is(findErr, domain.ErrFileNotFound):
		http.Error(w, findErr.Error(), http.StatusNotFound)
		return
	case findErr != nil:
		h.logger.Error("error fetching file", "fileId", fileID, "error", findErr)
		http.Error(w, "internal server error", http.StatusServiceUnavailable)
		return
	default:
		resp := V1GetFileResponse{
			FileID:    found.ID,
			Digest:    string(found.Digest),
			SizeBytes: found.SizeBytes,
			CreatedAt: found.CreatedAt,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			h.logger.Error("error encoding response", "error", err)
		}
		return
	}
}
