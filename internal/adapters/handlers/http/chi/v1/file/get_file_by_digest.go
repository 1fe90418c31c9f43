package file

import (
	"encoding/json"
	"errors"
	"net/http"

	"filedepot/internal/core/digest"
	"filedepot/internal/core/domain"

	"github.com/go-chi/chi/v5"
)

func (h *HandlerV1) GetFileByDigestV1(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "digest")
	if raw == "" {
		http.Error(w, "missing param", http.StatusBadRequest)
		return
	}

	found, findErr := h.uploadService.FindFileByDigest(r.Context(), digest.Digest(raw))
	switch {
	case errors.Is(findErr, domain.ErrInvalidArgument):
		http.Error(w, findErr.Error(), http.StatusBadRequest)
		return
	case errors.Is(findErr, domain.ErrFileNotFound):
		http.Error(w, findErr.Error(), http.StatusNotFound)
		return
	case findErr != nil:
		h.logger.Error("error fetching file by digest", "digest", raw, "error", findErr)
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
