package upload

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"filedepot/internal/core/digest"
	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
)

// V1InitSessionRequest is the request to open an upload session
type V1InitSessionRequest struct {
	FileName  string `json:"file_name"`
	TotalSize int64  `json:"total_size"`
	ChunkSize int64  `json:"chunk_size"`
	Digest    string `json:"digest"`
	OwnerID   string `json:"owner_id"`
}

// V1InitSessionResponse is the response to open an upload session
type V1InitSessionResponse struct {
	SessionID   uuid.UUID `json:"session_id"`
	FileName    string    `json:"file_name"`
	ChunkSize   int64     `json:"chunk_size"`
	TotalChunks int       `json:"total_chunks"`
	Status      string    `json:"status"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *HandlerV1) InitSessionV1(w http.ResponseWriter, r *http.Request) {

	var req V1InitSessionRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		h.logger.Error("error decoding init session request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.FileName == "" || req.TotalSize == 0 {
		http.Error(w, "missing param", http.StatusBadRequest)
		return
	}

	var declared digest.Digest
	if req.Digest != "" {
		declared, err = digest.Parse(req.Digest)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	session, initErr := h.uploadService.Init(r.Context(), port.InitParams{
		FileName:       req.FileName,
		TotalSize:      req.TotalSize,
		ChunkSize:      req.ChunkSize,
		DeclaredDigest: declared,
		OwnerID:        req.OwnerID,
	})
	switch {
	case errors.Is(initErr, domain.ErrInvalidArgument),
		errors.Is(initErr, domain.ErrFileSizeTooBig),
		errors.Is(initErr, domain.ErrExtensionNotAllowed):
		h.logger.Error("invalid init session request", "error", initErr)
		http.Error(w, initErr.Error(), http.StatusBadRequest)
		return
	case initErr != nil:
		h.logger.Error("error initializing upload session", "error", initErr)
		http.Error(w, "internal server error", http.StatusServiceUnavailable)
		return
	default:
		resp := V1InitSessionResponse{
			SessionID:   session.ID,
			FileName:    session.FileName,
			ChunkSize:   session.ChunkSize,
			TotalChunks: session.TotalChunks,
			Status:      string(session.Status),
			ExpiresAt:   session.ExpiresAt,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			h.logger.Error("error encoding response", "error", err)
		}
		return
	}

}
