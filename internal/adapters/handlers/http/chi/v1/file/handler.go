package file

import (
	"log/slog"

	"filedepot/internal/core/port"

	"github.com/go-chi/chi/v5"
)

// HandlerV1 is the handler for v1 finalized file routes
type HandlerV1 struct {
	uploadService port.UploadService
	logger        *slog.Logger
}

// NewFileHandlerV1 creates HandlerV1
func NewFileHandlerV1(service port.UploadService, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		uploadService: service,
		logger:        logger,
	}
}

// Routes exposes handler routes
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/digest/{digest}", h.GetFileByDigestV1)
	router.Get("/{fileID}", h.GetFileV1)

	return router
}
