package upload

import (
	"log/slog"

	"filedepot/internal/core/port"
	"filedepot/internal/metrics"

	"github.com/go-chi/chi/v5"
)

// HandlerV1 is the handler for v1 upload session routes
type HandlerV1 struct {
	uploadService port.UploadService
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// NewUploadHandlerV1 creates HandlerV1
func NewUploadHandlerV1(service port.UploadService, m *metrics.Metrics, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		uploadService: service,
		metrics:       m,
		logger:        logger,
	}
}

// Routes exposes handler routes
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/sessions", h.InitSessionV1)
	router.Get("/sessions/{sessionID}", h.GetSessionV1)
	router.Delete("/sessions/{sessionID}", h.CancelSessionV1)
	router.Put("/sessions/{sessionID}/chunks/{chunkIndex}", h.UploadChunkV1)
	router.Post("/sessions/{sessionID}/chunks/{chunkIndex}/verify", h.ValidateChunkV1)
	router.Post("/sessions/{sessionID}/merge", h.MergeSessionV1)

	return router
}
