package admin

import (
	"log/slog"

	"filedepot/internal/core/port"
	"filedepot/internal/metrics"

	"github.com/go-chi/chi/v5"
)

// HandlerV1 is the handler for v1 admin routes
type HandlerV1 struct {
	cleanupService port.CleanupService
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// NewAdminHandlerV1 creates HandlerV1
func NewAdminHandlerV1(service port.CleanupService, m *metrics.Metrics, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		cleanupService: service,
		metrics:        m,
		logger:         logger,
	}
}

// Routes exposes handler routes
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/cleanup", h.RunCleanupV1)

	return router
}
