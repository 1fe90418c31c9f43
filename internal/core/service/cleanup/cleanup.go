package cleanup

import (
	"log/slog"

	"filedepot/internal/core/port"
)

// sweepBatch bounds how many expired sessions one sweep pass loads.
const sweepBatch = 500

type cleanupService struct {
	uow    port.UnitOfWork
	store  port.ChunkStore
	logger *slog.Logger
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(uow port.UnitOfWork, store port.ChunkStore, logger *slog.Logger) port.CleanupService {
	return &cleanupService{
		uow:    uow,
		store:  store,
		logger: logger,
	}
}
