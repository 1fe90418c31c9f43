package port

import (
	"context"

	"filedepot/internal/core/domain"

	"github.com/google/uuid"
)

// ChunkRepository is an interface to interact with chunk records.
// The record set is the source of truth for progress: counts and
// missing-index lists are always derived from it, never from a
// separately maintained counter.
type ChunkRepository interface {
	// Insert adds the record unless (session, index) is already
	// present. Returns false for the already-present case, so a
	// same-index race produces at most one counted write.
	Insert(ctx context.Context, record domain.ChunkRecord) (bool, error)
	Exists(ctx context.Context, sessionID uuid.UUID, index int) (bool, error)
	Find(ctx context.Context, sessionID uuid.UUID, index int) (*domain.ChunkRecord, error)
	// ListBySession returns records ordered by index, the order merge
	// reads them in.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.ChunkRecord, error)
	Indexes(ctx context.Context, sessionID uuid.UUID) ([]int, error)
	CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error)
	DeleteBySession(ctx context.Context, sessionID uuid.UUID) (int64, error)
}
