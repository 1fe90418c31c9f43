package port

import (
	"context"
	"time"

	"filedepot/internal/core/domain"

	"github.com/google/uuid"
)

// SessionRepository is an interface to interact with the upload session registry
type SessionRepository interface {
	Create(ctx context.Context, session domain.UploadSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error)
	// FindByIDForUpdate locks the session row for the duration of the
	// surrounding unit of work. Merge uses it to observe the chunk set
	// consistently before transitioning.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error)
	// UpdateStatus performs a guarded transition: the row only changes
	// when its current status may legally move to next. Returns false
	// when the guard rejected the update.
	UpdateStatus(ctx context.Context, id uuid.UUID, next domain.SessionStatus) (bool, error)
	// SetFinalized transitions the session to next and attaches the
	// finalized file in the same guarded update.
	SetFinalized(ctx context.Context, id uuid.UUID, next domain.SessionStatus, fileID uuid.UUID) (bool, error)
	FindExpired(ctx context.Context, now time.Time, limit int) ([]domain.UploadSession, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
