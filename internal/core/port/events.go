package port

import (
	"context"

	"filedepot/internal/core/domain"
)

// EventPublisher is an interface to announce finalized files to
// downstream consumers (nats, kafka, ...)
type EventPublisher interface {
	PublishFileFinalized(ctx context.Context, event domain.FileFinalized) error
	Close() error
}
