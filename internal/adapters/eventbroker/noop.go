package eventbroker

import (
	"context"
	"log/slog"

	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"
)

// NoopPublisher stands in when no broker is configured. Events are
// logged and dropped.
type NoopPublisher struct {
	logger *slog.Logger
}

func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

var _ port.EventPublisher = (*NoopPublisher)(nil)

func (p *NoopPublisher) PublishFileFinalized(ctx context.Context, event domain.FileFinalized) error {
	p.logger.Debug("event broker disabled, dropping finalized event",
		slog.String("fileId", event.FileID.String()),
		slog.String("sessionId", event.SessionID.String()))
	return nil
}

func (p *NoopPublisher) Close() error {
	return nil
}
