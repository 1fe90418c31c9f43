package upload

import (
	"context"

	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
)

func (s *uploadService) Status(ctx context.Context, sessionID uuid.UUID) (*port.SessionDetail, error) {
	session, err := s.uow.SessionRepo().FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	indexes, err := s.uow.ChunkRepo().Indexes(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.UploadedChunks = len(indexes)

	return &port.SessionDetail{
		Session:         *session,
		UploadedIndexes: indexes,
		MissingIndexes:  domain.MissingIndexes(session.TotalChunks, indexes),
	}, nil
}
