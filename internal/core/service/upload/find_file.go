package upload

import (
	"context"

	"filedepot/internal/core/digest"
	"filedepot/internal/core/domain"

	"github.com/google/uuid"
)

func (s *uploadService) FindFile(ctx context.Context, fileID uuid.UUID) (*domain.FinalizedFile, error) {
	return s.uow.FileRepo().FindByID(ctx, fileID)
}

func (s *uploadService) FindFileByDigest(ctx context.Context, d digest.Digest) (*domain.FinalizedFile, error) {
	d, err := parseDigest(d, "digest")
	if err != nil {
		return nil, err
	}
	return s.uow.FileRepo().FindByDigest(ctx, d)
}
