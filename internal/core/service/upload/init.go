package upload

import (
	"context"
	"fmt"
	"time"

	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
)

func (s *uploadService) Init(ctx context.Context, params port.InitParams) (*domain.UploadSession, error) {
	if params.FileName == "" {
		return nil, fmt.Errorf("file name is required: %w", domain.ErrInvalidArgument)
	}
	if params.TotalSize <= 0 {
		return nil, fmt.Errorf("total size must be positive, got %d: %w", params.TotalSize, domain.ErrInvalidArgument)
	}
	if s.cfg.MaxFileSizeBytes > 0 && params.TotalSize > s.cfg.MaxFileSizeBytes {
		return nil, fmt.Errorf("total size %d exceeds the %d byte limit: %w", params.TotalSize, s.cfg.MaxFileSizeBytes, domain.ErrFileSizeTooBig)
	}
	if err := s.validateExtension(params.FileName); err != nil {
		return nil, err
	}

	chunkSize := params.ChunkSize
	if chunkSize == 0 {
		chunkSize = s.cfg.ChunkSizeBytes
	}
	if chunkSize < s.cfg.MinChunkSizeBytes || chunkSize > s.cfg.MaxChunkSizeBytes {
		return nil, fmt.Errorf("chunk size %d outside [%d, %d]: %w", chunkSize, s.cfg.MinChunkSizeBytes, s.cfg.MaxChunkSizeBytes, domain.ErrInvalidArgument)
	}

	declared := params.DeclaredDigest
	if !declared.IsZero() {
		var err error
		if declared, err = parseDigest(declared, "declared digest"); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	session := domain.UploadSession{
		ID:             uuid.New(),
		FileName:       params.FileName,
		TotalSize:      params.TotalSize,
		DeclaredDigest: declared,
		ChunkSize:      chunkSize,
		TotalChunks:    domain.ChunkCount(params.TotalSize, chunkSize),
		Status:         domain.SessionStatusInitialized,
		OwnerID:        params.OwnerID,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(s.cfg.Retention),
	}

	if err := s.uow.SessionRepo().Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("upload session initialized",
		"sessionId", session.ID,
		"fileName", session.FileName,
		"totalSize", session.TotalSize,
		"chunkSize", session.ChunkSize,
		"totalChunks", session.TotalChunks,
	)

	return &session, nil
}
