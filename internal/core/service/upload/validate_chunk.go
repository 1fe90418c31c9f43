package upload

import (
	"context"
	"fmt"

	"filedepot/internal/core/digest"
	"filedepot/internal/core/domain"

	"github.com/google/uuid"
)

// ValidateChunk rehashes the stored bytes of one chunk and compares
// them to the expected digest. It reports false on a differing digest
// and errors when the chunk is missing or its stored length drifted
// from the record.
func (s *uploadService) ValidateChunk(ctx context.Context, sessionID uuid.UUID, index int, expected digest.Digest) (bool, error) {
	if expected.IsZero() {
		return false, fmt.Errorf("expected digest is required: %w", domain.ErrInvalidArgument)
	}
	expected, err := parseDigest(expected, "expected digest")
	if err != nil {
		return false, err
	}

	record, err := s.uow.ChunkRepo().Find(ctx, sessionID, index)
	if err != nil {
		return false, err
	}

	rc, err := s.store.ReadChunk(ctx, sessionID, index)
	if err != nil {
		return false, err
	}
	defer rc.Close()

	actual, n, err := digest.FromReader(expected.Algorithm(), rc)
	if err != nil {
		return false, err
	}
	if n != record.SizeBytes {
		return false, fmt.Errorf("chunk %d holds %d bytes, recorded %d: %w", index, n, record.SizeBytes, domain.ErrSizeMismatch)
	}

	return actual.Equal(expected), nil
}
