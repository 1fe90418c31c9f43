package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"filedepot/internal/core/digest"
	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
)

func (s *uploadService) UploadChunk(ctx context.Context, sessionID uuid.UUID, index int, r io.Reader, size int64, chunkDigest digest.Digest) (*port.UploadProgress, error) {
	session, err := s.uow.SessionRepo().FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.checkLive(session, time.Now().UTC()); err != nil {
		return nil, err
	}

	if index < 0 || index >= session.TotalChunks {
		return nil, fmt.Errorf("chunk index %d outside [0, %d): %w", index, session.TotalChunks, domain.ErrInvalidArgument)
	}
	if expected := session.ExpectedChunkSize(index); size != expected {
		return nil, fmt.Errorf("chunk %d must be %d bytes, got %d: %w", index, expected, size, domain.ErrSizeMismatch)
	}
	if !chunkDigest.IsZero() {
		if chunkDigest, err = parseDigest(chunkDigest, "chunk digest"); err != nil {
			return nil, err
		}
	}

	// Re-sending a recorded chunk is a no-op; the body stays unread.
	recorded, err := s.uow.ChunkRepo().Exists(ctx, sessionID, index)
	if err != nil {
		return nil, err
	}
	if recorded {
		return s.progress(ctx, sessionID, session.TotalChunks)
	}

	verify := s.cfg.EnableDigestCheck && !chunkDigest.IsZero()
	body := r
	var digester *digest.Digester
	if verify {
		if digester, err = digest.NewDigester(chunkDigest.Algorithm()); err != nil {
			return nil, fmt.Errorf("chunk digest: %v: %w", err, domain.ErrInvalidArgument)
		}
		body = io.TeeReader(r, digester)
	}

	locator, err := s.store.WriteChunk(ctx, sessionID, index, body, size)
	if errors.Is(err, domain.ErrChunkExists) {
		locator, err = s.rewriteChunk(ctx, sessionID, index, body, size)
		if err == nil && locator == "" {
			// A concurrent attempt recorded the chunk first.
			return s.progress(ctx, sessionID, session.TotalChunks)
		}
	}
	if err != nil {
		return nil, err
	}

	if verify {
		if got := digester.Digest(); !got.Equal(chunkDigest) {
			if rmErr := s.store.RemoveChunk(ctx, sessionID, index); rmErr != nil {
				s.logger.Error("failed to remove mismatched chunk", "sessionId", sessionID, "chunkIndex", index, "error", rmErr)
			}
			return nil, fmt.Errorf("chunk %d digest %s, declared %s: %w", index, got, chunkDigest, domain.ErrDigestMismatch)
		}
	}

	record := domain.ChunkRecord{
		SessionID:      sessionID,
		Index:          index,
		SizeBytes:      size,
		Digest:         chunkDigest,
		StorageLocator: locator,
		UploadedAt:     time.Now().UTC(),
	}

	var progress *port.UploadProgress
	err = s.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		// A same-index race may have inserted first; the count below
		// is right either way.
		if _, err := uow.ChunkRepo().Insert(ctx, record); err != nil {
			return err
		}

		count, err := uow.ChunkRepo().CountBySession(ctx, sessionID)
		if err != nil {
			return err
		}

		next := domain.SessionStatusUploading
		if count >= session.TotalChunks {
			next = domain.SessionStatusCompleted
		}
		// The guard drops the update when the session moved on
		// already, for example a second uploader completed it.
		if _, err := uow.SessionRepo().UpdateStatus(ctx, sessionID, next); err != nil {
			return err
		}

		progress = progressOf(count, session.TotalChunks)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return progress, nil
}

// rewriteChunk handles a store hit without a matching record: an
// earlier attempt stopped between the byte write and the insert. The
// stale bytes are dropped and rewritten from the caller's reader.
// When the record does exist the write raced a finished upload and
// the empty locator tells the caller to report progress instead.
func (s *uploadService) rewriteChunk(ctx context.Context, sessionID uuid.UUID, index int, body io.Reader, size int64) (string, error) {
	recorded, err := s.uow.ChunkRepo().Exists(ctx, sessionID, index)
	if err != nil {
		return "", err
	}
	if recorded {
		return "", nil
	}

	if err := s.store.RemoveChunk(ctx, sessionID, index); err != nil {
		return "", err
	}
	return s.store.WriteChunk(ctx, sessionID, index, body, size)
}

func (s *uploadService) progress(ctx context.Context, sessionID uuid.UUID, totalChunks int) (*port.UploadProgress, error) {
	count, err := s.uow.ChunkRepo().CountBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return progressOf(count, totalChunks), nil
}
