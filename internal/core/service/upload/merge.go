package upload

import (
	"context"
	"fmt"
	"time"

	"filedepot/internal/core/digest"
	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
)

func (s *uploadService) Merge(ctx context.Context, sessionID uuid.UUID, expectedDigest digest.Digest) (*port.MergeResult, error) {
	var err error
	if !expectedDigest.IsZero() {
		if expectedDigest, err = parseDigest(expectedDigest, "expected digest"); err != nil {
			return nil, err
		}
	}

	var (
		session *domain.UploadSession
		records []domain.ChunkRecord
	)
	err = s.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		// The row lock holds concurrent merges and cancels off until
		// the chunk set has been read consistently.
		locked, err := uow.SessionRepo().FindByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := s.checkLive(locked, time.Now().UTC()); err != nil {
			return err
		}
		if locked.Status != domain.SessionStatusCompleted {
			return fmt.Errorf("session %s is %s, want %s: %w", sessionID, locked.Status, domain.SessionStatusCompleted, domain.ErrInvalidState)
		}

		rows, err := uow.ChunkRepo().ListBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		if len(rows) != locked.TotalChunks {
			return fmt.Errorf("session %s holds %d of %d chunks: %w", sessionID, len(rows), locked.TotalChunks, domain.ErrIncompleteUpload)
		}

		session = locked
		records = rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	target, alg, err := s.mergeTarget(expectedDigest, session.DeclaredDigest)
	if err != nil {
		return nil, err
	}

	fileID, locator, actual, err := s.assemble(ctx, session, records, alg)
	if err != nil {
		return nil, err
	}

	if !target.IsZero() && !actual.Equal(target) {
		s.discardFile(ctx, locator)
		return nil, fmt.Errorf("assembled digest %s, want %s: %w", actual, target, domain.ErrDigestMismatch)
	}

	file := domain.FinalizedFile{
		ID:        fileID,
		Digest:    actual.Normalized(),
		SizeBytes: session.TotalSize,
		Locator:   locator,
		CreatedAt: time.Now().UTC(),
	}

	var result *port.MergeResult
	err = s.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		winner, inserted, err := uow.FileRepo().InsertIfAbsent(ctx, file)
		if err != nil {
			return err
		}

		moved, err := uow.SessionRepo().SetFinalized(ctx, sessionID, domain.SessionStatusMerged, winner.ID)
		if err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("session %s left %s during merge: %w", sessionID, domain.SessionStatusCompleted, domain.ErrInvalidState)
		}

		result = &port.MergeResult{File: *winner, Dedup: !inserted}
		return nil
	})
	if err != nil {
		// The transaction rolled back, so the assembled copy is ours
		// to discard whether or not the insert went through.
		s.discardFile(ctx, locator)
		return nil, err
	}

	if result.Dedup {
		// Identical content is already indexed under another locator.
		s.discardFile(ctx, locator)
	}

	s.logger.Info("upload session merged",
		"sessionId", sessionID,
		"fileId", result.File.ID,
		"digest", result.File.Digest,
		"sizeBytes", result.File.SizeBytes,
		"dedup", result.Dedup,
	)

	s.releaseChunks(sessionID)
	s.publishFinalized(ctx, session, result)

	return result, nil
}

// mergeTarget picks the digest the assembled bytes must match and the
// algorithm to hash with. An explicit expected digest outranks the
// digest declared at init; with neither, the configured algorithm
// hashes for the dedup index alone.
func (s *uploadService) mergeTarget(expected, declared digest.Digest) (digest.Digest, digest.Algorithm, error) {
	switch {
	case !expected.IsZero() && !declared.IsZero():
		if expected.Algorithm() != declared.Algorithm() {
			return "", "", fmt.Errorf("expected digest uses %s, declared uses %s: %w", expected.Algorithm(), declared.Algorithm(), domain.ErrInvalidArgument)
		}
		if !expected.Equal(declared) {
			// They cannot both match one content.
			return "", "", fmt.Errorf("expected digest %s contradicts declared %s: %w", expected, declared, domain.ErrDigestMismatch)
		}
		return expected, expected.Algorithm(), nil
	case !expected.IsZero():
		return expected, expected.Algorithm(), nil
	case !declared.IsZero():
		return declared, declared.Algorithm(), nil
	default:
		return "", s.alg, nil
	}
}

func (s *uploadService) discardFile(ctx context.Context, locator string) {
	if err := s.store.RemoveFile(ctx, locator); err != nil {
		s.logger.Error("failed to remove assembled file", "locator", locator, "error", err)
	}
}

// releaseChunks reclaims the session's chunk records and bytes in the
// background. They are disposable the moment the finalized file row
// is durable; anything left behind by a failure here is collected by
// the cleanup sweep.
func (s *uploadService) releaseChunks(sessionID uuid.UUID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if _, err := s.uow.ChunkRepo().DeleteBySession(ctx, sessionID); err != nil {
			s.logger.Error("failed to delete merged session chunk records", "sessionId", sessionID, "error", err)
			return
		}
		if err := s.store.RemoveSession(ctx, sessionID); err != nil {
			s.logger.Error("failed to remove merged session chunks", "sessionId", sessionID, "error", err)
		}
	}()
}

// publishFinalized announces the merge. Publishing is best effort; a
// failed publish never unwinds a merge.
func (s *uploadService) publishFinalized(ctx context.Context, session *domain.UploadSession, result *port.MergeResult) {
	event := domain.FileFinalized{
		SessionID: session.ID,
		FileID:    result.File.ID,
		FileName:  session.FileName,
		Digest:    result.File.Digest,
		SizeBytes: result.File.SizeBytes,
		Dedup:     result.Dedup,
		MergedAt:  time.Now().UTC(),
	}

	if err := s.events.PublishFileFinalized(ctx, event); err != nil {
		s.logger.Error("failed to publish file finalized event", "sessionId", session.ID, "fileId", result.File.ID, "error", err)
	}
}
