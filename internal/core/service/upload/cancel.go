package upload

import (
	"context"
	"errors"

	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
)

func (s *uploadService) Cancel(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.uow.SessionRepo().FindByID(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		// Cancelling twice is fine; the first call removed the row.
		return nil
	}
	if err != nil {
		return err
	}

	if session.Status == domain.SessionStatusMerged {
		return nil
	}

	if !session.Status.IsTerminal() {
		moved, err := s.uow.SessionRepo().UpdateStatus(ctx, sessionID, domain.SessionStatusCancelled)
		if err != nil {
			return err
		}
		if !moved {
			// Lost the transition to a concurrent caller. A finished
			// merge keeps its session; anything else still needs the
			// reclaim below.
			current, err := s.uow.SessionRepo().FindByID(ctx, sessionID)
			if errors.Is(err, domain.ErrSessionNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if current.Status == domain.SessionStatusMerged {
				return nil
			}
		}
	}

	// Bytes go first: if the record deletes below fail, the session
	// stays visible and the sweep retries the whole reclaim later.
	if err := s.store.RemoveSession(ctx, sessionID); err != nil {
		return err
	}

	err = s.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		if _, err := uow.ChunkRepo().DeleteBySession(ctx, sessionID); err != nil {
			return err
		}
		return uow.SessionRepo().Delete(ctx, sessionID)
	})
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return err
	}

	s.logger.Info("upload session cancelled", "sessionId", sessionID)

	return nil
}
