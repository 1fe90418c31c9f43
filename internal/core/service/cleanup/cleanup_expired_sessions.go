package cleanup

import (
	"context"
	"errors"
	"time"

	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"
)

// CleanupExpiredSessions finds sessions past their deadline and
// reclaims their chunk bytes, chunk records and registry rows. One
// failing session never stops the sweep; it stays behind for the next
// pass.
func (c *cleanupService) CleanupExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	sessions, err := c.uow.SessionRepo().FindExpired(ctx, now, sweepBatch)
	if err != nil {
		return 0, err
	}

	cleaned := 0
	for _, session := range sessions {
		if !c.markExpired(ctx, session) {
			continue
		}

		if err := c.store.RemoveSession(ctx, session.ID); err != nil {
			c.logger.Error("failed to remove expired session chunks", "sessionId", session.ID, "error", err)
			continue
		}

		txErr := c.uow.Execute(ctx, func(uow port.UnitOfWork) error {
			if _, err := uow.ChunkRepo().DeleteBySession(ctx, session.ID); err != nil {
				return err
			}
			return uow.SessionRepo().Delete(ctx, session.ID)
		})
		if txErr != nil {
			c.logger.Error("failed to delete expired session", "sessionId", session.ID, "error", txErr)
			continue
		}

		cleaned++
	}

	c.logger.Info("expired session sweep completed", "found", len(sessions), "cleaned", cleaned)

	return cleaned, nil
}

// markExpired transitions the session to expired and reports whether
// the sweep may reclaim it. A session that became merged in the
// meantime belongs to its merge and is left alone.
func (c *cleanupService) markExpired(ctx context.Context, session domain.UploadSession) bool {
	if session.Status.IsTerminal() {
		return true
	}

	moved, err := c.uow.SessionRepo().UpdateStatus(ctx, session.ID, domain.SessionStatusExpired)
	if err != nil {
		c.logger.Error("failed to mark session expired", "sessionId", session.ID, "error", err)
		return false
	}
	if moved {
		return true
	}

	current, err := c.uow.SessionRepo().FindByID(ctx, session.ID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		// A concurrent cancel finished the job.
		return false
	}
	if err != nil {
		c.logger.Error("failed to re-read session during sweep", "sessionId", session.ID, "error", err)
		return false
	}

	return current.Status != domain.SessionStatusMerged
}
