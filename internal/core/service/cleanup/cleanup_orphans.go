package cleanup

import (
	"context"
	"errors"

	"filedepot/internal/core/domain"
)

// CleanupOrphanedData walks the chunk store and drops data no live
// session owns: sessions the registry no longer knows, and terminal
// sessions whose release was interrupted. Chunk records go with the
// bytes so the registry never outlives the storage.
func (c *cleanupService) CleanupOrphanedData(ctx context.Context) (int, error) {
	ids, err := c.store.SessionIDs(ctx)
	if err != nil {
		return 0, err
	}

	cleaned := 0
	for _, id := range ids {
		session, err := c.uow.SessionRepo().FindByID(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			c.logger.Error("failed to look up session during orphan sweep", "sessionId", id, "error", err)
			continue
		}
		if session != nil && !session.Status.IsTerminal() {
			continue
		}

		if err := c.store.RemoveSession(ctx, id); err != nil {
			c.logger.Error("failed to remove orphaned chunks", "sessionId", id, "error", err)
			continue
		}
		if _, err := c.uow.ChunkRepo().DeleteBySession(ctx, id); err != nil {
			c.logger.Error("failed to delete orphaned chunk records", "sessionId", id, "error", err)
			continue
		}

		cleaned++
	}

	if cleaned > 0 {
		c.logger.Info("orphaned chunk sweep completed", "cleaned", cleaned)
	}

	return cleaned, nil
}
