package port

import (
	"context"
	"time"
)

// CleanupService is service that reclaims expired sessions and
// orphaned chunk storage
type CleanupService interface {
	// CleanupExpiredSessions removes every non-merged session whose
	// deadline passed before now and returns how many were cleaned.
	CleanupExpiredSessions(ctx context.Context, now time.Time) (int, error)
	// CleanupOrphanedData removes chunk data whose session is gone or
	// terminal, the leftovers of interrupted cancels and merges.
	CleanupOrphanedData(ctx context.Context) (int, error)
}
