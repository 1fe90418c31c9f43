package port

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// ChunkStore is an interface to define durable byte storage for chunks
// and assembled files. Implementations may back it with local disk, a
// network share or object storage; callers only hold the opaque
// locator strings the store hands back.
type ChunkStore interface {
	// WriteChunk persists the chunk bytes for (session, index) and
	// returns the storage locator. Writes are create-once: a second
	// write for a present chunk fails with domain.ErrChunkExists, and
	// the check happens before any byte is read from r so the caller
	// may retry with the same reader. Once WriteChunk returns, the
	// bytes survive a process restart.
	WriteChunk(ctx context.Context, sessionID uuid.UUID, index int, r io.Reader, size int64) (string, error)
	HasChunk(ctx context.Context, sessionID uuid.UUID, index int) (bool, error)
	ReadChunk(ctx context.Context, sessionID uuid.UUID, index int) (io.ReadCloser, error)
	// RemoveChunk discards a single chunk. Upload uses it to drop
	// bytes that failed verification so a retry can write again.
	RemoveChunk(ctx context.Context, sessionID uuid.UUID, index int) error
	// RemoveSession deletes every chunk the session ever wrote. It is
	// idempotent; removing an unknown session is not an error.
	RemoveSession(ctx context.Context, sessionID uuid.UUID) error
	// SessionIDs lists the sessions that currently hold chunk data.
	// The sweeper diffs it against the registry to collect orphans.
	SessionIDs(ctx context.Context) ([]uuid.UUID, error)

	// WriteFile persists assembled file content and returns its
	// locator with the byte count written.
	WriteFile(ctx context.Context, fileID uuid.UUID, r io.Reader, size int64) (string, int64, error)
	ReadFile(ctx context.Context, locator string) (io.ReadCloser, error)
	RemoveFile(ctx context.Context, locator string) error
}
