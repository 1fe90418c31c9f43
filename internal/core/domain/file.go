package domain

import (
	"time"

	"filedepot/internal/core/digest"

	"github.com/google/uuid"
)

// FinalizedFile represents assembled file content in the byte store.
// The digest is the dedup key: byte-identical uploads share one row
// and one stored copy, regardless of how many sessions produced them.
type FinalizedFile struct {
	ID        uuid.UUID
	Digest    digest.Digest
	SizeBytes int64
	Locator   string
	CreatedAt time.Time
}
