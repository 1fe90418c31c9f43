package domain

import (
	"time"

	"filedepot/internal/core/digest"

	"github.com/google/uuid"
)

// FileFinalized is the event published after a merge finishes. Dedup
// is true when the session attached to an already-stored copy instead
// of producing a new one.
type FileFinalized struct {
	SessionID uuid.UUID     `json:"session_id"`
	FileID    uuid.UUID     `json:"file_id"`
	FileName  string        `json:"file_name"`
	Digest    digest.Digest `json:"digest"`
	SizeBytes int64         `json:"size_bytes"`
	Dedup     bool          `json:"dedup"`
	MergedAt  time.Time     `json:"merged_at"`
}
