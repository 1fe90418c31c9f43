package port

import (
	"context"
	"io"

	"filedepot/internal/core/digest"
	"filedepot/internal/core/domain"

	"github.com/google/uuid"
)

// InitParams carries the caller's description of the upload to start
type InitParams struct {
	FileName       string
	TotalSize      int64
	ChunkSize      int64
	DeclaredDigest digest.Digest
	OwnerID        string
}

// UploadProgress reports chunk-level progress after an upload call
type UploadProgress struct {
	UploadedChunks int
	TotalChunks    int
	Percent        float64
	Status         domain.SessionStatus
}

// SessionDetail is the resumable-client view of a session: its
// metadata plus which indexes are present and which are still missing.
type SessionDetail struct {
	Session         domain.UploadSession
	UploadedIndexes []int
	MissingIndexes  []int
}

// MergeResult references the finalized file a merge produced or, when
// the content was already stored, attached to.
type MergeResult struct {
	File  domain.FinalizedFile
	Dedup bool
}

// UploadService is an interface to define the upload session manager,
// the only entry point callers use to drive the chunked upload
// lifecycle.
type UploadService interface {
	Init(ctx context.Context, params InitParams) (*domain.UploadSession, error)
	UploadChunk(ctx context.Context, sessionID uuid.UUID, index int, r io.Reader, size int64, chunkDigest digest.Digest) (*UploadProgress, error)
	Status(ctx context.Context, sessionID uuid.UUID) (*SessionDetail, error)
	Merge(ctx context.Context, sessionID uuid.UUID, expectedDigest digest.Digest) (*MergeResult, error)
	Cancel(ctx context.Context, sessionID uuid.UUID) error
	ValidateChunk(ctx context.Context, sessionID uuid.UUID, index int, expected digest.Digest) (bool, error)
	FindFile(ctx context.Context, fileID uuid.UUID) (*domain.FinalizedFile, error)
	FindFileByDigest(ctx context.Context, d digest.Digest) (*domain.FinalizedFile, error)
}
