package domain

import (
	"time"

	"filedepot/internal/core/digest"

	"github.com/google/uuid"
)

// SessionStatus represents the status of an upload session
type SessionStatus string

const (
	SessionStatusInitialized SessionStatus = "initialized"
	SessionStatusUploading   SessionStatus = "uploading"
	SessionStatusCompleted   SessionStatus = "completed"
	SessionStatusMerged      SessionStatus = "merged"
	SessionStatusCancelled   SessionStatus = "cancelled"
	SessionStatusExpired     SessionStatus = "expired"
)

// IsTerminal reports whether no further transition is allowed from the status
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionStatusMerged, SessionStatusCancelled, SessionStatusExpired:
		return true
	}
	return false
}

// nextStatuses lists the legal forward transitions. Transitions are
// monotonic: once a status leaves this map's reach it never comes back.
var nextStatuses = map[SessionStatus][]SessionStatus{
	SessionStatusInitialized: {SessionStatusUploading, SessionStatusCompleted, SessionStatusCancelled, SessionStatusExpired},
	SessionStatusUploading:   {SessionStatusCompleted, SessionStatusCancelled, SessionStatusExpired},
	SessionStatusCompleted:   {SessionStatusMerged, SessionStatusCancelled, SessionStatusExpired},
}

// CanTransition reports whether moving from s to next is legal
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	for _, allowed := range nextStatuses[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedFrom returns every status that may legally move to next.
// Repositories use it to guard UPDATEs so concurrent transitions
// cannot rewind a session.
func AllowedFrom(next SessionStatus) []SessionStatus {
	var from []SessionStatus
	for status, nexts := range nextStatuses {
		for _, allowed := range nexts {
			if allowed == next {
				from = append(from, status)
			}
		}
	}
	return from
}

// UploadSession represents one chunked upload, in progress or finished
type UploadSession struct {
	ID              uuid.UUID
	FileName        string
	TotalSize       int64
	DeclaredDigest  digest.Digest
	ChunkSize       int64
	TotalChunks     int
	UploadedChunks  int
	Status          SessionStatus
	OwnerID         string
	FinalizedFileID *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ExpiresAt       time.Time
}

// ChunkCount computes how many chunks a file of totalSize needs at chunkSize
func ChunkCount(totalSize, chunkSize int64) int {
	if totalSize <= 0 || chunkSize <= 0 {
		return 0
	}
	return int((totalSize + chunkSize - 1) / chunkSize)
}

// ExpectedChunkSize returns the byte length chunk index must have.
// Every chunk is ChunkSize long except the last, which holds the
// remainder.
func (s *UploadSession) ExpectedChunkSize(index int) int64 {
	if index < 0 || index >= s.TotalChunks {
		return 0
	}
	if index == s.TotalChunks-1 {
		return s.TotalSize - int64(index)*s.ChunkSize
	}
	return s.ChunkSize
}

// ExpiredAt reports whether the session deadline has passed at now
func (s *UploadSession) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Progress returns uploaded chunks as a percentage of the total
func (s *UploadSession) Progress() float64 {
	if s.TotalChunks == 0 {
		return 0
	}
	return float64(s.UploadedChunks) / float64(s.TotalChunks) * 100
}
