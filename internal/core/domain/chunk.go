package domain

import (
	"time"

	"filedepot/internal/core/digest"

	"github.com/google/uuid"
)

// ChunkRecord represents one stored chunk of an upload session.
// Records are inserted once per (session, index) and never updated;
// re-uploading a present index is a no-op at the service layer.
type ChunkRecord struct {
	SessionID      uuid.UUID
	Index          int
	SizeBytes      int64
	Digest         digest.Digest
	StorageLocator string
	UploadedAt     time.Time
}

// MissingIndexes derives the index set a resumable client still has to
// upload: the full [0, totalChunks) range minus the uploaded indexes.
func MissingIndexes(totalChunks int, uploaded []int) []int {
	present := make(map[int]struct{}, len(uploaded))
	for _, idx := range uploaded {
		present[idx] = struct{}{}
	}

	missing := make([]int, 0, totalChunks-len(present))
	for idx := 0; idx < totalChunks; idx++ {
		if _, ok := present[idx]; !ok {
			missing = append(missing, idx)
		}
	}
	return missing
}
