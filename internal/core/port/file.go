package port

import (
	"context"

	"filedepot/internal/core/digest"
	"filedepot/internal/core/domain"

	"github.com/google/uuid"
)

// FileRepository is the content-addressable index: digest → finalized
// file. Merge consults it before keeping freshly assembled bytes.
type FileRepository interface {
	// InsertIfAbsent stores the file unless its digest is already
	// indexed. It returns the row that owns the digest afterwards and
	// whether the given file is that row. Two concurrent merges of
	// identical content converge here: exactly one caller sees
	// inserted=true.
	InsertIfAbsent(ctx context.Context, file domain.FinalizedFile) (*domain.FinalizedFile, bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.FinalizedFile, error)
	FindByDigest(ctx context.Context, d digest.Digest) (*domain.FinalizedFile, error)
}
