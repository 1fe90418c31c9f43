package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"filedepot/internal/core/digest"
	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
)

type sqlFileRepository struct {
	db SQLQuerier
}

// NewSQLFileRepository creates a sqlFileRepository that implements port.FileRepository
func NewSQLFileRepository(db SQLQuerier) port.FileRepository {
	return &sqlFileRepository{db: db}
}

// InsertIfAbsent claims the digest for file, or yields to the row that
// already owns it. Exactly one of two concurrent callers for the same
// digest observes inserted=true.
func (s *sqlFileRepository) InsertIfAbsent(ctx context.Context, file domain.FinalizedFile) (*domain.FinalizedFile, bool, error) {
	query := `
		INSERT INTO finalized_files (id, digest, size_bytes, storage_locator, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (digest) DO NOTHING`

	result, err := s.db.ExecContext(
		ctx,
		query,
		file.ID,
		string(file.Digest),
		file.SizeBytes,
		file.Locator,
		file.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("error inserting finalized file: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	if rows > 0 {
		return &file, true, nil
	}

	winner, err := s.FindByDigest(ctx, file.Digest)
	if err != nil {
		return nil, false, err
	}
	return winner, false, nil
}

func (s *sqlFileRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.FinalizedFile, error) {
	query := `
		SELECT id, digest, size_bytes, storage_locator, created_at
		FROM finalized_files
		WHERE id = $1`

	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

func (s *sqlFileRepository) FindByDigest(ctx context.Context, d digest.Digest) (*domain.FinalizedFile, error) {
	query := `
		SELECT id, digest, size_bytes, storage_locator, created_at
		FROM finalized_files
		WHERE digest = $1`

	return s.scanOne(s.db.QueryRowContext(ctx, query, string(d)))
}

func (s *sqlFileRepository) scanOne(row *sql.Row) (*domain.FinalizedFile, error) {
	var dbRow dbFinalizedFile
	err := row.Scan(
		&dbRow.ID,
		&dbRow.Digest,
		&dbRow.SizeBytes,
		&dbRow.StorageLocator,
		&dbRow.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFileNotFound
		}
		return nil, err
	}

	return dbRow.ToDomain(), nil
}

type dbFinalizedFile struct {
	ID             uuid.UUID `db:"id"`
	Digest         string    `db:"digest"`
	SizeBytes      int64     `db:"size_bytes"`
	StorageLocator string    `db:"storage_locator"`
	CreatedAt      time.Time `db:"created_at"`
}

// ToDomain converts db obj to domain
func (f *dbFinalizedFile) ToDomain() *domain.FinalizedFile {
	return &domain.FinalizedFile{
		ID:        f.ID,
		Digest:    digest.Digest(f.Digest),
		SizeBytes: f.SizeBytes,
		Locator:   f.StorageLocator,
		CreatedAt: f.CreatedAt,
	}
}
