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

type sqlChunkRepository struct {
	db SQLQuerier
}

// NewSQLChunkRepository creates a sqlChunkRepository that implements port.ChunkRepository
func NewSQLChunkRepository(db SQLQuerier) port.ChunkRepository {
	return &sqlChunkRepository{db: db}
}

// Insert records a chunk. ON CONFLICT keeps a same-index retry or race
// down to a single counted row; the duplicate caller gets false.
func (s *sqlChunkRepository) Insert(ctx context.Context, record domain.ChunkRecord) (bool, error) {
	query := `
		INSERT INTO upload_chunks (session_id, chunk_index, size_bytes, digest, storage_locator, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, chunk_index) DO NOTHING`

	result, err := s.db.ExecContext(
		ctx,
		query,
		record.SessionID,
		record.Index,
		record.SizeBytes,
		string(record.Digest),
		record.StorageLocator,
		record.UploadedAt,
	)
	if err != nil {
		return false, fmt.Errorf("error inserting chunk record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (s *sqlChunkRepository) Exists(ctx context.Context, sessionID uuid.UUID, index int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM upload_chunks WHERE session_id = $1 AND chunk_index = $2)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, sessionID, index).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *sqlChunkRepository) Find(ctx context.Context, sessionID uuid.UUID, index int) (*domain.ChunkRecord, error) {
	query := `
		SELECT session_id, chunk_index, size_bytes, digest, storage_locator, uploaded_at
		FROM upload_chunks
		WHERE session_id = $1 AND chunk_index = $2`

	var row dbChunk
	err := s.db.QueryRowContext(ctx, query, sessionID, index).Scan(
		&row.SessionID,
		&row.Index,
		&row.SizeBytes,
		&row.Digest,
		&row.StorageLocator,
		&row.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrChunkNotFound
		}
		return nil, err
	}

	return row.ToDomain(), nil
}

func (s *sqlChunkRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.ChunkRecord, error) {
	query := `
		SELECT session_id, chunk_index, size_bytes, digest, storage_locator, uploaded_at
		FROM upload_chunks
		WHERE session_id = $1
		ORDER BY chunk_index`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.ChunkRecord
	for rows.Next() {
		var row dbChunk
		if err := rows.Scan(
			&row.SessionID,
			&row.Index,
			&row.SizeBytes,
			&row.Digest,
			&row.StorageLocator,
			&row.UploadedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, *row.ToDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (s *sqlChunkRepository) Indexes(ctx context.Context, sessionID uuid.UUID) ([]int, error) {
	query := `
		SELECT chunk_index
		FROM upload_chunks
		WHERE session_id = $1
		ORDER BY chunk_index`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []int
	for rows.Next() {
		var index int
		if err := rows.Scan(&index); err != nil {
			return nil, err
		}
		indexes = append(indexes, index)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return indexes, nil
}

// CountBySession derives progress from the stored rows.
func (s *sqlChunkRepository) CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM upload_chunks WHERE session_id = $1`

	var count int
	if err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *sqlChunkRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	query := `DELETE FROM upload_chunks WHERE session_id = $1`

	result, err := s.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

type dbChunk struct {
	SessionID      uuid.UUID      `db:"session_id"`
	Index          int            `db:"chunk_index"`
	SizeBytes      int64          `db:"size_bytes"`
	Digest         sql.NullString `db:"digest"`
	StorageLocator string         `db:"storage_locator"`
	UploadedAt     time.Time      `db:"uploaded_at"`
}

// ToDomain converts db obj to domain
func (c *dbChunk) ToDomain() *domain.ChunkRecord {
	return &domain.ChunkRecord{
		SessionID:      c.SessionID,
		Index:          c.Index,
		SizeBytes:      c.SizeBytes,
		Digest:         digest.Digest(c.Digest.String),
		StorageLocator: c.StorageLocator,
		UploadedAt:     c.UploadedAt,
	}
}
