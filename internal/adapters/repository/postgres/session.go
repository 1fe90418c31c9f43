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
	"github.com/lib/pq"
)

const sessionColumns = `id, file_name, total_size, declared_digest, chunk_size, total_chunks, status, owner_id, finalized_file_id, created_at, updated_at, expires_at`

type sqlSessionRepository struct {
	db SQLQuerier
}

// NewSQLSessionRepository creates a sqlSessionRepository that implements port.SessionRepository
func NewSQLSessionRepository(db SQLQuerier) port.SessionRepository {
	return &sqlSessionRepository{db: db}
}

// Create creates an upload session
func (s *sqlSessionRepository) Create(ctx context.Context, session domain.UploadSession) error {
	query := `
		INSERT INTO upload_sessions (
			id, file_name, total_size, declared_digest, chunk_size, total_chunks, status, owner_id, created_at, updated_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.FileName,
		session.TotalSize,
		string(session.DeclaredDigest),
		session.ChunkSize,
		session.TotalChunks,
		session.Status,
		session.OwnerID,
		session.CreatedAt,
		session.UpdatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("session %s: %w", session.ID, domain.ErrInvalidArgument)
		}
		return fmt.Errorf("error inserting upload session: %w", err)
	}
	return nil
}

func (s *sqlSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM upload_sessions
		WHERE id = $1`

	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

func (s *sqlSessionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM upload_sessions
		WHERE id = $1
		FOR UPDATE`

	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

// UpdateStatus moves the session to next only when the stored status is
// allowed to transition there. Returns false when the guard rejected it.
func (s *sqlSessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, next domain.SessionStatus) (bool, error) {
	allowed := statusStrings(domain.AllowedFrom(next))
	if len(allowed) == 0 {
		return false, fmt.Errorf("no status may transition to %s: %w", next, domain.ErrInvalidState)
	}

	query := `
		UPDATE upload_sessions
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = ANY($3)`

	result, err := s.db.ExecContext(ctx, query, next, id, pq.Array(allowed))
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// SetFinalized attaches the finalized file while transitioning, in one
// guarded update so a racing merge or cancel cannot interleave.
func (s *sqlSessionRepository) SetFinalized(ctx context.Context, id uuid.UUID, next domain.SessionStatus, fileID uuid.UUID) (bool, error) {
	allowed := statusStrings(domain.AllowedFrom(next))
	if len(allowed) == 0 {
		return false, fmt.Errorf("no status may transition to %s: %w", next, domain.ErrInvalidState)
	}

	query := `
		UPDATE upload_sessions
		SET status = $1, finalized_file_id = $2, updated_at = now()
		WHERE id = $3 AND status = ANY($4)`

	result, err := s.db.ExecContext(ctx, query, next, fileID, id, pq.Array(allowed))
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (s *sqlSessionRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]domain.UploadSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM upload_sessions
		WHERE expires_at < $1 AND status <> 'merged'
		ORDER BY expires_at
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.UploadSession
	for rows.Next() {
		var row dbUploadSession
		if err := row.scan(rows); err != nil {
			return nil, err
		}
		sessions = append(sessions, *row.ToDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

func (s *sqlSessionRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM upload_sessions WHERE id = $1)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Delete removes the session row. Chunk records go with it through the
// foreign key cascade.
func (s *sqlSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM upload_sessions WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}

func (s *sqlSessionRepository) scanOne(row *sql.Row) (*domain.UploadSession, error) {
	var dbRow dbUploadSession
	err := row.Scan(
		&dbRow.ID,
		&dbRow.FileName,
		&dbRow.TotalSize,
		&dbRow.DeclaredDigest,
		&dbRow.ChunkSize,
		&dbRow.TotalChunks,
		&dbRow.Status,
		&dbRow.OwnerID,
		&dbRow.FinalizedFileID,
		&dbRow.CreatedAt,
		&dbRow.UpdatedAt,
		&dbRow.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	return dbRow.ToDomain(), nil
}

func statusStrings(statuses []domain.SessionStatus) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}

type dbUploadSession struct {
	ID              uuid.UUID      `db:"id"`
	FileName        string         `db:"file_name"`
	TotalSize       int64          `db:"total_size"`
	DeclaredDigest  sql.NullString `db:"declared_digest"`
	ChunkSize       int64          `db:"chunk_size"`
	TotalChunks     int            `db:"total_chunks"`
	Status          string         `db:"status"`
	OwnerID         sql.NullString `db:"owner_id"`
	FinalizedFileID uuid.NullUUID  `db:"finalized_file_id"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	ExpiresAt       time.Time      `db:"expires_at"`
}

func (s *dbUploadSession) scan(rows *sql.Rows) error {
	return rows.Scan(
		&s.ID,
		&s.FileName,
		&s.TotalSize,
		&s.DeclaredDigest,
		&s.ChunkSize,
		&s.TotalChunks,
		&s.Status,
		&s.OwnerID,
		&s.FinalizedFileID,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.ExpiresAt,
	)
}

// ToDomain converts db obj to domain
func (s *dbUploadSession) ToDomain() *domain.UploadSession {
	session := &domain.UploadSession{
		ID:             s.ID,
		FileName:       s.FileName,
		TotalSize:      s.TotalSize,
		DeclaredDigest: digest.Digest(s.DeclaredDigest.String),
		ChunkSize:      s.ChunkSize,
		TotalChunks:    s.TotalChunks,
		Status:         domain.SessionStatus(s.Status),
		OwnerID:        s.OwnerID.String,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
		ExpiresAt:      s.ExpiresAt,
	}
	if s.FinalizedFileID.Valid {
		id := s.FinalizedFileID.UUID
		session.FinalizedFileID = &id
	}
	return session
}
