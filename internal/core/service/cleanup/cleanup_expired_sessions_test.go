package cleanup_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"filedepot/internal/adapters/repository"
	"filedepot/internal/adapters/repository/memory"
	"filedepot/internal/adapters/storage"
	"filedepot/internal/adapters/storage/disk"
	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"
	"filedepot/internal/core/service/cleanup"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cleanupEnv struct {
	svc   port.CleanupService
	mem   *memory.Store
	store *disk.Store
}

func newCleanupEnv(t *testing.T) *cleanupEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := disk.NewStore(t.TempDir(), false, logger)
	require.NoError(t, err)

	mem := memory.NewStore()

	return &cleanupEnv{
		svc:   cleanup.NewCleanupService(memory.NewUnitOfWork(mem), store, logger),
		mem:   mem,
		store: store,
	}
}

// seedSession plants a session directly in the registry, optionally
// with one stored chunk, bypassing the upload flow.
func seedSession(t *testing.T, env *cleanupEnv, status domain.SessionStatus, expiresAt time.Time, withChunk bool) domain.UploadSession {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC()
	session := domain.UploadSession{
		ID:          uuid.New(),
		FileName:    "report.pdf",
		TotalSize:   2048,
		ChunkSize:   1024,
		TotalChunks: 2,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   expiresAt,
	}
	require.NoError(t, memory.NewSessionRepository(env.mem).Create(ctx, session))

	if withChunk {
		locator, err := env.store.WriteChunk(ctx, session.ID, 0, bytes.NewReader(make([]byte, 1024)), 1024)
		require.NoError(t, err)

		inserted, err := memory.NewChunkRepository(env.mem).Insert(ctx, domain.ChunkRecord{
			SessionID:      session.ID,
			Index:          0,
			SizeBytes:      1024,
			StorageLocator: locator,
			UploadedAt:     now,
		})
		require.NoError(t, err)
		require.True(t, inserted)
	}

	return session
}

func TestCleanupService_CleanupExpiredSessions_NothingExpired(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newCleanupEnv(t)
	seedSession(t, env, domain.SessionStatusUploading, time.Now().Add(time.Hour), true)

	// Act
	cleaned, err := env.svc.CleanupExpiredSessions(ctx, time.Now())

	// Assert
	require.NoError(t, err)
	assert.Zero(t, cleaned)
}

func TestCleanupService_CleanupExpiredSessions_ReclaimsExpired(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newCleanupEnv(t)
	session := seedSession(t, env, domain.SessionStatusUploading, time.Now().Add(-time.Hour), true)

	// Act
	cleaned, err := env.svc.CleanupExpiredSessions(ctx, time.Now())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned)

	_, err = memory.NewSessionRepository(env.mem).FindByID(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	count, err := memory.NewChunkRepository(env.mem).CountBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	has, err := env.store.HasChunk(ctx, session.ID, 0)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCleanupService_CleanupExpiredSessions_LeavesMerged(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newCleanupEnv(t)
	session := seedSession(t, env, domain.SessionStatusMerged, time.Now().Add(-time.Hour), false)

	// Act
	cleaned, err := env.svc.CleanupExpiredSessions(ctx, time.Now())

	// Assert
	require.NoError(t, err)
	assert.Zero(t, cleaned)

	kept, err := memory.NewSessionRepository(env.mem).FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusMerged, kept.Status)
}

func TestCleanupService_CleanupExpiredSessions_RetriesDirtyTerminal(t *testing.T) {
	// Arrange: an earlier sweep marked the session expired but died
	// before removing its data.
	ctx := context.Background()
	env := newCleanupEnv(t)
	session := seedSession(t, env, domain.SessionStatusExpired, time.Now().Add(-2*time.Hour), true)

	// Act
	cleaned, err := env.svc.CleanupExpiredSessions(ctx, time.Now())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned)

	_, err = memory.NewSessionRepository(env.mem).FindByID(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestCleanupService_CleanupExpiredSessions_MultipleSessions(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newCleanupEnv(t)
	seedSession(t, env, domain.SessionStatusInitialized, time.Now().Add(-time.Hour), false)
	seedSession(t, env, domain.SessionStatusUploading, time.Now().Add(-time.Minute), true)
	live := seedSession(t, env, domain.SessionStatusUploading, time.Now().Add(time.Hour), true)

	// Act
	cleaned, err := env.svc.CleanupExpiredSessions(ctx, time.Now())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, cleaned)

	_, err = memory.NewSessionRepository(env.mem).FindByID(ctx, live.ID)
	assert.NoError(t, err)
}

func TestCleanupService_CleanupExpiredSessions_RegistryFailure(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockStore := storage.NewMockChunkStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := cleanup.NewCleanupService(mockUow, mockStore, logger)

	now := time.Now()
	expectedErr := errors.New("connection refused")
	mockUow.GetSessionRepoMock().On("FindExpired", ctx, now, 500).Return([]domain.UploadSession{}, expectedErr)

	// Act
	cleaned, err := svc.CleanupExpiredSessions(ctx, now)

	// Assert
	assert.ErrorIs(t, err, expectedErr)
	assert.Zero(t, cleaned)
	mockUow.AssertExpectations(t)
}
