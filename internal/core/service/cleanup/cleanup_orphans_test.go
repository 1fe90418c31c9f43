package cleanup_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"filedepot/internal/adapters/repository/memory"
	"filedepot/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupService_CleanupOrphanedData_UnknownSession(t *testing.T) {
	// Arrange: chunk bytes whose session the registry never saw, as
	// left behind by a cancel that died after deleting the rows.
	ctx := context.Background()
	env := newCleanupEnv(t)

	orphanID := uuid.New()
	_, err := env.store.WriteChunk(ctx, orphanID, 0, bytes.NewReader(make([]byte, 512)), 512)
	require.NoError(t, err)

	// Act
	cleaned, err := env.svc.CleanupOrphanedData(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned)

	ids, err := env.store.SessionIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCleanupService_CleanupOrphanedData_SkipsActiveSessions(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newCleanupEnv(t)
	session := seedSession(t, env, domain.SessionStatusUploading, time.Now().Add(time.Hour), true)

	// Act
	cleaned, err := env.svc.CleanupOrphanedData(ctx)

	// Assert
	require.NoError(t, err)
	assert.Zero(t, cleaned)

	has, err := env.store.HasChunk(ctx, session.ID, 0)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestCleanupService_CleanupOrphanedData_ReclaimsInterruptedRelease(t *testing.T) {
	// Arrange: a merged session whose chunk release never ran.
	ctx := context.Background()
	env := newCleanupEnv(t)
	session := seedSession(t, env, domain.SessionStatusMerged, time.Now().Add(time.Hour), true)

	// Act
	cleaned, err := env.svc.CleanupOrphanedData(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned)

	has, err := env.store.HasChunk(ctx, session.ID, 0)
	require.NoError(t, err)
	assert.False(t, has)

	count, err := memory.NewChunkRepository(env.mem).CountBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	// The merged registry row stays; it records the finalized file.
	kept, err := memory.NewSessionRepository(env.mem).FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusMerged, kept.Status)
}

func TestCleanupService_CleanupOrphanedData_EmptyStore(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newCleanupEnv(t)

	// Act
	cleaned, err := env.svc.CleanupOrphanedData(ctx)

	// Assert
	require.NoError(t, err)
	assert.Zero(t, cleaned)
}
