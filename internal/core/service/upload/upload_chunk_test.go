package upload_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"filedepot/internal/adapters/eventbroker"
	"filedepot/internal/adapters/repository"
	"filedepot/internal/adapters/storage"
	"filedepot/internal/core/digest"
	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"
	"filedepot/internal/core/service/upload"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// testContent builds a payload whose bytes differ across chunk
// boundaries, so a swapped or repeated chunk changes the whole-file
// digest.
func testContent(size int) []byte {
	content := make([]byte, size)
	for i := range content {
		content[i] = byte(i*7 + i/251)
	}
	return content
}

func chunkPayloads(content []byte, chunkSize int64) [][]byte {
	var chunks [][]byte
	for off := int64(0); off < int64(len(content)); off += chunkSize {
		end := off + chunkSize
		if end > int64(len(content)) {
			end = int64(len(content))
		}
		chunks = append(chunks, content[off:end])
	}
	return chunks
}

func mustDigest(t *testing.T, data []byte) digest.Digest {
	t.Helper()
	d, err := digest.FromBytes(digest.SHA256, data)
	require.NoError(t, err)
	return d
}

func TestUploadService_UploadChunk_SingleChunk(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newTestEnv(t, defaultCfg)

	content := testContent(1024)
	session, err := env.svc.Init(ctx, port.InitParams{FileName: "a.bin", TotalSize: 1024, ChunkSize: 1024})
	require.NoError(t, err)

	// Act
	progress, err := env.svc.UploadChunk(ctx, session.ID, 0, bytes.NewReader(content), 1024, mustDigest(t, content))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, progress.UploadedChunks)
	assert.Equal(t, 1, progress.TotalChunks)
	assert.Equal(t, 100.0, progress.Percent)
	assert.Equal(t, domain.SessionStatusCompleted, progress.Status)
}

func TestUploadService_UploadChunk_OutOfOrder(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newTestEnv(t, defaultCfg)

	content := testContent(5_000_000)
	chunks := chunkPayloads(content, 2_000_000)
	require.Len(t, chunks, 3)

	session, err := env.svc.Init(ctx, port.InitParams{FileName: "a.bin", TotalSize: 5_000_000, ChunkSize: 2_000_000})
	require.NoError(t, err)

	// Act
	last, err := env.svc.UploadChunk(ctx, session.ID, 2, bytes.NewReader(chunks[2]), int64(len(chunks[2])), mustDigest(t, chunks[2]))
	require.NoError(t, err)
	first, err := env.svc.UploadChunk(ctx, session.ID, 0, bytes.NewReader(chunks[0]), int64(len(chunks[0])), mustDigest(t, chunks[0]))
	require.NoError(t, err)
	middle, err := env.svc.UploadChunk(ctx, session.ID, 1, bytes.NewReader(chunks[1]), int64(len(chunks[1])), mustDigest(t, chunks[1]))
	require.NoError(t, err)

	// Assert
	assert.Equal(t, domain.SessionStatusUploading, last.Status)
	assert.Equal(t, 1, last.UploadedChunks)
	assert.Equal(t, domain.SessionStatusUploading, first.Status)
	assert.Equal(t, 2, first.UploadedChunks)
	assert.Equal(t, domain.SessionStatusCompleted, middle.Status)
	assert.Equal(t, 3, middle.UploadedChunks)
	assert.Equal(t, 100.0, middle.Percent)
}

func TestUploadService_UploadChunk_IdempotentReupload(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newTestEnv(t, defaultCfg)

	content := testContent(4096)
	chunks := chunkPayloads(content, 2048)

	session, err := env.svc.Init(ctx, port.InitParams{FileName: "a.bin", TotalSize: 4096, ChunkSize: 2048})
	require.NoError(t, err)

	_, err = env.svc.UploadChunk(ctx, session.ID, 0, bytes.NewReader(chunks[0]), 2048, mustDigest(t, chunks[0]))
	require.NoError(t, err)

	// Act
	again, err := env.svc.UploadChunk(ctx, session.ID, 0, bytes.NewReader(chunks[0]), 2048, mustDigest(t, chunks[0]))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, again.UploadedChunks)
	assert.Equal(t, domain.SessionStatusUploading, again.Status)

	valid, err := env.svc.ValidateChunk(ctx, session.ID, 0, mustDigest(t, chunks[0]))
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestUploadService_UploadChunk_DigestMismatch(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newTestEnv(t, defaultCfg)

	content := testContent(2048)
	session, err := env.svc.Init(ctx, port.InitParams{FileName: "a.bin", TotalSize: 2048, ChunkSize: 2048})
	require.NoError(t, err)

	wrong := mustDigest(t, []byte("different content"))

	// Act
	progress, err := env.svc.UploadChunk(ctx, session.ID, 0, bytes.NewReader(content), 2048, wrong)

	// Assert
	assert.ErrorIs(t, err, domain.ErrDigestMismatch)
	assert.Nil(t, progress)

	// The rejected bytes must not block a corrected retry.
	has, err := env.store.HasChunk(ctx, session.ID, 0)
	require.NoError(t, err)
	assert.False(t, has)

	retry, err := env.svc.UploadChunk(ctx, session.ID, 0, bytes.NewReader(content), 2048, mustDigest(t, content))
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCompleted, retry.Status)
}

func TestUploadService_UploadChunk_SkipsVerifyWhenDisabled(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cfg := defaultCfg
	cfg.EnableDigestCheck = false
	env := newTestEnv(t, cfg)

	content := testContent(2048)
	session, err := env.svc.Init(ctx, port.InitParams{FileName: "a.bin", TotalSize: 2048, ChunkSize: 2048})
	require.NoError(t, err)

	wrong := mustDigest(t, []byte("different content"))

	// Act
	progress, err := env.svc.UploadChunk(ctx, session.ID, 0, bytes.NewReader(content), 2048, wrong)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCompleted, progress.Status)
}

func TestUploadService_UploadChunk_SizeMismatch(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newTestEnv(t, defaultCfg)

	content := testContent(4096)
	session, err := env.svc.Init(ctx, port.InitParams{FileName: "a.bin", TotalSize: 4096, ChunkSize: 2048})
	require.NoError(t, err)

	// Act
	progress, err := env.svc.UploadChunk(ctx, session.ID, 0, bytes.NewReader(content[:100]), 100, "")

	// Assert
	assert.ErrorIs(t, err, domain.ErrSizeMismatch)
	assert.Nil(t, progress)
}

func TestUploadService_UploadChunk_IndexOutOfRange(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newTestEnv(t, defaultCfg)

	session, err := env.svc.Init(ctx, port.InitParams{FileName: "a.bin", TotalSize: 4096, ChunkSize: 2048})
	require.NoError(t, err)

	// Act
	_, negErr := env.svc.UploadChunk(ctx, session.ID, -1, bytes.NewReader(nil), 2048, "")
	_, overErr := env.svc.UploadChunk(ctx, session.ID, 2, bytes.NewReader(nil), 2048, "")

	// Assert
	assert.ErrorIs(t, negErr, domain.ErrInvalidArgument)
	assert.ErrorIs(t, overErr, domain.ErrInvalidArgument)
}

func TestUploadService_UploadChunk_SessionNotFound(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newTestEnv(t, defaultCfg)

	// Act
	_, err := env.svc.UploadChunk(ctx, uuid.New(), 0, bytes.NewReader(nil), 1024, "")

	// Assert
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestUploadService_UploadChunk_ExpiredSession(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cfg := defaultCfg
	cfg.Retention = -time.Hour
	env := newTestEnv(t, cfg)

	content := testContent(2048)
	session, err := env.svc.Init(ctx, port.InitParams{FileName: "a.bin", TotalSize: 2048, ChunkSize: 2048})
	require.NoError(t, err)

	// Act
	_, err = env.svc.UploadChunk(ctx, session.ID, 0, bytes.NewReader(content), 2048, "")

	// Assert
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestUploadService_UploadChunk_MergedSession(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newTestEnv(t, defaultCfg)
	env.events.On("PublishFileFinalized", mock.Anything, mock.Anything).Return(nil)

	content := testContent(1024)
	session, err := env.svc.Init(ctx, port.InitParams{FileName: "a.bin", TotalSize: 1024, ChunkSize: 1024})
	require.NoError(t, err)
	_, err = env.svc.UploadChunk(ctx, session.ID, 0, bytes.NewReader(content), 1024, "")
	require.NoError(t, err)
	_, err = env.svc.Merge(ctx, session.ID, "")
	require.NoError(t, err)

	// Act
	_, err = env.svc.UploadChunk(ctx, session.ID, 0, bytes.NewReader(content), 1024, "")

	// Assert
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestUploadService_UploadChunk_RecoversAbandonedBytes(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newTestEnv(t, defaultCfg)

	content := testContent(4096)
	chunks := chunkPayloads(content, 2048)
	session, err := env.svc.Init(ctx, port.InitParams{FileName: "a.bin", TotalSize: 4096, ChunkSize: 2048})
	require.NoError(t, err)

	// Bytes landed in the store but the record never did, as after a
	// crash between the two steps.
	_, err = env.store.WriteChunk(ctx, session.ID, 0, bytes.NewReader(make([]byte, 2048)), 2048)
	require.NoError(t, err)

	// Act
	progress, err := env.svc.UploadChunk(ctx, session.ID, 0, bytes.NewReader(chunks[0]), 2048, mustDigest(t, chunks[0]))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, progress.UploadedChunks)

	valid, err := env.svc.ValidateChunk(ctx, session.ID, 0, mustDigest(t, chunks[0]))
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestUploadService_UploadChunk_StoreFailure(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mockUow := repository.NewMockUnitOfWork()
	mockStore := storage.NewMockChunkStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := upload.NewUploadService(mockUow, mockStore, eventbroker.NewMockPublisher(), defaultCfg, logger)

	sessionID := uuid.New()
	session := &domain.UploadSession{
		ID:          sessionID,
		FileName:    "a.bin",
		TotalSize:   2048,
		ChunkSize:   2048,
		TotalChunks: 1,
		Status:      domain.SessionStatusInitialized,
		ExpiresAt:   time.Now().Add(time.Hour),
	}

	mockUow.GetSessionRepoMock().On("FindByID", ctx, sessionID).Return(session, nil)
	mockUow.GetChunkRepoMock().On("Exists", ctx, sessionID, 0).Return(false, nil)
	mockStore.On("WriteChunk", ctx, sessionID, 0, mock.Anything, int64(2048)).Return("", domain.ErrStorage)

	// Act
	progress, err := svc.UploadChunk(ctx, sessionID, 0, bytes.NewReader(make([]byte, 2048)), 2048, "")

	// Assert
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Nil(t, progress)
	mockUow.AssertExpectations(t)
	mockStore.AssertExpectations(t)
}
