package upload_test

import (
	"bytes"
	"encoding/json"
	http2 "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	upload2 "filedepot/internal/adapters/handlers/http/chi/v1/upload"
	"filedepot/internal/core/digest"
	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"
	"filedepot/internal/core/service/upload"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMergeSessionV1(t *testing.T) {
	t.Run("success - file merged", func(t *testing.T) {
		// Arrange
		sessionID := uuid.New()
		fileID := uuid.New()
		fileDigest := digest.Digest("sha256:" + strings.Repeat("ef", 32))
		createdAt := time.Now().UTC()

		mockService := upload.NewMockUploadService()
		mockService.On("Merge", mock.Anything, sessionID, digest.Digest("")).Return(&port.MergeResult{
			File: domain.FinalizedFile{
				ID:        fileID,
				Digest:    fileDigest,
				SizeBytes: 5_000_000,
				CreatedAt: createdAt,
			},
			Dedup: false,
		}, nil)

		h, m := newTestRouter(t, mockService)
		w := httptest.NewRecorder()

		req := httptest.NewRequest(http2.MethodPost, "/api/v1/upload/sessions/"+sessionID.String()+"/merge", nil)

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusOK, w.Code)

		var response upload2.V1MergeSessionResponse
		err := json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)
		assert.Equal(t, fileID, response.FileID)
		assert.Equal(t, string(fileDigest), response.Digest)
		assert.Equal(t, int64(5_000_000), response.SizeBytes)
		assert.False(t, response.Dedup)

		assert.Equal(t, 1.0, testutil.ToFloat64(m.MergesTotal.WithLabelValues("ok")))
		assert.Equal(t, 0.0, testutil.ToFloat64(m.DedupHits))

		mockService.AssertExpectations(t)
	})

	t.Run("success - dedup hit counted", func(t *testing.T) {
		// Arrange
		sessionID := uuid.New()

		mockService := upload.NewMockUploadService()
		mockService.On("Merge", mock.Anything, sessionID, digest.Digest("")).Return(&port.MergeResult{
			File:  domain.FinalizedFile{ID: uuid.New(), Digest: digest.Digest("sha256:" + strings.Repeat("01", 32))},
			Dedup: true,
		}, nil)

		h, m := newTestRouter(t, mockService)
		w := httptest.NewRecorder()

		req := httptest.NewRequest(http2.MethodPost, "/api/v1/upload/sessions/"+sessionID.String()+"/merge", nil)

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusOK, w.Code)

		var response upload2.V1MergeSessionResponse
		err := json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)
		assert.True(t, response.Dedup)

		assert.Equal(t, 1.0, testutil.ToFloat64(m.DedupHits))
	})

	t.Run("success - expected digest forwarded", func(t *testing.T) {
		// Arrange
		sessionID := uuid.New()
		expected := digest.Digest("sha256:" + strings.Repeat("23", 32))

		mockService := upload.NewMockUploadService()
		mockService.On("Merge", mock.Anything, sessionID, expected).Return(&port.MergeResult{
			File: domain.FinalizedFile{ID: uuid.New(), Digest: expected},
		}, nil)

		h, _ := newTestRouter(t, mockService)
		w := httptest.NewRecorder()

		body := `{"expected_digest":"sha256:` + strings.Repeat("23", 32) + `"}`
		req := httptest.NewRequest(http2.MethodPost, "/api/v1/upload/sessions/"+sessionID.String()+"/merge", bytes.NewBufferString(body))

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("error - incomplete upload", func(t *testing.T) {
		// Arrange
		mockService := upload.NewMockUploadService()
		mockService.On("Merge", mock.Anything, mock.Anything, mock.Anything).
			Return((*port.MergeResult)(nil), domain.ErrIncompleteUpload)

		h, _ := newTestRouter(t, mockService)
		w := httptest.NewRecorder()

		req := httptest.NewRequest(http2.MethodPost, "/api/v1/upload/sessions/"+uuid.NewString()+"/merge", nil)

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusConflict, w.Code)
	})

	t.Run("error - digest mismatch", func(t *testing.T) {
		// Arrange
		mockService := upload.NewMockUploadService()
		mockService.On("Merge", mock.Anything, mock.Anything, mock.Anything).
			Return((*port.MergeResult)(nil), domain.ErrDigestMismatch)

		h, m := newTestRouter(t, mockService)
		w := httptest.NewRecorder()

		req := httptest.NewRequest(http2.MethodPost, "/api/v1/upload/sessions/"+uuid.NewString()+"/merge", nil)

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.MergesTotal.WithLabelValues("digest_mismatch")))
	})

	t.Run("error - session not found", func(t *testing.T) {
		// Arrange
		mockService := upload.NewMockUploadService()
		mockService.On("Merge", mock.Anything, mock.Anything, mock.Anything).
			Return((*port.MergeResult)(nil), domain.ErrSessionNotFound)

		h, _ := newTestRouter(t, mockService)
		w := httptest.NewRecorder()

		req := httptest.NewRequest(http2.MethodPost, "/api/v1/upload/sessions/"+uuid.NewString()+"/merge", nil)

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusNotFound, w.Code)
	})
}
