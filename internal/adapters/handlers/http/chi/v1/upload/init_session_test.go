package upload_test

import (
	"bytes"
	"encoding/json"
	"errors"
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestInitSessionV1(t *testing.T) {
	t.Run("success - session created", func(t *testing.T) {
		// Arrange
		sessionID := uuid.New()
		expiresAt := time.Now().Add(24 * time.Hour).UTC()

		mockService := upload.NewMockUploadService()
		mockService.On("Init", mock.Anything, port.InitParams{
			FileName:  "video.mp4",
			TotalSize: 5_000_000,
			ChunkSize: 2_000_000,
		}).Return(&domain.UploadSession{
			ID:          sessionID,
			FileName:    "video.mp4",
			TotalSize:   5_000_000,
			ChunkSize:   2_000_000,
			TotalChunks: 3,
			Status:      domain.SessionStatusInitialized,
			ExpiresAt:   expiresAt,
		}, nil)

		h, _ := newTestRouter(t, mockService)
		w := httptest.NewRecorder()

		body := `{"file_name":"video.mp4","total_size":5000000,"chunk_size":2000000}`
		req := httptest.NewRequest(http2.MethodPost, "/api/v1/upload/sessions", bytes.NewBufferString(body))

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusCreated, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response upload2.V1InitSessionResponse
		err := json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)
		assert.Equal(t, sessionID, response.SessionID)
		assert.Equal(t, "video.mp4", response.FileName)
		assert.Equal(t, int64(2_000_000), response.ChunkSize)
		assert.Equal(t, 3, response.TotalChunks)
		assert.Equal(t, "initialized", response.Status)
		assert.WithinDuration(t, expiresAt, response.ExpiresAt, time.Second)

		mockService.AssertExpectations(t)
	})

	t.Run("success - declared digest normalized and forwarded", func(t *testing.T) {
		// Arrange
		declared := digest.Digest("sha256:" + strings.Repeat("ab", 32))

		mockService := upload.NewMockUploadService()
		mockService.On("Init", mock.Anything, mock.MatchedBy(func(params port.InitParams) bool {
			return params.DeclaredDigest == declared
		})).Return(&domain.UploadSession{ID: uuid.New(), Status: domain.SessionStatusInitialized}, nil)

		h, _ := newTestRouter(t, mockService)
		w := httptest.NewRecorder()

		body := `{"file_name":"a.bin","total_size":10,"digest":"SHA256:` + strings.Repeat("AB", 32) + `"}`
		req := httptest.NewRequest(http2.MethodPost, "/api/v1/upload/sessions", bytes.NewBufferString(body))

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusCreated, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("error - missing params", func(t *testing.T) {
		// Arrange
		mockService := upload.NewMockUploadService()

		h, _ := newTestRouter(t, mockService)
		w := httptest.NewRecorder()

		req := httptest.NewRequest(http2.MethodPost, "/api/v1/upload/sessions", bytes.NewBufferString(`{"total_size":10}`))

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "Init")
	})

	t.Run("error - malformed digest", func(t *testing.T) {
		// Arrange
		mockService := upload.NewMockUploadService()

		h, _ := newTestRouter(t, mockService)
		w := httptest.NewRecorder()

		body := `{"file_name":"a.bin","total_size":10,"digest":"md5:abcdef"}`
		req := httptest.NewRequest(http2.MethodPost, "/api/v1/upload/sessions", bytes.NewBufferString(body))

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "Init")
	})

	t.Run("error - invalid json", func(t *testing.T) {
		// Arrange
		mockService := upload.NewMockUploadService()

		h, _ := newTestRouter(t, mockService)
		w := httptest.NewRecorder()

		req := httptest.NewRequest(http2.MethodPost, "/api/v1/upload/sessions", bytes.NewBufferString(`{not json`))

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "Init")
	})

	t.Run("error - file too big", func(t *testing.T) {
		// Arrange
		mockService := upload.NewMockUploadService()
		mockService.On("Init", mock.Anything, mock.Anything).
			Return((*domain.UploadSession)(nil), domain.ErrFileSizeTooBig)

		h, _ := newTestRouter(t, mockService)
		w := httptest.NewRecorder()

		body := `{"file_name":"huge.bin","total_size":999999999999}`
		req := httptest.NewRequest(http2.MethodPost, "/api/v1/upload/sessions", bytes.NewBufferString(body))

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("error - service failure", func(t *testing.T) {
		// Arrange
		mockService := upload.NewMockUploadService()
		mockService.On("Init", mock.Anything, mock.Anything).
			Return((*domain.UploadSession)(nil), errors.New("db down"))

		h, _ := newTestRouter(t, mockService)
		w := httptest.NewRecorder()

		body := `{"file_name":"a.bin","total_size":10}`
		req := httptest.NewRequest(http2.MethodPost, "/api/v1/upload/sessions", bytes.NewBufferString(body))

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusServiceUnavailable, w.Code)
		mockService.AssertExpectations(t)
	})
}
