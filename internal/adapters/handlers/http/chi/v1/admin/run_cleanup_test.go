package admin_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	http2 "net/http"
	"net/http/httptest"
	"testing"

	"filedepot/internal/adapters/handlers/http/chi"
	admin2 "filedepot/internal/adapters/handlers/http/chi/v1/admin"
	"filedepot/internal/core/service/cleanup"
	"filedepot/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, mockService *cleanup.MockCleanupService) (http2.Handler, *metrics.Metrics) {
	t.Helper()

	discardLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	handler := admin2.NewAdminHandlerV1(mockService, m, discardLogger)
	return chi.NewRouter(discardLogger, nil, nil, handler, m, reg, 0, ""), m
}

func TestRunCleanupV1(t *testing.T) {
	t.Run("success - both passes reported", func(t *testing.T) {
		// Arrange
		mockService := cleanup.NewMockCleanupService()
		mockService.On("CleanupExpiredSessions", mock.Anything, mock.Anything).Return(3, nil)
		mockService.On("CleanupOrphanedData", mock.Anything).Return(1, nil)

		h, m := newTestRouter(t, mockService)
		w := httptest.NewRecorder()

		req := httptest.NewRequest(http2.MethodPost, "/api/v1/admin/cleanup", nil)

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusOK, w.Code)

		var response admin2.V1RunCleanupResponse
		err := json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)
		assert.Equal(t, 3, response.ExpiredSessionsCleaned)
		assert.Equal(t, 1, response.OrphansCleaned)

		assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsCleaned))

		mockService.AssertExpectations(t)
	})

	t.Run("error - expired sweep fails", func(t *testing.T) {
		// Arrange
		mockService := cleanup.NewMockCleanupService()
		mockService.On("CleanupExpiredSessions", mock.Anything, mock.Anything).
			Return(0, errors.New("db down"))

		h, _ := newTestRouter(t, mockService)
		w := httptest.NewRecorder()

		req := httptest.NewRequest(http2.MethodPost, "/api/v1/admin/cleanup", nil)

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusServiceUnavailable, w.Code)
		mockService.AssertNotCalled(t, "CleanupOrphanedData")
	})

	t.Run("error - orphan sweep fails", func(t *testing.T) {
		// Arrange
		mockService := cleanup.NewMockCleanupService()
		mockService.On("CleanupExpiredSessions", mock.Anything, mock.Anything).Return(2, nil)
		mockService.On("CleanupOrphanedData", mock.Anything).Return(0, errors.New("store down"))

		h, _ := newTestRouter(t, mockService)
		w := httptest.NewRecorder()

		req := httptest.NewRequest(http2.MethodPost, "/api/v1/admin/cleanup", nil)

		// Act
		h.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http2.StatusServiceUnavailable, w.Code)
	})
}
