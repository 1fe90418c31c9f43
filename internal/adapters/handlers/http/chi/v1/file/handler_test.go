package file_test

import (
	"io"
	"log/slog"
	http2 "net/http"
	"testing"

	"filedepot/internal/adapters/handlers/http/chi"
	file2 "filedepot/internal/adapters/handlers/http/chi/v1/file"
	"filedepot/internal/core/service/upload"
	"filedepot/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, mockService *upload.MockUploadService) http2.Handler {
	t.Helper()

	discardLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	handler := file2.NewFileHandlerV1(mockService, discardLogger)
	return chi.NewRouter(discardLogger, nil, handler, nil, m, reg, 0, "")
}
