package upload_test

import (
	"io"
	"log/slog"
	http2 "net/http"
	"testing"

	"filedepot/internal/adapters/handlers/http/chi"
	upload2 "filedepot/internal/adapters/handlers/http/chi/v1/upload"
	"filedepot/internal/core/service/upload"
	"filedepot/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// newTestRouter wires the mocked service into the full router so tests
// exercise routing, middleware and handler together.
func newTestRouter(t *testing.T, mockService *upload.MockUploadService) (http2.Handler, *metrics.Metrics) {
	t.Helper()

	discardLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	handler := upload2.NewUploadHandlerV1(mockService, m, discardLogger)
	return chi.NewRouter(discardLogger, handler, nil, nil, m, reg, 0, ""), m
}
