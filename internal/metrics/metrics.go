// Package metrics holds the prometheus collectors and the HTTP
// middleware that feeds the request-level ones.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the service exports.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ChunksUploaded  prometheus.Counter
	ChunkBytes      prometheus.Counter
	MergesTotal     *prometheus.CounterVec
	DedupHits       prometheus.Counter
	SessionsCleaned prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ChunksUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "upload_chunks_total",
			Help: "Total number of chunks accepted.",
		}),
		ChunkBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "upload_chunk_bytes_total",
			Help: "Total chunk payload bytes accepted.",
		}),
		MergesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upload_merges_total",
				Help: "Total number of merge attempts.",
			},
			[]string{"result"},
		),
		DedupHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "upload_dedup_hits_total",
			Help: "Total number of merges that attached to existing content.",
		}),
		SessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "upload_sessions_cleaned_total",
			Help: "Total number of sessions reclaimed by the sweeper.",
		}),
	}

	collectors := []prometheus.Collector{
		m.RequestsTotal,
		m.RequestDuration,
		m.ChunksUploaded,
		m.ChunkBytes,
		m.MergesTotal,
		m.DedupHits,
		m.SessionsCleaned,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Middleware counts finished requests by method, route pattern and
// status. The /metrics endpoint itself is not counted.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// The route pattern keeps the label cardinality flat; raw
		// paths would mint one series per session id.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.RequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
