package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"filedepot/internal/adapters/eventbroker"
	"filedepot/internal/adapters/eventbroker/nats"
	"filedepot/internal/adapters/handlers/http/chi"
	"filedepot/internal/adapters/handlers/http/chi/v1/admin"
	file2 "filedepot/internal/adapters/handlers/http/chi/v1/file"
	upload2 "filedepot/internal/adapters/handlers/http/chi/v1/upload"
	"filedepot/internal/adapters/repository/postgres"
	"filedepot/internal/adapters/storage/disk"
	"filedepot/internal/adapters/storage/minio"
	"filedepot/internal/config"
	"filedepot/internal/core/port"
	"filedepot/internal/core/service/cleanup"
	"filedepot/internal/core/service/upload"
	"filedepot/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		logger.Error("failed to init database", "error", err)
		os.Exit(1)
	}
	defer func(db *sql.DB) {
		err := db.Close()
		if err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}(db)
	logger.Info("db connection established")

	//storage
	chunkStore, err := initChunkStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init chunk store", "error", err)
		os.Exit(1)
	}
	logger.Info("chunk store initialized", "backend", cfg.Storage.Backend)

	//events
	publisher, err := initPublisher(ctx, cfg.NATS, logger)
	if err != nil {
		logger.Error("failed to init event publisher", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close event publisher", "error", err)
		}
	}()

	//repositories
	unitOfWork := postgres.NewUnitOfWork(db)

	uploadService := upload.NewUploadService(unitOfWork, chunkStore, publisher, cfg.Upload, logger)
	cleanupService := cleanup.NewCleanupService(unitOfWork, chunkStore, logger)

	//metrics
	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	//http
	uploadHandler := upload2.NewUploadHandlerV1(uploadService, m, logger)
	fileHandler := file2.NewFileHandlerV1(uploadService, logger)
	adminHandler := admin.NewAdminHandlerV1(cleanupService, m, logger)

	// Request bodies top out at one raw chunk plus header slack
	maxBody := cfg.Upload.MaxChunkSizeBytes + 1<<20

	router := chi.NewRouter(logger, uploadHandler, fileHandler, adminHandler, m, registry, maxBody, cfg.Env.Env)
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		servErr := server.ListenAndServe()
		if servErr != nil && !errors.Is(servErr, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", servErr)
			stop()
		}
	}()

	// init sweep task
	wg.Add(1)
	go func() {
		defer wg.Done()
		initSweepTask(ctx, cleanupService, m, cfg.Upload.SweepEvery, logger)
	}()

	//wait for context cancel
	<-ctx.Done()
	logger.Info("gracefully shutting down app")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	} else {
		logger.Info("server gracefully shutdown complete")
	}

	wg.Wait()
	logger.Info("app shutdown complete")

}

func initDB(cfg config.DatabaseConfig) (*sql.DB, error) {

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenCons)
	db.SetMaxIdleConns(cfg.MaxIdleCons)
	db.SetConnMaxLifetime(cfg.ConMaxLifeTime)

	return db, nil
}

func initChunkStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (port.ChunkStore, error) {
	switch cfg.Storage.Backend {
	case "minio":
		return minio.NewAdapter(ctx, cfg.Minio, logger)
	case "disk":
		return disk.NewStore(cfg.Storage.DiskRoot, cfg.Storage.DiskCompress, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func initPublisher(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (port.EventPublisher, error) {
	if cfg.URL == "" {
		return eventbroker.NewNoopPublisher(logger), nil
	}
	return nats.NewNATSPublisher(ctx, cfg, logger)
}

func initSweepTask(ctx context.Context, service port.CleanupService, m *metrics.Metrics, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	logger.Info("sweep task initialized", "interval", every)

	for {
		select {
		case <-ticker.C:
			logger.Info("sweep task starting")
			cleaned, err := service.CleanupExpiredSessions(ctx, time.Now().UTC())
			if err != nil {
				logger.Error("failed to sweep expired sessions", "error", err)
			} else {
				m.SessionsCleaned.Add(float64(cleaned))
			}

			if _, err := service.CleanupOrphanedData(ctx); err != nil {
				logger.Error("failed to sweep orphaned data", "error", err)
			}
		case <-ctx.Done():
			logger.Info("sweep task stopped")
			return
		}
	}

}
