package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"filedepot/internal/adapters/repository/postgres"
	"filedepot/internal/adapters/storage/disk"
	"filedepot/internal/adapters/storage/minio"
	"filedepot/internal/config"
	"filedepot/internal/core/port"
	"filedepot/internal/core/service/cleanup"
)

// The sweeper runs the same reclaim passes the api embeds, as its own
// process for deployments that scale the api horizontally and want a
// single sweep owner.
func main() {

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	// Initialize database
	db, err := initDB(cfg.Database)
	if err != nil {
		logger.Error("failed to init database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()
	logger.Info("db connection established")

	chunkStore, err := initChunkStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init chunk store", "error", err)
		os.Exit(1)
	}
	logger.Info("chunk store initialized", "backend", cfg.Storage.Backend)

	// Initialize repositories and service
	unitOfWork := postgres.NewUnitOfWork(db)
	cleanupService := cleanup.NewCleanupService(unitOfWork, chunkStore, logger)

	logger.Info("sweeper started", "interval", cfg.Upload.SweepEvery)

	ticker := time.NewTicker(cfg.Upload.SweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := cleanupService.CleanupExpiredSessions(ctx, time.Now().UTC()); err != nil {
				logger.Error("failed to sweep expired sessions", "error", err)
			}
			if _, err := cleanupService.CleanupOrphanedData(ctx); err != nil {
				logger.Error("failed to sweep orphaned data", "error", err)
			}
		case <-ctx.Done():
			logger.Info("sweeper shutdown complete")
			return
		}
	}
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
		db.Close()
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
