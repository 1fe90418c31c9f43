package upload

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"filedepot/internal/config"
	"filedepot/internal/core/digest"
	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"
)

type uploadService struct {
	uow    port.UnitOfWork
	store  port.ChunkStore
	events port.EventPublisher
	cfg    config.UploadConfig
	logger *slog.Logger
	alg    digest.Algorithm
}

// NewUploadService creates a new upload session service
func NewUploadService(uow port.UnitOfWork, store port.ChunkStore, events port.EventPublisher, cfg config.UploadConfig, logger *slog.Logger) port.UploadService {
	alg := digest.Algorithm(cfg.DigestAlgorithm)
	if !alg.Valid() {
		alg = digest.DefaultAlgorithm
	}

	return &uploadService{
		uow:    uow,
		store:  store,
		events: events,
		cfg:    cfg,
		logger: logger,
		alg:    alg,
	}
}

func (s *uploadService) validateExtension(fileName string) error {
	if len(s.cfg.AllowedExtensions) == 0 {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	for _, allowed := range s.cfg.AllowedExtensions {
		if !strings.HasPrefix(allowed, ".") {
			allowed = "." + allowed
		}
		if strings.EqualFold(ext, allowed) {
			return nil
		}
	}

	return fmt.Errorf("extension %q is not allowed: %w", ext, domain.ErrExtensionNotAllowed)
}

// checkLive rejects operations on sessions that can no longer accept
// them: terminal sessions and sessions whose deadline passed. Expiry
// surfaces lazily here; the sweeper reclaims the data later.
func (s *uploadService) checkLive(session *domain.UploadSession, now time.Time) error {
	if session.Status.IsTerminal() {
		return fmt.Errorf("session %s is %s: %w", session.ID, session.Status, domain.ErrInvalidState)
	}
	if session.ExpiredAt(now) {
		return fmt.Errorf("session %s expired at %s: %w", session.ID, session.ExpiresAt.Format(time.RFC3339), domain.ErrSessionExpired)
	}
	return nil
}

// parseDigest revalidates a caller-supplied digest. Handlers already
// parse input, but the service is also called directly.
func parseDigest(d digest.Digest, label string) (digest.Digest, error) {
	parsed, err := digest.Parse(string(d))
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", label, err, domain.ErrInvalidArgument)
	}
	return parsed, nil
}

func progressOf(count, totalChunks int) *port.UploadProgress {
	status := domain.SessionStatusInitialized
	switch {
	case totalChunks > 0 && count >= totalChunks:
		status = domain.SessionStatusCompleted
	case count > 0:
		status = domain.SessionStatusUploading
	}

	percent := 0.0
	if totalChunks > 0 {
		percent = float64(count) / float64(totalChunks) * 100
	}

	return &port.UploadProgress{
		UploadedChunks: count,
		TotalChunks:    totalChunks,
		Percent:        percent,
		Status:         status,
	}
}
