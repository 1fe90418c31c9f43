// Package minio backs the chunk store with S3-compatible object
// storage. Object keys double as locators: sessions/<sessionID>/<index>
// for chunks and files/<fileID> for assembled files.
package minio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"filedepot/internal/config"
	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	sessionsPrefix = "sessions/"
	filesPrefix    = "files/"
)

// Adapter is an adapter for minio
type Adapter struct {
	client *minio.Client
	config config.MinioConfig
	logger *slog.Logger
}

// NewAdapter returns Adapter
func NewAdapter(ctx context.Context, cfg config.MinioConfig, logger *slog.Logger) (*Adapter, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Adapter{client: client, config: cfg, logger: logger}, nil
}

var _ port.ChunkStore = (*Adapter)(nil)

func chunkKey(sessionID uuid.UUID, index int) string {
	return fmt.Sprintf("%s%s/%06d", sessionsPrefix, sessionID, index)
}

func fileKey(fileID uuid.UUID) string {
	return filesPrefix + fileID.String()
}

func (a *Adapter) WriteChunk(ctx context.Context, sessionID uuid.UUID, index int, r io.Reader, size int64) (string, error) {
	key := chunkKey(sessionID, index)

	// The duplicate check runs before the reader is touched so the
	// caller may retry with the same reader.
	exists, err := a.exists(ctx, key)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("object %s: %w", key, domain.ErrChunkExists)
	}

	info, err := a.client.PutObject(ctx, a.config.BucketName, key, r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", fmt.Errorf("failed to put chunk object: %w: %v", domain.ErrStorage, err)
	}
	if info.Size != size {
		a.removeQuietly(ctx, key)
		return "", fmt.Errorf("wrote %d bytes, want %d: %w", info.Size, size, domain.ErrSizeMismatch)
	}
	return key, nil
}

func (a *Adapter) HasChunk(ctx context.Context, sessionID uuid.UUID, index int) (bool, error) {
	return a.exists(ctx, chunkKey(sessionID, index))
}

func (a *Adapter) ReadChunk(ctx context.Context, sessionID uuid.UUID, index int) (io.ReadCloser, error) {
	key := chunkKey(sessionID, index)
	exists, err := a.exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("object %s: %w", key, domain.ErrChunkNotFound)
	}

	object, err := a.client.GetObject(ctx, a.config.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk object: %w: %v", domain.ErrStorage, err)
	}
	return object, nil
}

func (a *Adapter) RemoveChunk(ctx context.Context, sessionID uuid.UUID, index int) error {
	key := chunkKey(sessionID, index)
	if err := a.client.RemoveObject(ctx, a.config.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove chunk object: %w: %v", domain.ErrStorage, err)
	}
	return nil
}

func (a *Adapter) RemoveSession(ctx context.Context, sessionID uuid.UUID) error {
	prefix := sessionsPrefix + sessionID.String() + "/"
	for object := range a.client.ListObjects(ctx, a.config.BucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return fmt.Errorf("failed to list session objects: %w: %v", domain.ErrStorage, object.Err)
		}
		if err := a.client.RemoveObject(ctx, a.config.BucketName, object.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to remove session object: %w: %v", domain.ErrStorage, err)
		}
	}
	return nil
}

func (a *Adapter) SessionIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for object := range a.client.ListObjects(ctx, a.config.BucketName, minio.ListObjectsOptions{
		Prefix: sessionsPrefix,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w: %v", domain.ErrStorage, object.Err)
		}
		// non recursive listing yields one prefix entry per session
		name := strings.TrimSuffix(strings.TrimPrefix(object.Key, sessionsPrefix), "/")
		id, err := uuid.Parse(name)
		if err != nil {
			a.logger.Warn("skipping foreign key under sessions prefix", "key", object.Key)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (a *Adapter) WriteFile(ctx context.Context, fileID uuid.UUID, r io.Reader, size int64) (string, int64, error) {
	key := fileKey(fileID)
	info, err := a.client.PutObject(ctx, a.config.BucketName, key, r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to put file object: %w: %v", domain.ErrStorage, err)
	}
	if info.Size != size {
		a.removeQuietly(ctx, key)
		return "", 0, fmt.Errorf("wrote %d bytes, want %d: %w", info.Size, size, domain.ErrSizeMismatch)
	}
	return key, info.Size, nil
}

func (a *Adapter) ReadFile(ctx context.Context, locator string) (io.ReadCloser, error) {
	exists, err := a.exists(ctx, locator)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("object %s: %w", locator, domain.ErrFileNotFound)
	}

	object, err := a.client.GetObject(ctx, a.config.BucketName, locator, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get file object: %w: %v", domain.ErrStorage, err)
	}
	return object, nil
}

func (a *Adapter) RemoveFile(ctx context.Context, locator string) error {
	if err := a.client.RemoveObject(ctx, a.config.BucketName, locator, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove file object: %w: %v", domain.ErrStorage, err)
	}
	return nil
}

func (a *Adapter) exists(ctx context.Context, key string) (bool, error) {
	_, err := a.client.StatObject(ctx, a.config.BucketName, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object: %w: %v", domain.ErrStorage, err)
}

func (a *Adapter) removeQuietly(ctx context.Context, key string) {
	if err := a.client.RemoveObject(ctx, a.config.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		a.logger.Warn("could not remove partial object", "key", key, "error", err)
	}
}
