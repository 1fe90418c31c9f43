// Package disk stores chunk and file bytes on the local filesystem.
// Layout: <root>/sessions/<sessionID>/<index>.chunk and
// <root>/files/<fileID>.bin, with a .zst suffix when compression is
// on. Locators are slash-separated paths relative to root.
package disk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

const (
	sessionsDir = "sessions"
	filesDir    = "files"
	zstSuffix   = ".zst"
)

type Store struct {
	root     string
	compress bool
	logger   *slog.Logger
}

// NewStore prepares the directory layout under root.
func NewStore(root string, compress bool, logger *slog.Logger) (*Store, error) {
	for _, dir := range []string{sessionsDir, filesDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("could not create storage directory: %w", err)
		}
	}
	return &Store{root: root, compress: compress, logger: logger}, nil
}

var _ port.ChunkStore = (*Store)(nil)

func (s *Store) WriteChunk(ctx context.Context, sessionID uuid.UUID, index int, r io.Reader, size int64) (string, error) {
	dir := filepath.Join(s.root, sessionsDir, sessionID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	// Claim the name before consuming the reader, so a duplicate is
	// reported while the caller can still retry with the same reader.
	if exists, err := s.HasChunk(ctx, sessionID, index); err != nil {
		return "", err
	} else if exists {
		return "", fmt.Errorf("chunk %d of session %s: %w", index, sessionID, domain.ErrChunkExists)
	}

	name := chunkFileName(index, s.compress)
	path := filepath.Join(dir, name)
	locator := toLocator(sessionsDir, sessionID.String(), name)

	if err := s.writeTo(path, r, size); err != nil {
		return "", err
	}
	return locator, nil
}

func (s *Store) HasChunk(ctx context.Context, sessionID uuid.UUID, index int) (bool, error) {
	for _, compressed := range []bool{false, true} {
		path := filepath.Join(s.root, sessionsDir, sessionID.String(), chunkFileName(index, compressed))
		if _, err := os.Stat(path); err == nil {
			return true, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
	}
	return false, nil
}

func (s *Store) ReadChunk(ctx context.Context, sessionID uuid.UUID, index int) (io.ReadCloser, error) {
	for _, compressed := range []bool{false, true} {
		path := filepath.Join(s.root, sessionsDir, sessionID.String(), chunkFileName(index, compressed))
		rc, err := openMaybeCompressed(path, compressed)
		if err == nil {
			return rc, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
	}
	return nil, fmt.Errorf("chunk %d of session %s: %w", index, sessionID, domain.ErrChunkNotFound)
}

func (s *Store) RemoveChunk(ctx context.Context, sessionID uuid.UUID, index int) error {
	for _, compressed := range []bool{false, true} {
		path := filepath.Join(s.root, sessionsDir, sessionID.String(), chunkFileName(index, compressed))
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
	}
	return nil
}

func (s *Store) RemoveSession(ctx context.Context, sessionID uuid.UUID) error {
	if err := os.RemoveAll(filepath.Join(s.root, sessionsDir, sessionID.String())); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}

func (s *Store) SessionIDs(ctx context.Context) ([]uuid.UUID, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, sessionsDir))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	var ids []uuid.UUID
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := uuid.Parse(entry.Name())
		if err != nil {
			s.logger.Warn("skipping foreign entry in session storage", "name", entry.Name())
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) WriteFile(ctx context.Context, fileID uuid.UUID, r io.Reader, size int64) (string, int64, error) {
	name := fileFileName(fileID, s.compress)
	path := filepath.Join(s.root, filesDir, name)

	if err := s.writeTo(path, r, size); err != nil {
		return "", 0, err
	}
	return toLocator(filesDir, name), size, nil
}

func (s *Store) ReadFile(ctx context.Context, locator string) (io.ReadCloser, error) {
	path, err := s.resolve(locator)
	if err != nil {
		return nil, err
	}
	rc, err := openMaybeCompressed(path, strings.HasSuffix(path, zstSuffix))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("locator %q: %w", locator, domain.ErrFileNotFound)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return rc, nil
}

func (s *Store) RemoveFile(ctx context.Context, locator string) error {
	path, err := s.resolve(locator)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}

// writeTo creates path exclusively, streams r into it and fsyncs. The
// partial file is removed on any failure, so a crash or error never
// leaves readable garbage behind the locator.
func (s *Store) writeTo(path string, r io.Reader, size int64) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", filepath.Base(path), domain.ErrChunkExists)
		}
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	var w io.Writer = f
	var enc *zstd.Encoder
	if strings.HasSuffix(path, zstSuffix) {
		enc, err = zstd.NewWriter(f)
		if err != nil {
			f.Close()
			os.Remove(path)
			return fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		w = enc
	}

	n, err := io.Copy(w, r)
	if enc != nil {
		if closeErr := enc.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
	}
	if err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if n != size {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("wrote %d bytes, want %d: %w", n, size, domain.ErrSizeMismatch)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return f.Close()
}

// resolve turns a locator back into an absolute path and rejects
// anything that would escape the root.
func (s *Store) resolve(locator string) (string, error) {
	path := filepath.Join(s.root, filepath.FromSlash(locator))
	if !strings.HasPrefix(path, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("locator %q escapes storage root: %w", locator, domain.ErrInvalidArgument)
	}
	return path, nil
}

func chunkFileName(index int, compressed bool) string {
	name := fmt.Sprintf("%06d.chunk", index)
	if compressed {
		name += zstSuffix
	}
	return name
}

func fileFileName(fileID uuid.UUID, compressed bool) string {
	name := fileID.String() + ".bin"
	if compressed {
		name += zstSuffix
	}
	return name
}

func toLocator(parts ...string) string {
	return strings.Join(parts, "/")
}

func openMaybeCompressed(path string, compressed bool) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !compressed {
		return f, nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &zstdReadCloser{dec: dec, f: f}, nil
}

type zstdReadCloser struct {
	dec *zstd.Decoder
	f   *os.File
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	return z.dec.Read(p)
}

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.f.Close()
}
