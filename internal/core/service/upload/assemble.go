package upload

import (
	"context"
	"io"

	"filedepot/internal/core/digest"
	"filedepot/internal/core/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// assemble streams the session's chunks in index order into a single
// stored file, hashing the bytes as they pass. Up to MergePrefetch
// chunk reads run ahead of the writer so store latency overlaps with
// the copy; workers take indexes in order, which keeps the next pipe
// the drain needs always claimed. Memory stays bounded by the pipe
// buffers regardless of file size.
func (s *uploadService) assemble(ctx context.Context, session *domain.UploadSession, records []domain.ChunkRecord, alg digest.Algorithm) (uuid.UUID, string, digest.Digest, error) {
	fileID := uuid.New()

	digester, err := digest.NewDigester(alg)
	if err != nil {
		return uuid.Nil, "", "", err
	}

	prefetch := s.cfg.MergePrefetch
	if prefetch < 1 {
		prefetch = 1
	}
	if prefetch > len(records) {
		prefetch = len(records)
	}

	assembleCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(assembleCtx)

	type part struct {
		record domain.ChunkRecord
		pw     *io.PipeWriter
	}

	pipes := make([]*io.PipeReader, len(records))
	work := make(chan part, len(records))
	for i, record := range records {
		pr, pw := io.Pipe()
		pipes[i] = pr
		work <- part{record: record, pw: pw}
	}
	close(work)

	for w := 0; w < prefetch; w++ {
		g.Go(func() error {
			for p := range work {
				if err := s.fetchChunk(gctx, p.record, p.pw); err != nil {
					return err
				}
			}
			return nil
		})
	}

	outR, outW := io.Pipe()

	var locator string
	g.Go(func() error {
		var err error
		locator, _, err = s.store.WriteFile(gctx, fileID, outR, session.TotalSize)
		outR.CloseWithError(err)
		return err
	})

	// Drain the pipes strictly in index order so the stored file and
	// the digest both see the declared byte sequence.
	sink := io.MultiWriter(outW, digester)
	var drainErr error
	for i, pr := range pipes {
		if _, err := io.Copy(sink, pr); err != nil {
			drainErr = err
			pr.CloseWithError(err)
			for j := i + 1; j < len(pipes); j++ {
				pipes[j].CloseWithError(err)
			}
			break
		}
		pr.Close()
	}
	outW.CloseWithError(drainErr)

	if err := g.Wait(); err != nil {
		return uuid.Nil, "", "", err
	}

	return fileID, locator, digester.Digest(), nil
}

func (s *uploadService) fetchChunk(ctx context.Context, record domain.ChunkRecord, pw *io.PipeWriter) error {
	rc, err := s.store.ReadChunk(ctx, record.SessionID, record.Index)
	if err != nil {
		pw.CloseWithError(err)
		return err
	}
	defer rc.Close()

	_, copyErr := io.Copy(pw, rc)
	pw.CloseWithError(copyErr)
	return copyErr
}
