// Package memory backs the repository ports with in-process maps. It
// serves tests and single-node development setups; postgres is the
// production backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"filedepot/internal/core/digest"
	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
)

// Store holds every table in memory behind one lock.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]domain.UploadSession
	chunks   map[uuid.UUID]map[int]domain.ChunkRecord
	files    map[uuid.UUID]domain.FinalizedFile
	byDigest map[digest.Digest]uuid.UUID

	// txMu serializes Execute calls. Work units run one at a time;
	// there is no rollback on error.
	txMu sync.Mutex
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[uuid.UUID]domain.UploadSession),
		chunks:   make(map[uuid.UUID]map[int]domain.ChunkRecord),
		files:    make(map[uuid.UUID]domain.FinalizedFile),
		byDigest: make(map[digest.Digest]uuid.UUID),
	}
}

type unitOfWork struct {
	store *Store
	inTx  bool
}

// NewUnitOfWork wraps the store as a port.UnitOfWork.
func NewUnitOfWork(store *Store) port.UnitOfWork {
	return &unitOfWork{store: store}
}

func (u *unitOfWork) SessionRepo() port.SessionRepository {
	return &sessionRepository{store: u.store}
}

func (u *unitOfWork) ChunkRepo() port.ChunkRepository {
	return &chunkRepository{store: u.store}
}

func (u *unitOfWork) FileRepo() port.FileRepository {
	return &fileRepository{store: u.store}
}

func (u *unitOfWork) Execute(ctx context.Context, fn func(uow port.UnitOfWork) error) error {
	if u.inTx {
		return fn(u)
	}
	u.store.txMu.Lock()
	defer u.store.txMu.Unlock()
	return fn(&unitOfWork{store: u.store, inTx: true})
}

type sessionRepository struct {
	store *Store
}

// NewSessionRepository exposes the session table on its own, for
// callers that do not need a unit of work.
func NewSessionRepository(store *Store) port.SessionRepository {
	return &sessionRepository{store: store}
}

func (r *sessionRepository) Create(ctx context.Context, session domain.UploadSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.sessions[session.ID]; ok {
		return fmt.Errorf("session %s: %w", session.ID, domain.ErrInvalidArgument)
	}
	r.store.sessions[session.ID] = session
	return nil
}

func (r *sessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	session, ok := r.store.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

// FindByIDForUpdate has no row locks to take here; Execute already
// serializes writers.
func (r *sessionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	return r.FindByID(ctx, id)
}

func (r *sessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, next domain.SessionStatus) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	session, ok := r.store.sessions[id]
	if !ok || !session.Status.CanTransition(next) {
		return false, nil
	}
	session.Status = next
	session.UpdatedAt = time.Now()
	r.store.sessions[id] = session
	return true, nil
}

func (r *sessionRepository) SetFinalized(ctx context.Context, id uuid.UUID, next domain.SessionStatus, fileID uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	session, ok := r.store.sessions[id]
	if !ok || !session.Status.CanTransition(next) {
		return false, nil
	}
	session.Status = next
	session.FinalizedFileID = &fileID
	session.UpdatedAt = time.Now()
	r.store.sessions[id] = session
	return true, nil
}

func (r *sessionRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]domain.UploadSession, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var expired []domain.UploadSession
	for _, session := range r.store.sessions {
		if session.Status != domain.SessionStatusMerged && session.ExpiresAt.Before(now) {
			expired = append(expired, session)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

func (r *sessionRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, ok := r.store.sessions[id]
	return ok, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(r.store.sessions, id)
	// cascade, as the sql schema does
	delete(r.store.chunks, id)
	return nil
}

type chunkRepository struct {
	store *Store
}

func NewChunkRepository(store *Store) port.ChunkRepository {
	return &chunkRepository{store: store}
}

func (r *chunkRepository) Insert(ctx context.Context, record domain.ChunkRecord) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	perSession, ok := r.store.chunks[record.SessionID]
	if !ok {
		perSession = make(map[int]domain.ChunkRecord)
		r.store.chunks[record.SessionID] = perSession
	}
	if _, ok := perSession[record.Index]; ok {
		return false, nil
	}
	perSession[record.Index] = record
	return true, nil
}

func (r *chunkRepository) Exists(ctx context.Context, sessionID uuid.UUID, index int) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, ok := r.store.chunks[sessionID][index]
	return ok, nil
}

func (r *chunkRepository) Find(ctx context.Context, sessionID uuid.UUID, index int) (*domain.ChunkRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	record, ok := r.store.chunks[sessionID][index]
	if !ok {
		return nil, domain.ErrChunkNotFound
	}
	return &record, nil
}

func (r *chunkRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.ChunkRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	perSession := r.store.chunks[sessionID]
	records := make([]domain.ChunkRecord, 0, len(perSession))
	for _, record := range perSession {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Index < records[j].Index
	})
	return records, nil
}

func (r *chunkRepository) Indexes(ctx context.Context, sessionID uuid.UUID) ([]int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	perSession := r.store.chunks[sessionID]
	indexes := make([]int, 0, len(perSession))
	for index := range perSession {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)
	return indexes, nil
}

func (r *chunkRepository) CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return len(r.store.chunks[sessionID]), nil
}

func (r *chunkRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	deleted := int64(len(r.store.chunks[sessionID]))
	delete(r.store.chunks, sessionID)
	return deleted, nil
}

type fileRepository struct {
	store *Store
}

func NewFileRepository(store *Store) port.FileRepository {
	return &fileRepository{store: store}
}

func (r *fileRepository) InsertIfAbsent(ctx context.Context, file domain.FinalizedFile) (*domain.FinalizedFile, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := file.Digest.Normalized()
	if winnerID, ok := r.store.byDigest[key]; ok {
		winner := r.store.files[winnerID]
		return &winner, false, nil
	}
	r.store.files[file.ID] = file
	r.store.byDigest[key] = file.ID
	return &file, true, nil
}

func (r *fileRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.FinalizedFile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	file, ok := r.store.files[id]
	if !ok {
		return nil, domain.ErrFileNotFound
	}
	return &file, nil
}

func (r *fileRepository) FindByDigest(ctx context.Context, d digest.Digest) (*domain.FinalizedFile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.byDigest[d.Normalized()]
	if !ok {
		return nil, domain.ErrFileNotFound
	}
	file := r.store.files[id]
	return &file, nil
}
