package repository

import (
	"context"
	"time"

	"filedepot/internal/core/digest"
	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockSessionRepository struct {
	mock.Mock
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{}
}

func (m *MockSessionRepository) Create(ctx context.Context, session domain.UploadSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.UploadSession), args.Error(1)
}

func (m *MockSessionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.UploadSession), args.Error(1)
}

func (m *MockSessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, next domain.SessionStatus) (bool, error) {
	args := m.Called(ctx, id, next)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) SetFinalized(ctx context.Context, id uuid.UUID, next domain.SessionStatus, fileID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, next, fileID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]domain.UploadSession, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]domain.UploadSession), args.Error(1)
}

func (m *MockSessionRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockChunkRepository struct {
	mock.Mock
}

func NewMockChunkRepository() *MockChunkRepository {
	return &MockChunkRepository{}
}

func (m *MockChunkRepository) Insert(ctx context.Context, record domain.ChunkRecord) (bool, error) {
	args := m.Called(ctx, record)
	return args.Bool(0), args.Error(1)
}

func (m *MockChunkRepository) Exists(ctx context.Context, sessionID uuid.UUID, index int) (bool, error) {
	args := m.Called(ctx, sessionID, index)
	return args.Bool(0), args.Error(1)
}

func (m *MockChunkRepository) Find(ctx context.Context, sessionID uuid.UUID, index int) (*domain.ChunkRecord, error) {
	args := m.Called(ctx, sessionID, index)
	return args.Get(0).(*domain.ChunkRecord), args.Error(1)
}

func (m *MockChunkRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.ChunkRecord, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.ChunkRecord), args.Error(1)
}

func (m *MockChunkRepository) Indexes(ctx context.Context, sessionID uuid.UUID) ([]int, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockChunkRepository) CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *MockChunkRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(int64), args.Error(1)
}

type MockFileRepository struct {
	mock.Mock
}

func NewMockFileRepository() *MockFileRepository {
	return &MockFileRepository{}
}

func (m *MockFileRepository) InsertIfAbsent(ctx context.Context, file domain.FinalizedFile) (*domain.FinalizedFile, bool, error) {
	args := m.Called(ctx, file)
	return args.Get(0).(*domain.FinalizedFile), args.Bool(1), args.Error(2)
}

func (m *MockFileRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.FinalizedFile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.FinalizedFile), args.Error(1)
}

func (m *MockFileRepository) FindByDigest(ctx context.Context, d digest.Digest) (*domain.FinalizedFile, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(*domain.FinalizedFile), args.Error(1)
}

type MockUnitOfWork struct {
	mock.Mock
	sessionRepo *MockSessionRepository
	chunkRepo   *MockChunkRepository
	fileRepo    *MockFileRepository
}

func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		sessionRepo: &MockSessionRepository{},
		chunkRepo:   &MockChunkRepository{},
		fileRepo:    &MockFileRepository{},
	}
}

func (m *MockUnitOfWork) SessionRepo() port.SessionRepository {
	return m.sessionRepo
}

func (m *MockUnitOfWork) ChunkRepo() port.ChunkRepository {
	return m.chunkRepo
}

func (m *MockUnitOfWork) FileRepo() port.FileRepository {
	return m.fileRepo
}

func (m *MockUnitOfWork) Execute(ctx context.Context, fn func(uow port.UnitOfWork) error) error {
	args := m.Called(ctx, fn)

	if err := fn(m); err != nil {
		return err
	}

	return args.Error(0)
}

func (m *MockUnitOfWork) GetSessionRepoMock() *MockSessionRepository {
	return m.sessionRepo
}

func (m *MockUnitOfWork) GetChunkRepoMock() *MockChunkRepository {
	return m.chunkRepo
}

func (m *MockUnitOfWork) GetFileRepoMock() *MockFileRepository {
	return m.fileRepo
}
