package upload

import (
	"context"
	"io"

	"filedepot/internal/core/digest"
	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUploadService is a mock implementation of UploadService
type MockUploadService struct {
	mock.Mock
}

// NewMockUploadService creates a new MockUploadService
func NewMockUploadService() *MockUploadService {
	return &MockUploadService{}
}

func (m *MockUploadService) Init(ctx context.Context, params port.InitParams) (*domain.UploadSession, error) {
	args := m.Called(ctx, params)
	var session *domain.UploadSession
	if s, ok := args.Get(0).(*domain.UploadSession); ok {
		session = s
	}
	return session, args.Error(1)
}

func (m *MockUploadService) UploadChunk(ctx context.Context, sessionID uuid.UUID, index int, r io.Reader, size int64, chunkDigest digest.Digest) (*port.UploadProgress, error) {
	args := m.Called(ctx, sessionID, index, r, size, chunkDigest)
	var progress *port.UploadProgress
	if p, ok := args.Get(0).(*port.UploadProgress); ok {
		progress = p
	}
	return progress, args.Error(1)
}

func (m *MockUploadService) Status(ctx context.Context, sessionID uuid.UUID) (*port.SessionDetail, error) {
	args := m.Called(ctx, sessionID)
	var detail *port.SessionDetail
	if d, ok := args.Get(0).(*port.SessionDetail); ok {
		detail = d
	}
	return detail, args.Error(1)
}

func (m *MockUploadService) Merge(ctx context.Context, sessionID uuid.UUID, expectedDigest digest.Digest) (*port.MergeResult, error) {
	args := m.Called(ctx, sessionID, expectedDigest)
	var result *port.MergeResult
	if r, ok := args.Get(0).(*port.MergeResult); ok {
		result = r
	}
	return result, args.Error(1)
}

func (m *MockUploadService) Cancel(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockUploadService) ValidateChunk(ctx context.Context, sessionID uuid.UUID, index int, expected digest.Digest) (bool, error) {
	args := m.Called(ctx, sessionID, index, expected)
	return args.Bool(0), args.Error(1)
}

func (m *MockUploadService) FindFile(ctx context.Context, fileID uuid.UUID) (*domain.FinalizedFile, error) {
	args := m.Called(ctx, fileID)
	var file *domain.FinalizedFile
	if f, ok := args.Get(0).(*domain.FinalizedFile); ok {
		file = f
	}
	return file, args.Error(1)
}

func (m *MockUploadService) FindFileByDigest(ctx context.Context, d digest.Digest) (*domain.FinalizedFile, error) {
	args := m.Called(ctx, d)
	var file *domain.FinalizedFile
	if f, ok := args.Get(0).(*domain.FinalizedFile); ok {
		file = f
	}
	return file, args.Error(1)
}
