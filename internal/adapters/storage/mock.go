package storage

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockChunkStore struct {
	mock.Mock
}

func NewMockChunkStore() *MockChunkStore {
	return &MockChunkStore{}
}

func (m *MockChunkStore) WriteChunk(ctx context.Context, sessionID uuid.UUID, index int, r io.Reader, size int64) (string, error) {
	args := m.Called(ctx, sessionID, index, r, size)
	return args.String(0), args.Error(1)
}

func (m *MockChunkStore) HasChunk(ctx context.Context, sessionID uuid.UUID, index int) (bool, error) {
	args := m.Called(ctx, sessionID, index)
	return args.Bool(0), args.Error(1)
}

func (m *MockChunkStore) ReadChunk(ctx context.Context, sessionID uuid.UUID, index int) (io.ReadCloser, error) {
	args := m.Called(ctx, sessionID, index)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChunkStore) RemoveChunk(ctx context.Context, sessionID uuid.UUID, index int) error {
	args := m.Called(ctx, sessionID, index)
	return args.Error(0)
}

func (m *MockChunkStore) RemoveSession(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockChunkStore) SessionIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if ids, ok := args.Get(0).([]uuid.UUID); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChunkStore) WriteFile(ctx context.Context, fileID uuid.UUID, r io.Reader, size int64) (string, int64, error) {
	args := m.Called(ctx, fileID, r, size)
	return args.String(0), args.Get(1).(int64), args.Error(2)
}

func (m *MockChunkStore) ReadFile(ctx context.Context, locator string) (io.ReadCloser, error) {
	args := m.Called(ctx, locator)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChunkStore) RemoveFile(ctx context.Context, locator string) error {
	args := m.Called(ctx, locator)
	return args.Error(0)
}
