package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockTaskStore is a mock of store.TaskStore interface for use with testify/mock
type MockTaskStore struct {
	mock.Mock
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// Create is a mock implementation of store.TaskStore.Create
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

// GetByIDForUser is a mock implementation of store.TaskStore.GetByIDForUser
func (m *MockTaskStore) GetByIDForUser(
	ctx context.Context,
	id, userID uuid.UUID,
) (*domain.Task, error) {
	args := m.Called(ctx, id, userID)
	if task, ok := args.Get(0).(*domain.Task); ok {
		return task, args.Error(1)
	}
	return nil, args.Error(1)
}

// List is a mock implementation of store.TaskStore.List
func (m *MockTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	args := m.Called(ctx, filter)
	if tasks, ok := args.Get(0).([]*domain.Task); ok {
		return tasks, args.Error(1)
	}
	return nil, args.Error(1)
}

// Count is a mock implementation of store.TaskStore.Count
func (m *MockTaskStore) Count(ctx context.Context, filter store.TaskFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// UpdateForUser is a mock implementation of store.TaskStore.UpdateForUser
func (m *MockTaskStore) UpdateForUser(
	ctx context.Context,
	id, userID uuid.UUID,
	patch domain.TaskPatch,
	now time.Time,
) (*domain.Task, error) {
	args := m.Called(ctx, id, userID, patch, now)
	if task, ok := args.Get(0).(*domain.Task); ok {
		return task, args.Error(1)
	}
	return nil, args.Error(1)
}

// DeleteForUser is a mock implementation of store.TaskStore.DeleteForUser
func (m *MockTaskStore) DeleteForUser(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// Stats is a mock implementation of store.TaskStore.Stats
func (m *MockTaskStore) Stats(ctx context.Context, userID uuid.UUID) (*store.TaskStats, error) {
	args := m.Called(ctx, userID)
	if stats, ok := args.Get(0).(*store.TaskStats); ok {
		return stats, args.Error(1)
	}
	return nil, args.Error(1)
}
