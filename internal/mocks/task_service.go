package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/service"
	"github.com/phrazzld/taskmanager-api/internal/store"
)

// MockTaskService implements service.TaskService with overridable functions.
// Calls counts every invocation so tests can assert a method was never reached.
type MockTaskService struct {
	ListFn   func(ctx context.Context, filter store.TaskFilter) (*service.TaskPage, error)
	GetFn    func(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	CreateFn func(ctx context.Context, userID uuid.UUID, input service.CreateTaskInput) (*domain.Task, error)
	UpdateFn func(ctx context.Context, userID, taskID uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)
	DeleteFn func(ctx context.Context, userID, taskID uuid.UUID) error
	StatsFn  func(ctx context.Context, userID uuid.UUID) (*store.TaskStats, error)

	Calls int
}

var _ service.TaskService = (*MockTaskService)(nil)

// List implements service.TaskService.
func (m *MockTaskService) List(ctx context.Context, filter store.TaskFilter) (*service.TaskPage, error) {
	m.Calls++
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	return &service.TaskPage{Tasks: []*domain.Task{}, Page: filter.Page}, nil
}

// Get implements service.TaskService.
func (m *MockTaskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	m.Calls++
	if m.GetFn != nil {
		return m.GetFn(ctx, userID, taskID)
	}
	return nil, store.ErrTaskNotFound
}

// Create implements service.TaskService.
func (m *MockTaskService) Create(
	ctx context.Context,
	userID uuid.UUID,
	input service.CreateTaskInput,
) (*domain.Task, error) {
	m.Calls++
	if m.CreateFn != nil {
		return m.CreateFn(ctx, userID, input)
	}
	return nil, nil
}

// Update implements service.TaskService.
func (m *MockTaskService) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	m.Calls++
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, userID, taskID, patch)
	}
	return nil, store.ErrTaskNotFound
}

// Delete implements service.TaskService.
func (m *MockTaskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	m.Calls++
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, userID, taskID)
	}
	return nil
}

// Stats implements service.TaskService.
func (m *MockTaskService) Stats(ctx context.Context, userID uuid.UUID) (*store.TaskStats, error) {
	m.Calls++
	if m.StatsFn != nil {
		return m.StatsFn(ctx, userID)
	}
	return &store.TaskStats{StatusStats: []store.StatCount{}, PriorityStats: []store.StatCount{}}, nil
}
