package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/store"
	"golang.org/x/sync/singleflight"
)

// StatsCache stores computed task statistics per user.
// A miss is reported as (nil, nil).
type StatsCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*store.TaskStats, error)
	Set(ctx context.Context, userID uuid.UUID, stats *store.TaskStats) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// CreateTaskInput carries the client-supplied fields of a new task.
// Empty Priority and Status take their defaults.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    domain.Priority
	Status      domain.TaskStatus
	DueDate     *time.Time
}

// TaskPage is one page of a task listing.
type TaskPage struct {
	Tasks []*domain.Task
	Page  int
	Pages int64
	Total int64
}

// TaskService provides owner-scoped task operations.
// A task owned by another user is always reported as store.ErrTaskNotFound.
type TaskService interface {
	List(ctx context.Context, filter store.TaskFilter) (*TaskPage, error)
	Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*domain.Task, error)
	Update(ctx context.Context, userID, taskID uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
	Stats(ctx context.Context, userID uuid.UUID) (*store.TaskStats, error)
}

// TaskServiceImpl implements the TaskService interface
type TaskServiceImpl struct {
	taskStore store.TaskStore
	cache     StatsCache
	group     singleflight.Group
	now       func() time.Time

	// statsGen counts writes per user so a stats load that raced a write
	// is not cached.
	statsMu  sync.Mutex
	statsGen map[uuid.UUID]uint64
	logger    *slog.Logger
}

var _ TaskService = (*TaskServiceImpl)(nil)

// TaskServiceOption configures a TaskServiceImpl.
type TaskServiceOption func(*TaskServiceImpl)

// WithStatsCache enables caching of task statistics.
func WithStatsCache(cache StatsCache) TaskServiceOption {
	return func(s *TaskServiceImpl) {
		s.cache = cache
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) TaskServiceOption {
	return func(s *TaskServiceImpl) {
		s.now = now
	}
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskStore store.TaskStore,
	logger *slog.Logger,
	opts ...TaskServiceOption,
) *TaskServiceImpl {
	s := &TaskServiceImpl{
		taskStore: taskStore,
		now:       time.Now,
		statsGen:  make(map[uuid.UUID]uint64),
		logger:    logger.With("component", "task_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List implements TaskService.List.
func (s *TaskServiceImpl) List(ctx context.Context, filter store.TaskFilter) (*TaskPage, error) {
	filter.Normalize()

	tasks, err := s.taskStore.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list tasks", "error", err, "user_id", filter.UserID)
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	total, err := s.taskStore.Count(ctx, filter)
	if err != nil {
		s.logger.Error("failed to count tasks", "error", err, "user_id", filter.UserID)
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	if tasks == nil {
		tasks = []*domain.Task{}
	}

	return &TaskPage{
		Tasks: tasks,
		Page:  filter.Page,
		Pages: store.TotalPages(total, filter.Limit),
		Total: total,
	}, nil
}

// Get implements TaskService.Get.
func (s *TaskServiceImpl) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetByIDForUser(ctx, taskID, userID)
	if err != nil {
		s.logStoreError("failed to retrieve task", err, userID, taskID)
		return nil, fmt.Errorf("failed to retrieve task: %w", err)
	}
	return task, nil
}

// Create implements TaskService.Create.
func (s *TaskServiceImpl) Create(
	ctx context.Context,
	userID uuid.UUID,
	input CreateTaskInput,
) (*domain.Task, error) {
	task, err := domain.NewTask(
		userID,
		input.Title,
		input.Description,
		input.Priority,
		input.Status,
		input.DueDate,
		s.now(),
	)
	if err != nil {
		return nil, err
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		s.logger.Error("failed to save task", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.invalidateStats(ctx, userID)
	s.logger.Debug("task created", "user_id", userID, "task_id", task.ID)

	return task, nil
}

// Update implements TaskService.Update.
func (s *TaskServiceImpl) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	now := s.now()
	patch.Normalize()
	if err := patch.Validate(now); err != nil {
		return nil, err
	}

	task, err := s.taskStore.UpdateForUser(ctx, taskID, userID, patch, now)
	if err != nil {
		s.logStoreError("failed to update task", err, userID, taskID)
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.invalidateStats(ctx, userID)
	s.logger.Debug("task updated", "user_id", userID, "task_id", taskID)

	return task, nil
}

// Delete implements TaskService.Delete.
func (s *TaskServiceImpl) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	if err := s.taskStore.DeleteForUser(ctx, taskID, userID); err != nil {
		s.logStoreError("failed to delete task", err, userID, taskID)
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.invalidateStats(ctx, userID)
	s.logger.Debug("task deleted", "user_id", userID, "task_id", taskID)

	return nil
}

// Stats implements TaskService.Stats. With a cache configured, concurrent
// misses for the same user share a single aggregation.
func (s *TaskServiceImpl) Stats(ctx context.Context, userID uuid.UUID) (*store.TaskStats, error) {
	if s.cache == nil {
		return s.loadStats(ctx, userID)
	}

	cached, err := s.cache.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("stats cache read failed", "error", err, "user_id", userID)
	} else if cached != nil {
		return cached, nil
	}

	v, err, _ := s.group.Do(userID.String(), func() (any, error) {
		gen := s.statsGeneration(userID)
		stats, err := s.loadStats(ctx, userID)
		if err != nil {
			return nil, err
		}
		if s.statsGeneration(userID) != gen {
			return stats, nil
		}
		if err := s.cache.Set(ctx, userID, stats); err != nil {
			s.logger.Warn("stats cache write failed", "error", err, "user_id", userID)
		}
		// A write that landed between the check and Set has already
		// invalidated, so drop what we just stored.
		if s.statsGeneration(userID) != gen {
			s.dropStats(ctx, userID)
		}
		return stats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*store.TaskStats), nil
}

func (s *TaskServiceImpl) loadStats(ctx context.Context, userID uuid.UUID) (*store.TaskStats, error) {
	stats, err := s.taskStore.Stats(ctx, userID)
	if err != nil {
		s.logger.Error("failed to aggregate task stats", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to compute task stats: %w", err)
	}
	return stats, nil
}

func (s *TaskServiceImpl) statsGeneration(userID uuid.UUID) uint64 {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.statsGen[userID]
}

// invalidateStats must run after the store write has completed.
func (s *TaskServiceImpl) invalidateStats(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	s.statsMu.Lock()
	s.statsGen[userID]++
	s.statsMu.Unlock()

	s.dropStats(ctx, userID)
}

func (s *TaskServiceImpl) dropStats(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("stats cache invalidation failed", "error", err, "user_id", userID)
	}
}

func (s *TaskServiceImpl) logStoreError(msg string, err error, userID, taskID uuid.UUID) {
	if errors.Is(err, store.ErrTaskNotFound) {
		s.logger.Debug(msg, "error", err, "user_id", userID, "task_id", taskID)
		return
	}
	s.logger.Error(msg, "error", err, "user_id", userID, "task_id", taskID)
}
