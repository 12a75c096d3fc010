package main

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/service/auth"
	"github.com/phrazzld/taskmanager-api/internal/store"
)

// memUserStore is an in-memory store.UserStore that hashes like the real stores.
type memUserStore struct {
	mu     sync.Mutex
	hasher auth.PasswordHasher
	users  map[uuid.UUID]*domain.User
}

func newMemUserStore(hasher auth.PasswordHasher) *memUserStore {
	return &memUserStore{hasher: hasher, users: make(map[uuid.UUID]*domain.User)}
}

func (s *memUserStore) Create(_ context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return store.ErrUserExists
		}
	}

	if user.Password != "" {
		hash, err := s.hasher.Hash(user.Password)
		if err != nil {
			return err
		}
		user.HashedPassword = hash
		user.Password = ""
	}
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *memUserStore) GetByLogin(_ context.Context, login string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := domain.NormalizeEmail(login)
	for _, u := range s.users {
		if u.Username == login || u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *memUserStore) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = domain.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// memTaskStore is an in-memory store.TaskStore.
type memTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (s *memTaskStore) Create(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *task
	s.tasks[task.ID] = &clone
	return nil
}

func (s *memTaskStore) GetByIDForUser(_ context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, store.ErrTaskNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *memTaskStore) matching(filter store.TaskFilter) []*domain.Task {
	var out []*domain.Task
	for _, t := range s.tasks {
		if t.UserID != filter.UserID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	return out
}

func sortKey(t *domain.Task, field store.SortField) string {
	timeKey := func(tp *time.Time) string {
		if tp == nil {
			return ""
		}
		return tp.Format(time.RFC3339Nano)
	}
	switch field {
	case store.SortByTitle:
		return strings.ToLower(t.Title)
	case store.SortByPriority:
		return string(t.Priority)
	case store.SortByStatus:
		return string(t.Status)
	case store.SortByDueDate:
		return timeKey(t.DueDate)
	case store.SortByCompletedAt:
		return timeKey(t.CompletedAt)
	case store.SortByUpdatedAt:
		return timeKey(&t.UpdatedAt)
	default:
		return timeKey(&t.CreatedAt)
	}
}

func (s *memTaskStore) List(_ context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.matching(filter)
	sort.Slice(tasks, func(i, j int) bool {
		a, b := sortKey(tasks[i], filter.SortBy), sortKey(tasks[j], filter.SortBy)
		if a == b {
			a, b = tasks[i].ID.String(), tasks[j].ID.String()
		}
		if filter.SortOrder == store.SortAsc {
			return a < b
		}
		return a > b
	})

	start := filter.Offset()
	if start >= len(tasks) {
		return []*domain.Task{}, nil
	}
	end := start + filter.Limit
	if end > len(tasks) {
		end = len(tasks)
	}
	return tasks[start:end], nil
}

func (s *memTaskStore) Count(_ context.Context, filter store.TaskFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.matching(filter))), nil
}

func (s *memTaskStore) UpdateForUser(
	_ context.Context,
	id, userID uuid.UUID,
	patch domain.TaskPatch,
	now time.Time,
) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, store.ErrTaskNotFound
	}
	t.Apply(patch, now)
	clone := *t
	return &clone, nil
}

func (s *memTaskStore) DeleteForUser(_ context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *memTaskStore) Stats(_ context.Context, userID uuid.UUID) (*store.TaskStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byStatus := map[string]int64{}
	byPriority := map[string]int64{}
	var total int64
	for _, t := range s.tasks {
		if t.UserID != userID {
			continue
		}
		byStatus[string(t.Status)]++
		byPriority[string(t.Priority)]++
		total++
	}

	return &store.TaskStats{
		StatusStats:   statCounts(byStatus),
		PriorityStats: statCounts(byPriority),
		Total:         total,
	}, nil
}

func statCounts(m map[string]int64) []store.StatCount {
	out := make([]store.StatCount, 0, len(m))
	for id, n := range m {
		out = append(out, store.StatCount{ID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
