package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
)

// Pagination defaults for task listings.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// SortField is a client-facing task field that listings may be ordered by.
// Store implementations map each value to their own column or document key.
type SortField string

// Sortable task fields.
const (
	SortByCreatedAt   SortField = "createdAt"
	SortByUpdatedAt   SortField = "updatedAt"
	SortByDueDate     SortField = "dueDate"
	SortByTitle       SortField = "title"
	SortByPriority    SortField = "priority"
	SortByStatus      SortField = "status"
	SortByCompletedAt SortField = "completedAt"
)

var sortFields = map[SortField]struct{}{
	SortByCreatedAt:   {},
	SortByUpdatedAt:   {},
	SortByDueDate:     {},
	SortByTitle:       {},
	SortByPriority:    {},
	SortByStatus:      {},
	SortByCompletedAt: {},
}

// ParseSortField validates a client-supplied sort key against the allow-list.
func ParseSortField(s string) (SortField, bool) {
	f := SortField(s)
	_, ok := sortFields[f]
	return f, ok
}

// SortOrder is the direction of a listing.
type SortOrder string

// Sort directions.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// TaskFilter selects, orders and pages the tasks of a single user.
// It is always built from typed fields, never from raw client keys.
type TaskFilter struct {
	UserID    uuid.UUID
	Status    *domain.TaskStatus
	Priority  *domain.Priority
	SortBy    SortField
	SortOrder SortOrder
	Page      int
	Limit     int
}

// Normalize fills in defaults and clamps paging values.
func (f *TaskFilter) Normalize() {
	if f.SortBy == "" {
		f.SortBy = SortByCreatedAt
	}
	if f.SortOrder != SortAsc {
		f.SortOrder = SortDesc
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
}

// Offset is the number of matching tasks skipped before the current page.
func (f TaskFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// TotalPages returns ceil(total/limit).
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

// StatCount is the size of one group in a task aggregation.
type StatCount struct {
	ID    string `json:"_id"   bson:"_id"   db:"id"`
	Count int64  `json:"count" bson:"count" db:"count"`
}

// TaskStats summarizes a user's tasks.
type TaskStats struct {
	StatusStats   []StatCount `json:"statusStats"`
	PriorityStats []StatCount `json:"priorityStats"`
	Total         int64       `json:"total"`
}

// TaskStore defines the interface for task data persistence.
// Every read and write is scoped by the owning user's id.
type TaskStore interface {
	// Create saves a new task. The task must already be valid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByIDForUser retrieves the task with the given id owned by userID.
	// Returns ErrTaskNotFound when the task is missing or owned by someone else.
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error)

	// List returns one page of the user's tasks matching the filter.
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// Count returns the number of tasks matching the filter, ignoring paging.
	Count(ctx context.Context, filter TaskFilter) (int64, error)

	// UpdateForUser applies the patch to the task with the given id owned by
	// userID in a single write, deriving the completion fields from the new
	// status, and returns the updated task.
	// Returns ErrTaskNotFound when nothing matches.
	UpdateForUser(
		ctx context.Context,
		id, userID uuid.UUID,
		patch domain.TaskPatch,
		now time.Time,
	) (*domain.Task, error)

	// DeleteForUser removes the task with the given id owned by userID.
	// Returns ErrTaskNotFound when nothing matches.
	DeleteForUser(ctx context.Context, id, userID uuid.UUID) error

	// Stats counts the user's tasks grouped by status and by priority.
	Stats(ctx context.Context, userID uuid.UUID) (*TaskStats, error)
}
