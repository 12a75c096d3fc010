package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/platform/logger"
	"github.com/phrazzld/taskmanager-api/internal/store"
)

var taskColumns = []string{
	"id", "user_id", "title", "description", "priority", "status",
	"due_date", "completed", "completed_at", "created_at", "updated_at",
}

// sortColumns maps the client-facing sort keys to columns.
var sortColumns = map[store.SortField]string{
	store.SortByCreatedAt:   "created_at",
	store.SortByUpdatedAt:   "updated_at",
	store.SortByDueDate:     "due_date",
	store.SortByTitle:       "title",
	store.SortByPriority:    "priority",
	store.SortByStatus:      "status",
	store.SortByCompletedAt: "completed_at",
}

type taskRow struct {
	ID          uuid.UUID    `db:"id"`
	UserID      uuid.UUID    `db:"user_id"`
	Title       string       `db:"title"`
	Description string       `db:"description"`
	Priority    string       `db:"priority"`
	Status      string       `db:"status"`
	DueDate     sql.NullTime `db:"due_date"`
	Completed   bool         `db:"completed"`
	CompletedAt sql.NullTime `db:"completed_at"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

func (r taskRow) toDomain() *domain.Task {
	return &domain.Task{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    domain.Priority(r.Priority),
		Status:      domain.TaskStatus(r.Status),
		DueDate:     nullTimePtr(r.DueDate),
		Completed:   r.Completed,
		CompletedAt: nullTimePtr(r.CompletedAt),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create.
// Returns store.ErrInvalidEntity if the owner does not exist.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args, err := psql.Insert("tasks").
		Columns(taskColumns...).
		Values(
			task.ID,
			task.UserID,
			task.Title,
			task.Description,
			string(task.Priority),
			string(task.Status),
			timeArg(task.DueDate),
			task.Completed,
			timeArg(task.CompletedAt),
			task.CreatedAt,
			task.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to insert task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()))
		return store.NewStoreError("task", "create", "failed to insert task", MapError(err))
	}

	return nil
}

// GetByIDForUser implements store.TaskStore.GetByIDForUser.
func (s *PostgresTaskStore) GetByIDForUser(
	ctx context.Context,
	id, userID uuid.UUID,
) (*domain.Task, error) {
	query, args, err := psql.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": id.String(), "user_id": userID.String()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	var row taskRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, store.NewStoreError("task", "get", "failed to query task", MapError(err))
	}

	return row.toDomain(), nil
}

// filtered applies the owner predicate and the optional equality filters.
func filtered(q sq.SelectBuilder, filter store.TaskFilter) sq.SelectBuilder {
	q = q.Where(sq.Eq{"user_id": filter.UserID.String()})
	if filter.Status != nil {
		q = q.Where(sq.Eq{"status": string(*filter.Status)})
	}
	if filter.Priority != nil {
		q = q.Where(sq.Eq{"priority": string(*filter.Priority)})
	}
	return q
}

// List implements store.TaskStore.List.
func (s *PostgresTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	column, ok := sortColumns[filter.SortBy]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported sort field %q", store.ErrInvalidEntity, filter.SortBy)
	}
	// Missing values sort lowest, as they do in MongoDB.
	direction, nulls := "DESC", "NULLS LAST"
	if filter.SortOrder == store.SortAsc {
		direction, nulls = "ASC", "NULLS FIRST"
	}

	query, args, err := filtered(psql.Select(taskColumns...).From("tasks"), filter).
		OrderBy(column+" "+direction+" "+nulls, "id "+direction).
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset())).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", filter.UserID.String()))
		return nil, store.NewStoreError("task", "list", "failed to list tasks", MapError(err))
	}

	tasks := make([]*domain.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toDomain())
	}
	return tasks, nil
}

// Count implements store.TaskStore.Count.
func (s *PostgresTaskStore) Count(ctx context.Context, filter store.TaskFilter) (int64, error) {
	query, args, err := filtered(psql.Select("COUNT(*)").From("tasks"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count: %w", err)
	}

	var total int64
	if err := s.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, store.NewStoreError("task", "count", "failed to count tasks", MapError(err))
	}
	return total, nil
}

// UpdateForUser implements store.TaskStore.UpdateForUser.
// The completion fields are derived inside the same UPDATE from the row's
// previous status, so concurrent writers cannot leave them inconsistent.
func (s *PostgresTaskStore) UpdateForUser(
	ctx context.Context,
	id, userID uuid.UUID,
	patch domain.TaskPatch,
	now time.Time,
) (*domain.Task, error) {
	now = now.UTC()
	q := psql.Update("tasks")

	if patch.Title != nil {
		q = q.Set("title", *patch.Title)
	}
	if patch.Description != nil {
		q = q.Set("description", *patch.Description)
	}
	if patch.Priority != nil {
		q = q.Set("priority", string(*patch.Priority))
	}
	if patch.ClearDueDate {
		q = q.Set("due_date", nil)
	} else if patch.DueDate != nil {
		q = q.Set("due_date", *patch.DueDate)
	}
	if patch.Status != nil {
		q = q.Set("status", string(*patch.Status))
		if *patch.Status == domain.StatusCompleted {
			q = q.Set("completed", true).
				Set("completed_at", sq.Expr(
					"CASE WHEN status = ? THEN completed_at ELSE ? END",
					string(domain.StatusCompleted), now,
				))
		} else {
			q = q.Set("completed", false).Set("completed_at", nil)
		}
	}

	query, args, err := q.Set("updated_at", now).
		Where(sq.Eq{"id": id.String(), "user_id": userID.String()}).
		Suffix("RETURNING " + strings.Join(taskColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update: %w", err)
	}

	var row taskRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, store.NewStoreError("task", "update", "failed to update task", MapError(err))
	}

	return row.toDomain(), nil
}

// DeleteForUser implements store.TaskStore.DeleteForUser.
func (s *PostgresTaskStore) DeleteForUser(ctx context.Context, id, userID uuid.UUID) error {
	query, args, err := psql.Delete("tasks").
		Where(sq.Eq{"id": id.String(), "user_id": userID.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return store.NewStoreError("task", "delete", "failed to delete task", MapError(err))
	}

	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Stats implements store.TaskStore.Stats.
func (s *PostgresTaskStore) Stats(ctx context.Context, userID uuid.UUID) (*store.TaskStats, error) {
	statusStats, err := s.groupCount(ctx, userID, "status")
	if err != nil {
		return nil, err
	}
	priorityStats, err := s.groupCount(ctx, userID, "priority")
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range statusStats {
		total += c.Count
	}

	return &store.TaskStats{
		StatusStats:   statusStats,
		PriorityStats: priorityStats,
		Total:         total,
	}, nil
}

func (s *PostgresTaskStore) groupCount(
	ctx context.Context,
	userID uuid.UUID,
	column string,
) ([]store.StatCount, error) {
	query, args, err := psql.Select(column+" AS id", "COUNT(*) AS count").
		From("tasks").
		Where(sq.Eq{"user_id": userID.String()}).
		GroupBy(column).
		OrderBy(column).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build stats query: %w", err)
	}

	counts := []store.StatCount{}
	if err := s.db.SelectContext(ctx, &counts, query, args...); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to aggregate tasks",
			slog.String("error", err.Error()),
			slog.String("group_by", column))
		return nil, store.NewStoreError("task", "stats", "failed to aggregate tasks", MapError(err))
	}
	return counts, nil
}
