package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/platform/logger"
	"github.com/phrazzld/taskmanager-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// sortKeys maps the client-facing sort keys to document fields.
var sortKeys = map[store.SortField]string{
	store.SortByCreatedAt:   "createdAt",
	store.SortByUpdatedAt:   "updatedAt",
	store.SortByDueDate:     "dueDate",
	store.SortByTitle:       "title",
	store.SortByPriority:    "priority",
	store.SortByStatus:      "status",
	store.SortByCompletedAt: "completedAt",
}

type taskDocument struct {
	ID          string     `bson:"_id"`
	Title       string     `bson:"title"`
	Description string     `bson:"description"`
	Priority    string     `bson:"priority"`
	Status      string     `bson:"status"`
	DueDate     *time.Time `bson:"dueDate,omitempty"`
	UserID      string     `bson:"userId"`
	Completed   bool       `bson:"completed"`
	CompletedAt *time.Time `bson:"completedAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt"`
}

func newTaskDocument(t *domain.Task) taskDocument {
	return taskDocument{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		UserID:      t.UserID.String(),
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (d taskDocument) toDomain() (*domain.Task, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: task _id %q", domain.ErrInvalidID, d.ID)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: task userId %q", domain.ErrInvalidID, d.UserID)
	}
	return &domain.Task{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Priority:    domain.Priority(d.Priority),
		Status:      domain.TaskStatus(d.Status),
		DueDate:     utc(d.DueDate),
		UserID:      userID,
		Completed:   d.Completed,
		CompletedAt: utc(d.CompletedAt),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// literal keeps a client-supplied string from being read as a field path
// or operator inside an aggregation pipeline.
func literal(v any) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}

// MongoTaskStore implements the store.TaskStore interface on a MongoDB collection.
type MongoTaskStore struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

var _ store.TaskStore = (*MongoTaskStore)(nil)

// NewMongoTaskStore creates a MongoTaskStore over the tasks collection of db.
func NewMongoTaskStore(db *mongo.Database, logger *slog.Logger) *MongoTaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoTaskStore{
		coll:   db.Collection(TasksCollection),
		logger: logger.With(slog.String("component", "task_store")),
	}
}

func ownedBy(id, userID uuid.UUID) bson.D {
	return bson.D{
		{Key: "_id", Value: id.String()},
		{Key: "userId", Value: userID.String()},
	}
}

// Create implements store.TaskStore.Create.
func (s *MongoTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if _, err := s.coll.InsertOne(ctx, newTaskDocument(task)); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return store.NewStoreError("task", "create", "failed to insert task", err)
	}
	return nil
}

// GetByIDForUser implements store.TaskStore.GetByIDForUser.
func (s *MongoTaskStore) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	var doc taskDocument
	if err := s.coll.FindOne(ctx, ownedBy(id, userID)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, store.NewStoreError("task", "get", "failed to query task", err)
	}
	return s.decode(doc, "get")
}

func (s *MongoTaskStore) decode(doc taskDocument, op string) (*domain.Task, error) {
	task, err := doc.toDomain()
	if err != nil {
		return nil, store.NewStoreError("task", op, "corrupt task document", err)
	}
	return task, nil
}

func taskFilter(filter store.TaskFilter) bson.D {
	f := bson.D{{Key: "userId", Value: filter.UserID.String()}}
	if filter.Status != nil {
		f = append(f, bson.E{Key: "status", Value: string(*filter.Status)})
	}
	if filter.Priority != nil {
		f = append(f, bson.E{Key: "priority", Value: string(*filter.Priority)})
	}
	return f
}

// List implements store.TaskStore.List.
func (s *MongoTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	key, ok := sortKeys[filter.SortBy]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported sort field %q", store.ErrInvalidEntity, filter.SortBy)
	}
	direction := -1
	if filter.SortOrder == store.SortAsc {
		direction = 1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: key, Value: direction}, {Key: "_id", Value: direction}}).
		SetSkip(int64(filter.Offset())).
		SetLimit(int64(filter.Limit))

	cursor, err := s.coll.Find(ctx, taskFilter(filter), opts)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", filter.UserID.String()))
		return nil, store.NewStoreError("task", "list", "failed to list tasks", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, store.NewStoreError("task", "list", "failed to decode tasks", err)
	}

	tasks := make([]*domain.Task, 0, len(docs))
	for _, doc := range docs {
		task, err := s.decode(doc, "list")
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Count implements store.TaskStore.Count.
func (s *MongoTaskStore) Count(ctx context.Context, filter store.TaskFilter) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, taskFilter(filter))
	if err != nil {
		return 0, store.NewStoreError("task", "count", "failed to count tasks", err)
	}
	return n, nil
}

// UpdateForUser implements store.TaskStore.UpdateForUser.
// It runs a single pipeline update; expressions in one $set stage read the
// document as it was before the stage, so the completion fields are derived
// from the previous status atomically.
func (s *MongoTaskStore) UpdateForUser(
	ctx context.Context,
	id, userID uuid.UUID,
	patch domain.TaskPatch,
	now time.Time,
) (*domain.Task, error) {
	now = now.UTC()
	set := bson.D{}

	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: literal(*patch.Title)})
	}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "description", Value: literal(*patch.Description)})
	}
	if patch.Priority != nil {
		set = append(set, bson.E{Key: "priority", Value: literal(string(*patch.Priority))})
	}
	if patch.ClearDueDate {
		set = append(set, bson.E{Key: "dueDate", Value: "$$REMOVE"})
	} else if patch.DueDate != nil {
		set = append(set, bson.E{Key: "dueDate", Value: *patch.DueDate})
	}
	if patch.Status != nil {
		set = append(set, bson.E{Key: "status", Value: literal(string(*patch.Status))})
		if *patch.Status == domain.StatusCompleted {
			set = append(set,
				bson.E{Key: "completed", Value: true},
				bson.E{Key: "completedAt", Value: bson.D{{Key: "$cond", Value: bson.A{
					bson.D{{Key: "$eq", Value: bson.A{"$status", string(domain.StatusCompleted)}}},
					"$completedAt",
					now,
				}}}},
			)
		} else {
			set = append(set,
				bson.E{Key: "completed", Value: false},
				bson.E{Key: "completedAt", Value: "$$REMOVE"},
			)
		}
	}
	set = append(set, bson.E{Key: "updatedAt", Value: now})

	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc taskDocument
	if err := s.coll.FindOneAndUpdate(ctx, ownedBy(id, userID), pipeline, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, store.NewStoreError("task", "update", "failed to update task", err)
	}
	return s.decode(doc, "update")
}

// DeleteForUser implements store.TaskStore.DeleteForUser.
func (s *MongoTaskStore) DeleteForUser(ctx context.Context, id, userID uuid.UUID) error {
	res, err := s.coll.DeleteOne(ctx, ownedBy(id, userID))
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return store.NewStoreError("task", "delete", "failed to delete task", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

type statsFacet struct {
	StatusStats   []store.StatCount `bson:"statusStats"`
	PriorityStats []store.StatCount `bson:"priorityStats"`
	Total         []struct {
		N int64 `bson:"n"`
	} `bson:"total"`
}

func groupCount(field string) bson.A {
	return bson.A{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

// Stats implements store.TaskStore.Stats with a single $facet aggregation.
func (s *MongoTaskStore) Stats(ctx context.Context, userID uuid.UUID) (*store.TaskStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "userId", Value: userID.String()}}}},
		{{Key: "$facet", Value: bson.D{
			{Key: "statusStats", Value: groupCount("status")},
			{Key: "priorityStats", Value: groupCount("priority")},
			{Key: "total", Value: bson.A{bson.D{{Key: "$count", Value: "n"}}}},
		}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to aggregate tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, store.NewStoreError("task", "stats", "failed to aggregate tasks", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var facets []statsFacet
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, store.NewStoreError("task", "stats", "failed to decode task stats", err)
	}

	stats := &store.TaskStats{
		StatusStats:   []store.StatCount{},
		PriorityStats: []store.StatCount{},
	}
	if len(facets) == 0 {
		return stats, nil
	}
	if facets[0].StatusStats != nil {
		stats.StatusStats = facets[0].StatusStats
	}
	if facets[0].PriorityStats != nil {
		stats.PriorityStats = facets[0].PriorityStats
	}
	if len(facets[0].Total) > 0 {
		stats.Total = facets[0].Total[0].N
	}
	return stats, nil
}
