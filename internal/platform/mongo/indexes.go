package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique user indexes and the task query indexes.
// Creating an index that already exists is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *slog.Logger) error {
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("username_unique"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
	}
	taskIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("user_status"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "priority", Value: 1}},
			Options: options.Index().SetName("user_priority"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("user_created_at"),
		},
	}

	if _, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	if _, err := db.Collection(TasksCollection).Indexes().CreateMany(ctx, taskIndexes); err != nil {
		return fmt.Errorf("failed to create task indexes: %w", err)
	}

	logger.Info("mongo indexes ensured",
		"users", len(userIndexes),
		"tasks", len(taskIndexes))
	return nil
}
