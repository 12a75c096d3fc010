package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/store"
)

// Demo account created by the seed command.
const (
	demoUsername = "compass_demo_user"
	demoEmail    = "demo@compass.example.com"
	demoPassword = "demo123456"
)

type sampleTask struct {
	title       string
	description string
	priority    domain.Priority
	status      domain.TaskStatus
	dueIn       time.Duration
}

var sampleTasks = []sampleTask{
	{
		title:       "Setup MongoDB Compass",
		description: "Configure MongoDB Compass to view database collections",
		priority:    domain.PriorityHigh,
		status:      domain.StatusCompleted,
	},
	{
		title:       "Verify Database Connection",
		description: "Ensure secure connection to the database",
		priority:    domain.PriorityHigh,
		status:      domain.StatusInProgress,
		dueIn:       24 * time.Hour,
	},
	{
		title:       "Test Data Indexing",
		description: "Verify that database indexes are working properly",
		priority:    domain.PriorityMedium,
		status:      domain.StatusPending,
		dueIn:       48 * time.Hour,
	},
}

// seedSampleData creates the demo user and its sample tasks. Nothing is
// written when the demo user already exists.
func seedSampleData(ctx context.Context, users store.UserStore, tasks store.TaskStore, logger *slog.Logger) error {
	log := logger.With("component", "seed")

	exists, err := users.ExistsByUsernameOrEmail(ctx, demoUsername, demoEmail)
	if err != nil {
		return fmt.Errorf("failed to check for demo user: %w", err)
	}
	if exists {
		log.Info("sample data already exists, skipping")
		return nil
	}

	user, err := domain.NewUser(demoUsername, demoEmail, demoPassword)
	if err != nil {
		return fmt.Errorf("failed to build demo user: %w", err)
	}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			log.Info("demo user created concurrently, skipping")
			return nil
		}
		return fmt.Errorf("failed to create demo user: %w", err)
	}

	now := time.Now().UTC()
	for _, st := range sampleTasks {
		var due *time.Time
		if st.dueIn > 0 {
			d := now.Add(st.dueIn)
			due = &d
		}

		task, err := domain.NewTask(user.ID, st.title, st.description, st.priority, st.status, due, now)
		if err != nil {
			return fmt.Errorf("failed to build sample task %q: %w", st.title, err)
		}
		if err := tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create sample task %q: %w", st.title, err)
		}
	}

	log.Info("sample data created", "user_id", user.ID.String(), "tasks", len(sampleTasks))
	return nil
}
