package postgres

import (
	"context"
	"io/fs"
	"testing"

	"github.com/phrazzld/taskmanager-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	t.Parallel()

	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"migrations/00001_create_users.sql",
		"migrations/00002_create_tasks.sql",
	}, files)

	for _, f := range files {
		body, err := fs.ReadFile(migrationsFS, f)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up")
		assert.Contains(t, string(body), "-- +goose Down")
	}
}

func TestMigrate_UnknownCommand(t *testing.T) {
	t.Parallel()

	log, _ := logger.NewTestLogger()
	err := Migrate(context.Background(), nil, "redo-everything", log)
	assert.ErrorContains(t, err, "unknown migration command")
}
