//go:build integration

// Package testdb provides utilities for tests that run against a real
// PostgreSQL database.
//
// Integration tests are compiled only with the integration build tag and
// skip themselves when no database URL is configured:
//
//	TASKMGR_TEST_DATABASE_URL=postgres://... go test -tags=integration ./...
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskmanager-api/internal/config"
	"github.com/phrazzld/taskmanager-api/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// Environment variables checked, in order, for the test database URL.
const (
	EnvTestDatabaseURL = "TASKMGR_TEST_DATABASE_URL"
	EnvDatabaseURL     = "DATABASE_URL"
)

// TestTimeout bounds connection setup and migrations.
const TestTimeout = 30 * time.Second

// Migrations run once per test binary; every caller sees the same outcome.
var (
	migrateOnce sync.Once
	migrateErr  error
)

// GetTestDatabaseURL returns the configured test database URL, or "".
func GetTestDatabaseURL() string {
	for _, name := range []string{EnvTestDatabaseURL, EnvDatabaseURL} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// GetTestDB opens a pool to the test database and applies all migrations
// once per test binary. The test is skipped when no URL is configured.
func GetTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skipf("%s not set, skipping integration test", EnvTestDatabaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := postgres.Open(ctx, config.DatabaseConfig{
		Driver:       config.DriverPostgres,
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}, logger)
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(func() { _ = db.Close() })

	err = migrateOnceWith(func() error {
		return postgres.Migrate(ctx, db.DB, postgres.MigrateUp, logger)
	})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func migrateOnceWith(migrate func() error) error {
	migrateOnce.Do(func() {
		migrateErr = migrate()
	})
	return migrateErr
}

// WithTx runs fn inside a transaction that is always rolled back, so tests
// can write freely without affecting each other.
func WithTx(t *testing.T, db *sqlx.DB, fn func(t *testing.T, tx *sqlx.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err, "failed to begin transaction")

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("failed to roll back test transaction: %v", err)
		}
	}()

	fn(t, tx)
}
