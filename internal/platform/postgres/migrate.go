package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migration commands accepted by Migrate.
const (
	MigrateUp      = "up"
	MigrateDown    = "down"
	MigrateStatus  = "status"
	MigrateVersion = "version"
)

// slogGooseLogger adapts the goose logger interface to use slog
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements the goose.Logger Printf method by forwarding messages to slog.Info
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements the goose.Logger Fatalf method by forwarding error messages to slog.Error.
// Unlike the standard Fatalf it does not exit; the error is returned to the caller.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// Migrate runs a goose command against the embedded migrations.
func Migrate(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) error {
	switch command {
	case MigrateUp, MigrateDown, MigrateStatus, MigrateVersion:
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}

	log := logger.With("component", "migrations", "command", command)

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(&slogGooseLogger{logger: log})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	log.Info("running migrations")
	if err := goose.RunContext(ctx, command, db, migrationsDir); err != nil {
		log.Error("migration failed", "error", err)
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	log.Info("migrations finished")

	return nil
}
