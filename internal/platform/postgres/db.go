package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskmanager-api/internal/config"
)

// DriverName is the database/sql driver registered by pgx.
const DriverName = "pgx"

const (
	connMaxLifetime = 5 * time.Minute
	pingTimeout     = 5 * time.Second
)

// Open establishes a connection pool to the database and verifies it with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open(DriverName, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		"driver", DriverName,
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns)

	return db, nil
}

// HealthChecker reports whether the pool can reach the database.
type HealthChecker struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewHealthChecker creates a HealthChecker for db.
func NewHealthChecker(db *sqlx.DB) *HealthChecker {
	return &HealthChecker{db: db, timeout: 2 * time.Second}
}

// CheckHealth pings the database.
func (h *HealthChecker) CheckHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.db.PingContext(ctx)
}
