package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/phrazzld/taskmanager-api/internal/config"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	UsersCollection = "users"
	TasksCollection = "tasks"
)

const connectTimeout = 10 * time.Second

// ErrDisconnected is reported by the health checker while heartbeats fail.
var ErrDisconnected = errors.New("mongo: server heartbeat failing")

// HealthMonitor tracks server reachability from driver heartbeat events.
type HealthMonitor struct {
	up     atomic.Bool
	logger *slog.Logger
}

// NewHealthMonitor creates a monitor that starts out unhealthy.
func NewHealthMonitor(logger *slog.Logger) *HealthMonitor {
	return &HealthMonitor{logger: logger}
}

// ServerMonitor returns the driver hooks that feed the monitor.
func (h *HealthMonitor) ServerMonitor() *event.ServerMonitor {
	return &event.ServerMonitor{
		ServerHeartbeatSucceeded: func(*event.ServerHeartbeatSucceededEvent) {
			if !h.up.Swap(true) {
				h.logger.Info("mongo heartbeat recovered")
			}
		},
		ServerHeartbeatFailed: func(e *event.ServerHeartbeatFailedEvent) {
			if h.up.Swap(false) {
				h.logger.Warn("mongo heartbeat failed", "error", e.Failure, "connection_id", e.ConnectionID)
			}
		},
	}
}

// MarkUp records a successful round trip outside the heartbeat loop.
func (h *HealthMonitor) MarkUp() {
	h.up.Store(true)
}

// CheckHealth returns ErrDisconnected while the last heartbeat failed.
func (h *HealthMonitor) CheckHealth(context.Context) error {
	if !h.up.Load() {
		return ErrDisconnected
	}
	return nil
}

// Client bundles the driver client, the application database and its
// health monitor.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
	health *HealthMonitor
}

// Connect dials MongoDB, verifies the connection with a ping and wires the
// heartbeat monitor.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Client, error) {
	log := logger.With("component", "mongo")
	health := NewHealthMonitor(log)

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(uint64(cfg.MaxOpenConns)).
		SetServerMonitor(health.ServerMonitor())

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	health.MarkUp()

	log.Info("mongo connection established", "database", cfg.MongoDatabase)

	return &Client{
		client: client,
		db:     client.Database(cfg.MongoDatabase),
		health: health,
	}, nil
}

// Database returns the application database.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Health returns the heartbeat-driven health checker.
func (c *Client) Health() *HealthMonitor {
	return c.health
}

// Disconnect closes all pooled connections.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
