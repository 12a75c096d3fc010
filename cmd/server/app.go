package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskmanager-api/internal/api/middleware"
	"github.com/phrazzld/taskmanager-api/internal/config"
	"github.com/phrazzld/taskmanager-api/internal/platform/mongo"
	"github.com/phrazzld/taskmanager-api/internal/platform/postgres"
	redisplatform "github.com/phrazzld/taskmanager-api/internal/platform/redis"
	"github.com/phrazzld/taskmanager-api/internal/service"
	"github.com/phrazzld/taskmanager-api/internal/service/auth"
	"github.com/phrazzld/taskmanager-api/internal/store"
)

const rateLimitKeyPrefix = "ratelimit:"

// closer releases one external resource during shutdown.
type closer struct {
	name  string
	close func(ctx context.Context) error
}

// application holds all the dependencies of the server.
type application struct {
	config *config.Config
	logger *slog.Logger

	userStore store.UserStore
	taskStore store.TaskStore
	health    middleware.HealthChecker

	hasher      auth.PasswordHasher
	jwtService  auth.JWTService
	userService service.UserService
	taskService service.TaskService

	// limiter and statsCache stay nil when Redis is not configured.
	limiter    middleware.Limiter
	statsCache service.StatsCache

	// closers run in order after the HTTP server has stopped.
	closers []closer
}

// newApplication connects to the configured database (and Redis, if set)
// and wires stores, services and the token service.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		hasher: auth.NewBcryptHasher(cfg.Auth.BcryptCost),
	}

	if err := app.openDatabase(ctx); err != nil {
		return nil, err
	}

	if cfg.Redis.Enabled() {
		if err := app.openRedis(ctx); err != nil {
			app.close(context.Background())
			return nil, err
		}
	} else {
		logger.Info("redis not configured, rate limiting and stats cache disabled")
	}

	app.wireServices()
	return app, nil
}

func (app *application) openDatabase(ctx context.Context) error {
	switch app.config.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, app.config.Database, app.logger)
		if err != nil {
			return err
		}
		app.closers = append(app.closers, closer{"postgres", func(context.Context) error { return db.Close() }})

		if app.config.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, db.DB, postgres.MigrateUp, app.logger); err != nil {
				app.close(context.Background())
				return err
			}
		}

		app.userStore = postgres.NewPostgresUserStore(db, app.hasher, app.logger)
		app.taskStore = postgres.NewPostgresTaskStore(db, app.logger)
		app.health = postgres.NewHealthChecker(db)

	case config.DriverMongo:
		client, err := mongo.Connect(ctx, app.config.Database, app.logger)
		if err != nil {
			return err
		}
		app.closers = append(app.closers, closer{"mongo", client.Disconnect})

		if err := mongo.EnsureIndexes(ctx, client.Database(), app.logger); err != nil {
			app.close(context.Background())
			return err
		}

		app.userStore = mongo.NewMongoUserStore(client.Database(), app.hasher, app.logger)
		app.taskStore = mongo.NewMongoTaskStore(client.Database(), app.logger)
		app.health = client.Health()

	default:
		return fmt.Errorf("unsupported database driver %q", app.config.Database.Driver)
	}
	return nil
}

func (app *application) openRedis(ctx context.Context) error {
	rdb, err := redisplatform.NewClient(ctx, app.config.Redis.URL, app.logger)
	if err != nil {
		return err
	}
	app.closers = append(app.closers, closer{"redis", func(context.Context) error { return rdb.Close() }})

	app.limiter = redisplatform.NewLimiter(rdb, rateLimitKeyPrefix)
	if ttl := app.config.Redis.StatsCacheTTLSeconds; ttl > 0 {
		app.statsCache = redisplatform.NewStatsCache(rdb, time.Duration(ttl)*time.Second)
	}
	return nil
}

// wireServices builds the services on top of the already opened stores.
func (app *application) wireServices() {
	if app.config.Auth.JWTSecret == "" {
		app.logger.Warn("auth.jwt_secret is not set, registration and login will fail")
	}
	if app.jwtService == nil {
		app.jwtService = auth.NewJWTService(app.config.Auth)
	}

	app.userService = service.NewUserService(app.userStore, app.hasher, app.jwtService, app.logger)

	var opts []service.TaskServiceOption
	if app.statsCache != nil {
		opts = append(opts, service.WithStatsCache(app.statsCache))
	}
	app.taskService = service.NewTaskService(app.taskStore, app.logger, opts...)
}

// close releases resources in reverse order of acquisition.
func (app *application) close(ctx context.Context) {
	for i := len(app.closers) - 1; i >= 0; i-- {
		c := app.closers[i]
		if err := c.close(ctx); err != nil {
			app.logger.Error("failed to close resource", "resource", c.name, "error", err)
			continue
		}
		app.logger.Info("resource closed", "resource", c.name)
	}
	app.closers = nil
}
