// Package main implements the entry point for the task manager API server,
// a REST service for user accounts and personal task lists.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/phrazzld/taskmanager-api/internal/config"
	"github.com/phrazzld/taskmanager-api/internal/platform/logger"
	"github.com/phrazzld/taskmanager-api/internal/platform/postgres"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Task manager API server",
	Long: `Task manager API server.

Without a subcommand the HTTP API is started. Configuration is read from
TASKMGR_* environment variables, an optional .env file and an optional
config.yaml in the working directory.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status|version]",
	Short:     "Run database migrations (postgres driver only)",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus, postgres.MigrateVersion},
	RunE:      runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the demo user and sample tasks",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and installs the default logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		"port", cfg.Server.Port,
		"environment", cfg.Server.Environment,
		"database_driver", cfg.Database.Driver,
		"redis_enabled", cfg.Redis.Enabled())
	return cfg, log, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := newApplication(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	if cfg.Server.IsDevelopment() && cfg.Database.SeedSampleData {
		if err := seedSampleData(cmd.Context(), app.userStore, app.taskStore, log); err != nil {
			log.Warn("failed to seed sample data", "error", err)
		}
	}

	os.Exit(app.serve())
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	command := postgres.MigrateUp
	if len(args) == 1 {
		command = args[0]
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrate requires the %s driver, configured driver is %s",
			config.DriverPostgres, cfg.Database.Driver)
	}

	ctx := cmd.Context()
	db, err := postgres.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", "error", err)
		}
	}()

	return postgres.Migrate(ctx, db.DB, command, log)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := newApplication(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer app.close(context.Background())

	return seedSampleData(cmd.Context(), app.userStore, app.taskStore, log)
}
