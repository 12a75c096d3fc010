package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. TASKMGR_SERVER_PORT for server.port.
const EnvPrefix = "TASKMGR"

// defaults maps every configuration key to its default value. Registering a
// default for each key is also what lets viper resolve the key from the
// environment during Unmarshal.
var defaults = map[string]any{
	"server.port":                     8080,
	"server.log_level":                "info",
	"server.environment":              "development",
	"server.shutdown_timeout_seconds": 10,
	"server.trust_proxy":              false,

	"database.driver":           DriverPostgres,
	"database.url":              "",
	"database.mongo_uri":        "",
	"database.mongo_database":   "taskmanager",
	"database.max_open_conns":   10,
	"database.max_idle_conns":   5,
	"database.auto_migrate":     true,
	"database.seed_sample_data": false,

	"auth.jwt_secret":             "",
	"auth.token_lifetime_minutes": 7 * 24 * 60,
	"auth.bcrypt_cost":            12,

	"redis.url":                     "",
	"redis.stats_cache_ttl_seconds": 60,

	"rate_limit.enabled":        true,
	"rate_limit.requests":       100,
	"rate_limit.window_minutes": 15,
}

// Load configuration from a .env file, environment variables and an optional
// config.yaml in the working directory. Environment variables take precedence
// over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct-level rules and the rules that depend on the
// selected database driver.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	switch cfg.Database.Driver {
	case DriverPostgres:
		if cfg.Database.URL == "" {
			return fmt.Errorf("config validation failed: database.url is required for the %s driver",
				DriverPostgres)
		}
	case DriverMongo:
		if cfg.Database.MongoURI == "" {
			return fmt.Errorf("config validation failed: database.mongo_uri is required for the %s driver",
				DriverMongo)
		}
	}

	return nil
}
