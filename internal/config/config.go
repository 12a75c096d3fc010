package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"   validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"       validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port"                     validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level"                validate:"required,oneof=debug info warn error"`
	Environment            string `mapstructure:"environment"              validate:"required,oneof=development production test"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`

	// TrustProxy takes the client address from X-Forwarded-For or X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

// IsDevelopment reports whether the server runs in development mode.
func (c ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsTest reports whether the server runs in test mode.
func (c ServerConfig) IsTest() bool {
	return c.Environment == "test"
}

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// DatabaseConfig contains all database-related configuration settings.
// URL is used by the postgres driver; MongoURI and MongoDatabase by the mongo driver.
type DatabaseConfig struct {
	Driver         string `mapstructure:"driver"           validate:"required,oneof=postgres mongo"`
	URL            string `mapstructure:"url"              validate:"omitempty,url"`
	MongoURI       string `mapstructure:"mongo_uri"        validate:"omitempty,url"`
	MongoDatabase  string `mapstructure:"mongo_database"   validate:"required"`
	MaxOpenConns   int    `mapstructure:"max_open_conns"   validate:"gt=0"`
	MaxIdleConns   int    `mapstructure:"max_idle_conns"   validate:"gte=0"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
	SeedSampleData bool   `mapstructure:"seed_sample_data"`
}

// AuthConfig contains all authentication and authorization settings.
// An empty JWTSecret is accepted at load time; token operations then fail
// with a configuration error instead of the server refusing to start.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"omitempty,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
	BcryptCost           int    `mapstructure:"bcrypt_cost"`
}

// RedisConfig contains Redis connection settings. An empty URL disables
// every Redis-backed feature (rate limiting and the stats cache).
type RedisConfig struct {
	URL                  string `mapstructure:"url"                     validate:"omitempty,url"`
	StatsCacheTTLSeconds int    `mapstructure:"stats_cache_ttl_seconds" validate:"gte=0"`
}

// Enabled reports whether a Redis URL was configured.
func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

// RateLimitConfig controls the per-client request limit applied to /api.
type RateLimitConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	Requests      int  `mapstructure:"requests"       validate:"gt=0"`
	WindowMinutes int  `mapstructure:"window_minutes" validate:"gt=0"`
}
