package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Session store backends.
const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

// Staff directory backends.
const (
	DirectoryMemory   = "memory"
	DirectoryPostgres = "postgres"
	DirectoryDemo     = "demo"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	SessionStore  string        `envconfig:"SESSION_STORE" default:"redis"`
	SessionCookie string        `envconfig:"SESSION_COOKIE" default:"innkeep_session"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"168h"`

	Directory     string `envconfig:"DIRECTORY" default:"memory"`
	PGDSN         string `envconfig:"PG_DSN"`
	PGMaxConns    int32  `envconfig:"PG_MAX_CONNS" default:"4"`
	SeedDirectory bool   `envconfig:"DIRECTORY_SEED" default:"false"`
	DemoPassword  string `envconfig:"DEMO_PASSWORD" default:"innkeep-demo"`

	RateLimitPerMinute      int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	LoginRateLimitPerMinute int `envconfig:"RATE_LIMIT_LOGIN_PER_MINUTE" default:"10"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings and their dependencies.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case "pretty", "json":
	default:
		return fmt.Errorf("config: LOG_FORMAT %q must be pretty or json", c.LogFormat)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	switch c.SessionStore {
	case SessionStoreRedis, SessionStoreMemory:
	default:
		return fmt.Errorf("config: SESSION_STORE %q must be redis or memory", c.SessionStore)
	}
	switch c.Directory {
	case DirectoryMemory, DirectoryDemo:
	case DirectoryPostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("config: PG_DSN is required when DIRECTORY=postgres")
		}
	default:
		return fmt.Errorf("config: DIRECTORY %q must be memory, postgres or demo", c.Directory)
	}
	if c.SessionCookie == "" {
		return fmt.Errorf("config: SESSION_COOKIE must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
