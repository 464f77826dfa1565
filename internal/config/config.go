package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/bcnelson/cidr-group-central/internal/storage"
	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Auth   AuthConfig
	Log    LogConfig
	Lambda LambdaConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// StoreConfig selects and configures the backing object store.
type StoreConfig struct {
	Backend  string        `env:"STORE_BACKEND" envDefault:"sql"`
	URL      string        `env:"STORE_URL"` // e.g. s3://my-bucket/groups, used by the object backend
	Timeout  time.Duration `env:"STORE_TIMEOUT" envDefault:"10s"`
	PageSize int           `env:"LIST_PAGE_SIZE" envDefault:"500"`
	Driver   string        `env:"DB_DRIVER" envDefault:"sqlite3"`
	DSN      string        `env:"DB_DSN" envDefault:"data/cidr-groups.db"`
}

// AuthConfig holds API authentication configuration.
type AuthConfig struct {
	APIKey string `env:"API_KEY"` // Bearer token for /api/v1; empty disables auth
}

// LambdaConfig holds settings used only by the Lambda entrypoint.
type LambdaConfig struct {
	BasePath string `env:"LAMBDA_BASE_PATH"` // custom-domain base path mapping, e.g. /cidr-groups
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load loads configuration from environment variables, after merging a
// .env file from the working directory when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{}

	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}
	if err := env.Parse(&cfg.Store); err != nil {
		return nil, fmt.Errorf("parsing store config: %w", err)
	}
	if err := env.Parse(&cfg.Auth); err != nil {
		return nil, fmt.Errorf("parsing auth config: %w", err)
	}
	if err := env.Parse(&cfg.Log); err != nil {
		return nil, fmt.Errorf("parsing log config: %w", err)
	}
	if err := env.Parse(&cfg.Lambda); err != nil {
		return nil, fmt.Errorf("parsing lambda config: %w", err)
	}

	return cfg, nil
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case storage.BackendMemory:
	case storage.BackendSQL:
		if c.Store.Driver != "sqlite3" && c.Store.Driver != "postgres" {
			return fmt.Errorf("DB_DRIVER must be sqlite3 or postgres, got %q", c.Store.Driver)
		}
		if c.Store.DSN == "" {
			return fmt.Errorf("DB_DSN is required for the sql store backend")
		}
	case storage.BackendObject:
		if c.Store.URL == "" {
			return fmt.Errorf("STORE_URL is required for the object store backend")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of memory, sql, object; got %q", c.Store.Backend)
	}

	if c.Store.Timeout < 0 {
		return fmt.Errorf("STORE_TIMEOUT must not be negative")
	}
	if c.Store.PageSize <= 0 {
		return fmt.Errorf("LIST_PAGE_SIZE must be positive")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("LOG_FORMAT must be text, json or logfmt; got %q", c.Log.Format)
	}

	return nil
}

// AuthEnabled returns true if API requests must carry the configured key.
func (c *Config) AuthEnabled() bool {
	return c.Auth.APIKey != ""
}
