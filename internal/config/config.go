// Package config loads engine and CLI configuration from an optional
// YAML file with environment variable overrides. Precedence: defaults,
// then file, then TICKETKIT_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ticketkit/ticketkit/internal/storage"
	"github.com/ticketkit/ticketkit/internal/storage/postgres"
)

// Config holds the full runtime configuration.
type Config struct {
	// Backend selects the storage engine: "sqlite" (default) or
	// "postgres".
	Backend string `yaml:"backend"`

	// SQLitePath is the SQLite database file path.
	// Default: ".ticketkit/ticketkit.db"
	SQLitePath string `yaml:"sqlite_path"`

	// Postgres holds PostgreSQL connection settings, used when Backend
	// is "postgres".
	Postgres PostgresConfig `yaml:"postgres"`

	// LogLevel sets logging verbosity: "debug", "info", "warn", or
	// "error". Default: "info".
	LogLevel string `yaml:"log_level"`
}

// PostgresConfig holds the PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// Default returns the default configuration: SQLite under .ticketkit/,
// info logging.
func Default() *Config {
	pg := postgres.DefaultConfig()
	return &Config{
		Backend:    storage.BackendSQLite,
		SQLitePath: ".ticketkit/ticketkit.db",
		Postgres: PostgresConfig{
			Host:     pg.Host,
			Port:     pg.Port,
			Database: pg.Database,
			User:     pg.User,
			SSLMode:  pg.SSLMode,
		},
		LogLevel: "info",
	}
}

// Load builds the configuration from the YAML file at path (skipped if
// path is empty or the file does not exist) and TICKETKIT_* environment
// variables.
//
// Environment variables:
//   - TICKETKIT_BACKEND: storage backend, "sqlite" or "postgres"
//   - TICKETKIT_SQLITE_PATH: SQLite database file path
//   - TICKETKIT_PG_HOST, TICKETKIT_PG_PORT, TICKETKIT_PG_DATABASE,
//     TICKETKIT_PG_USER, TICKETKIT_PG_PASSWORD, TICKETKIT_PG_SSLMODE
//   - TICKETKIT_LOG_LEVEL: debug, info, warn, or error
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	parseEnvString("TICKETKIT_BACKEND", &c.Backend)
	parseEnvString("TICKETKIT_SQLITE_PATH", &c.SQLitePath)
	parseEnvString("TICKETKIT_PG_HOST", &c.Postgres.Host)
	if err := parseEnvInt("TICKETKIT_PG_PORT", &c.Postgres.Port); err != nil {
		return err
	}
	parseEnvString("TICKETKIT_PG_DATABASE", &c.Postgres.Database)
	parseEnvString("TICKETKIT_PG_USER", &c.Postgres.User)
	parseEnvString("TICKETKIT_PG_PASSWORD", &c.Postgres.Password)
	parseEnvString("TICKETKIT_PG_SSLMODE", &c.Postgres.SSLMode)
	parseEnvString("TICKETKIT_LOG_LEVEL", &c.LogLevel)
	return nil
}

// Validate checks if the configuration has valid values
func (c *Config) Validate() error {
	switch c.Backend {
	case storage.BackendSQLite, storage.BackendPostgres:
	default:
		return fmt.Errorf("backend must be %q or %q (got %q)",
			storage.BackendSQLite, storage.BackendPostgres, c.Backend)
	}

	if c.Backend == storage.BackendSQLite && c.SQLitePath == "" {
		return fmt.Errorf("sqlite_path is required for the sqlite backend")
	}
	if c.Backend == storage.BackendPostgres {
		if c.Postgres.Host == "" {
			return fmt.Errorf("postgres.host is required for the postgres backend")
		}
		if c.Postgres.Port < 1 || c.Postgres.Port > 65535 {
			return fmt.Errorf("postgres.port must be between 1 and 65535 (got %d)", c.Postgres.Port)
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("postgres.database is required for the postgres backend")
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error (got %q)", c.LogLevel)
	}
	return nil
}

// StorageConfig converts the configuration into the storage layer's
// backend config.
func (c *Config) StorageConfig() *storage.Config {
	pg := postgres.DefaultConfig()
	pg.Host = c.Postgres.Host
	pg.Port = c.Postgres.Port
	pg.Database = c.Postgres.Database
	pg.User = c.Postgres.User
	pg.Password = c.Postgres.Password
	pg.SSLMode = c.Postgres.SSLMode

	return &storage.Config{
		Backend:  c.Backend,
		Path:     c.SQLitePath,
		Postgres: pg,
	}
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvString parses a string from an environment variable
func parseEnvString(key string, dest *string) {
	if value := os.Getenv(key); value != "" {
		*dest = value
	}
}
