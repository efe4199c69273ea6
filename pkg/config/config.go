// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Sink drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// WriteModeReplace drops and recreates the target table. It is the only supported mode.
const WriteModeReplace = "replace"

// ErrUnsupportedWriteMode is returned for any write mode other than replace
var ErrUnsupportedWriteMode = errors.New("unsupported write mode")

// Config represents the application configuration
type Config struct {
	// Source file
	SourcePath      string
	SourceDelimiter rune

	// Sink selection and write settings
	SinkDriver      string
	TableName       string
	WriteMode       string
	WriteTimeout    time.Duration
	VerifyTimeout   time.Duration
	BatchSize       int
	OptimizeStorage bool

	// Database connections, only the one matching SinkDriver is set
	Postgres *PostgresConfig
	SQLite   *SQLiteConfig

	// Cleaning behavior
	StrictRedundancy bool

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads an optional .env file, then configuration from environment variables
func LoadConfig() (*Config, error) {
	// A missing .env file is normal outside local development
	_ = godotenv.Load()

	return LoadConfigFrom(os.Getenv)
}

// LoadConfigFrom builds the configuration from the supplied lookup function
func LoadConfigFrom(getenv func(string) string) (*Config, error) {
	env := envReader{getenv: getenv}

	delimiter, err := parseDelimiter(env.get("SOURCE_DELIMITER", ","))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		// Default values
		SourcePath:       env.get("SOURCE_PATH", "customer_shopping_behavior.csv"),
		SourceDelimiter:  delimiter,
		SinkDriver:       strings.ToLower(env.get("SINK_DRIVER", DriverPostgres)),
		TableName:        env.get("SINK_TABLE", "customer"),
		WriteMode:        strings.ToLower(env.get("SINK_WRITE_MODE", WriteModeReplace)),
		WriteTimeout:     time.Duration(env.getInt("SINK_WRITE_TIMEOUT_SECONDS", 300)) * time.Second,
		VerifyTimeout:    time.Duration(env.getInt("SINK_VERIFY_TIMEOUT_SECONDS", 60)) * time.Second,
		BatchSize:        env.getInt("SINK_BATCH_SIZE", 1000),
		OptimizeStorage:  env.getBool("SINK_OPTIMIZE_STORAGE", false),
		StrictRedundancy: env.getBool("STRICT_REDUNDANCY", false),
		LogLevel:         env.get("LOG_LEVEL", "info"),
		LogFormat:        env.get("LOG_FORMAT", "json"),
	}

	// Load the sink configuration for the selected driver
	switch cfg.SinkDriver {
	case DriverPostgres:
		pgConfig, err := loadPostgresConfig(env)
		if err != nil {
			return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
		}
		cfg.Postgres = pgConfig
	case DriverSQLite:
		cfg.SQLite = loadSQLiteConfig(env)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SourcePath) == "" {
		return errors.New("source path is required")
	}

	switch c.SinkDriver {
	case DriverPostgres:
		if c.Postgres == nil {
			return errors.New("postgreSQL configuration is required")
		}
	case DriverSQLite:
		if c.SQLite == nil || strings.TrimSpace(c.SQLite.Path) == "" {
			return errors.New("sqlite path is required")
		}
	default:
		return fmt.Errorf("unsupported sink driver %q", c.SinkDriver)
	}

	if strings.TrimSpace(c.TableName) == "" {
		return errors.New("sink table name is required")
	}

	if c.WriteMode != WriteModeReplace {
		return fmt.Errorf("%w %q (only %q is supported)", ErrUnsupportedWriteMode, c.WriteMode, WriteModeReplace)
	}

	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}

	if c.WriteTimeout <= 0 {
		return errors.New("write timeout must be positive")
	}

	if c.VerifyTimeout <= 0 {
		return errors.New("verify timeout must be positive")
	}

	return nil
}

// DatabaseName returns a human-readable name of the sink database for log messages
func (c *Config) DatabaseName() string {
	switch {
	case c.Postgres != nil:
		return c.Postgres.Database
	case c.SQLite != nil:
		return c.SQLite.Path
	default:
		return ""
	}
}

func parseDelimiter(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, fmt.Errorf("source delimiter must be a single character, got %q", s)
	}
	return runes[0], nil
}

// envReader wraps a getenv function with typed, defaulting accessors
type envReader struct {
	getenv func(string) string
}

func (e envReader) get(key, defaultValue string) string {
	value := e.getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func (e envReader) getInt(key string, defaultValue int) int {
	valueStr := e.get(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func (e envReader) getBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(e.get(key, ""))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}
