// pkg/config/database.go
package config

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"time"
)

// PostgresConfig holds PostgreSQL connection parameters
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Statement timeout
	StatementTimeout time.Duration
}

// SQLiteConfig holds SQLite sink parameters
type SQLiteConfig struct {
	Path string
}

func loadPostgresConfig(env envReader) (*PostgresConfig, error) {
	user := env.get("POSTGRES_USER", "")
	if user == "" {
		return nil, errors.New("POSTGRES_USER environment variable is required")
	}

	password := env.get("POSTGRES_PASSWORD", "")
	if password == "" {
		return nil, errors.New("POSTGRES_PASSWORD environment variable is required")
	}

	cfg := &PostgresConfig{
		Host:     env.get("POSTGRES_HOST", "localhost"),
		Port:     env.getInt("POSTGRES_PORT", 5432),
		User:     user,
		Password: password,
		Database: env.get("POSTGRES_DB", "customer_behavior"),
		SSLMode:  env.get("POSTGRES_SSLMODE", "disable"),

		MaxOpenConns:     env.getInt("POSTGRES_MAX_OPEN_CONNS", 4),
		MaxIdleConns:     env.getInt("POSTGRES_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime:  time.Duration(env.getInt("POSTGRES_CONN_MAX_LIFETIME_SECONDS", 1800)) * time.Second,
		ConnMaxIdleTime:  time.Duration(env.getInt("POSTGRES_CONN_MAX_IDLE_TIME_SECONDS", 600)) * time.Second,
		StatementTimeout: time.Duration(env.getInt("POSTGRES_STATEMENT_TIMEOUT_SECONDS", 300)) * time.Second,
	}

	return cfg, nil
}

func loadSQLiteConfig(env envReader) *SQLiteConfig {
	return &SQLiteConfig{
		Path: env.get("SQLITE_PATH", "customer_behavior.db"),
	}
}

// ConnectionString returns a PostgreSQL URL. Credentials are percent-encoded so that
// reserved characters such as '@' or ':' in the password survive parsing.
func (c *PostgresConfig) ConnectionString() string {
	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	if c.StatementTimeout > 0 {
		// pgx forwards unknown parameters as session runtime parameters
		query.Set("statement_timeout", strconv.FormatInt(c.StatementTimeout.Milliseconds(), 10))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// RedactedConnectionString returns the connection string with the password masked
func (c *PostgresConfig) RedactedConnectionString() string {
	u, err := url.Parse(c.ConnectionString())
	if err != nil {
		return ""
	}
	return u.Redacted()
}
