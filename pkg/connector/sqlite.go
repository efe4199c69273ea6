// pkg/connector/sqlite.go
package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/David-Botos/customer-ingress/pkg/config"
	"github.com/David-Botos/customer-ingress/pkg/converter"
)

// SQLiteConnector implements the DatabaseConnector interface for a SQLite file
type SQLiteConnector struct {
	db     *sqlx.DB
	logger *zap.Logger
	cfg    *config.SQLiteConfig
}

// NewSQLiteConnector opens the SQLite database file, creating it if needed
func NewSQLiteConnector(ctx context.Context, cfg *config.SQLiteConfig) (*SQLiteConnector, error) {
	logger := zap.L().Named("sqlite-connector")
	logger.Info("Opening SQLite database", zap.String("path", cfg.Path))

	db, err := sqlx.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite connection: %w", err)
	}

	// A single writer keeps the transaction and DDL on one connection
	ApplyConnectionSettings(db.DB, 1, 1, 0, 0)

	if err := PingWithTimeout(ctx, db.DB, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open SQLite database %s: %w", cfg.Path, err)
	}

	return &SQLiteConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
	}, nil
}

// DB returns the underlying database connection
func (c *SQLiteConnector) DB() *sqlx.DB {
	return c.db
}

// Dialect returns the SQLite dialect
func (c *SQLiteConnector) Dialect() converter.Dialect {
	return converter.DialectSQLite
}

// Name returns the database file path
func (c *SQLiteConnector) Name() string {
	return c.cfg.Path
}

// Close closes the database connection
func (c *SQLiteConnector) Close() error {
	c.logger.Info("Closing SQLite connection")
	LogConnectionStats(c.logger, c.cfg.Path, c.db.DB)
	return c.db.Close()
}
