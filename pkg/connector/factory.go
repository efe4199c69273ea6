// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/customer-ingress/pkg/config"
)

// ConnectorFactory creates database connectors
type ConnectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, logger *zap.Logger) *ConnectorFactory {
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSinkConnector creates the connector for the configured sink driver
func (f *ConnectorFactory) CreateSinkConnector(ctx context.Context) (DatabaseConnector, error) {
	switch f.cfg.SinkDriver {
	case config.DriverPostgres:
		return f.CreatePostgresConnector(ctx)
	case config.DriverSQLite:
		return f.CreateSQLiteConnector(ctx)
	default:
		return nil, fmt.Errorf("unsupported sink driver %q", f.cfg.SinkDriver)
	}
}

// CreatePostgresConnector creates a new PostgreSQL connector
func (f *ConnectorFactory) CreatePostgresConnector(ctx context.Context) (*PostgresConnector, error) {
	f.logger.Info("Creating PostgreSQL connector")

	if f.cfg.Postgres == nil {
		return nil, fmt.Errorf("PostgreSQL configuration is missing")
	}

	connector, err := NewPostgresConnector(ctx, f.cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connector: %w", err)
	}

	return connector, nil
}

// CreateSQLiteConnector creates a new SQLite connector
func (f *ConnectorFactory) CreateSQLiteConnector(ctx context.Context) (*SQLiteConnector, error) {
	f.logger.Info("Creating SQLite connector")

	if f.cfg.SQLite == nil {
		return nil, fmt.Errorf("SQLite configuration is missing")
	}

	connector, err := NewSQLiteConnector(ctx, f.cfg.SQLite)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite connector: %w", err)
	}

	return connector, nil
}
