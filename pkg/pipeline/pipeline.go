// pkg/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/David-Botos/customer-ingress/pkg/cleaner"
	"github.com/David-Botos/customer-ingress/pkg/config"
	"github.com/David-Botos/customer-ingress/pkg/connector"
	"github.com/David-Botos/customer-ingress/pkg/converter"
	"github.com/David-Botos/customer-ingress/pkg/model"
	"github.com/David-Botos/customer-ingress/pkg/source"
	"github.com/David-Botos/customer-ingress/pkg/transfer"
)

// Source reads the raw table
type Source interface {
	ReadFile(ctx context.Context, path string) (*model.Table, error)
}

// Cleaner transforms the raw table in place
type Cleaner interface {
	Clean(ctx context.Context, t *model.Table) (*model.CleaningReport, error)
}

// Sink writes the cleaned table
type Sink interface {
	Load(ctx context.Context, t *model.Table) (*transfer.LoadResult, error)
}

// Result summarizes one pipeline run
type Result struct {
	RunID       string
	Rows        int
	Fingerprint uint64 // Of the cleaned table
	Report      *model.CleaningReport
	Load        *transfer.LoadResult
}

// Pipeline reads, cleans and loads the customer table
type Pipeline struct {
	sourcePath string
	source     Source
	cleaner    Cleaner
	sink       Sink
	logger     *zap.Logger
}

// New wires the pipeline components from configuration
func New(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	dataCleaner, err := cleaner.NewDataCleaner(logger.Named("cleaner"), cleaner.Options{
		StrictRedundancy: cfg.StrictRedundancy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create data cleaner: %w", err)
	}

	typeConverter := converter.NewTypeConverterWithConfig(logger.Named("converter"), converter.TypeConverterConfig{
		MaxVarcharLength: converter.DefaultConfig().MaxVarcharLength,
		OptimizeStorage:  cfg.OptimizeStorage,
	})

	loader := transfer.NewLoader(
		connector.NewConnectorFactory(cfg, logger.Named("connector")),
		typeConverter,
		transfer.LoaderConfig{
			Table:         cfg.TableName,
			Driver:        cfg.SinkDriver,
			BatchSize:     cfg.BatchSize,
			WriteTimeout:  cfg.WriteTimeout,
			VerifyTimeout: cfg.VerifyTimeout,
		},
		logger.Named("loader"),
	)

	return NewWithComponents(
		cfg.SourcePath,
		source.NewReader(logger.Named("source"), cfg.SourceDelimiter),
		dataCleaner,
		loader,
		logger,
	), nil
}

// NewWithComponents creates a pipeline from explicit components
func NewWithComponents(sourcePath string, src Source, c Cleaner, sink Sink, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		sourcePath: sourcePath,
		source:     src,
		cleaner:    c,
		sink:       sink,
		logger:     logger,
	}
}

// Run executes read, profile, clean and load in order. Any failure stops the run
// before the sink is touched, except failures of the load itself.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))

	logger.Info("Starting pipeline run", zap.String("source", p.sourcePath))

	table, err := p.source.ReadFile(ctx, p.sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}

	cleaner.LogProfile(logger, cleaner.Profile(table))

	report, err := p.cleaner.Clean(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to clean table: %w", err)
	}

	result := &Result{
		RunID:       runID,
		Rows:        table.Len(),
		Fingerprint: table.Fingerprint(),
		Report:      report,
	}
	logger.Info("Cleaned table ready to load",
		zap.Int("rows", result.Rows),
		zap.Strings("columns", table.Names()),
		zap.String("fingerprint", fmt.Sprintf("%016x", result.Fingerprint)))

	load, err := p.sink.Load(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to load table: %w", err)
	}
	result.Load = load

	logger.Info(fmt.Sprintf("Loaded table %s into database %s", load.Table, load.Database),
		zap.Int64("rows", load.RowsWritten),
		zap.Duration("duration", load.Metrics.Duration()))

	return result, nil
}
