package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/customer-ingress/pkg/connector"
	"github.com/David-Botos/customer-ingress/pkg/converter"
	"github.com/David-Botos/customer-ingress/pkg/model"
)

// maxBindParams caps the placeholders in one INSERT; SQLite allows 32766 and PostgreSQL 65535
const maxBindParams = 30000

// ConnectorProvider acquires a sink connection
type ConnectorProvider interface {
	CreateSinkConnector(ctx context.Context) (connector.DatabaseConnector, error)
}

// LoaderConfig controls how a table is written
type LoaderConfig struct {
	Table         string
	Driver        string // For error reports
	BatchSize     int
	WriteTimeout  time.Duration
	VerifyTimeout time.Duration // Per verification query, defaults to a minute
}

// LoadResult summarizes a successful load
type LoadResult struct {
	Table        string
	Database     string
	RowsWritten  int64
	Metrics      *LoadMetrics
	Verification *VerificationReport
}

// Loader writes a cleaned table to the sink, replacing any previous table of that name
type Loader struct {
	provider      ConnectorProvider
	typeConverter *converter.TypeConverter
	verifier      *Verifier
	errorHandler  *ErrorHandler
	logger        *zap.Logger
	cfg           LoaderConfig
}

// NewLoader creates a new loader
func NewLoader(
	provider ConnectorProvider,
	typeConverter *converter.TypeConverter,
	cfg LoaderConfig,
	logger *zap.Logger,
) *Loader {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}

	verifier := NewVerifier(logger)
	if cfg.VerifyTimeout > 0 {
		verifier = verifier.WithTimeout(cfg.VerifyTimeout)
	}

	return &Loader{
		provider:      provider,
		typeConverter: typeConverter,
		verifier:      verifier,
		errorHandler:  NewErrorHandler(logger),
		logger:        logger,
		cfg:           cfg,
	}
}

// GetErrorSummary returns the errors recorded so far by category
func (l *Loader) GetErrorSummary() map[ErrorCategory]int {
	return l.errorHandler.GetErrorSummary()
}

// Load writes t as the target table. The connection is acquired here and closed
// before returning. On failure the previous table, if any, is unchanged, except when
// verification fails after the commit: the SinkWriteError then has Committed set.
func (l *Loader) Load(ctx context.Context, t *model.Table) (*LoadResult, error) {
	if l.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.WriteTimeout)
		defer cancel()
	}

	conn, err := l.provider.CreateSinkConnector(ctx)
	if err != nil {
		l.errorHandler.RecordError(NewErrorRecord(err, ErrorCategoryConnectionLevel).WithTable(l.cfg.Table, "connect"))
		return nil, &SinkConnectionError{Driver: l.cfg.Driver, Err: err}
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			l.logger.Warn("Failed to close sink connection", zap.Error(cerr))
		}
	}()

	metadata, err := l.typeConverter.BuildMetadata(t, l.cfg.Table, conn.Dialect())
	if err != nil {
		return nil, l.classify(err, "metadata")
	}
	if len(metadata.Columns) == 0 {
		return nil, &SinkWriteError{Table: l.cfg.Table, Err: errors.New("table has no columns")}
	}

	metrics := NewLoadMetrics(l.cfg.Table)
	if err := l.replaceTable(ctx, conn.DB(), metadata, t, metrics); err != nil {
		return nil, err
	}
	metrics.Complete()
	metrics.LogMetrics(l.logger)

	verification, err := l.verifier.Verify(ctx, conn.DB(), metadata, int64(t.Len()))
	if err != nil {
		return nil, l.committedFailure(err)
	}
	if !verification.RowCountMatches {
		return nil, l.committedFailure(fmt.Errorf("%w: expected %d rows, found %d",
			ErrRowCountMismatch, verification.ExpectedRowCount, verification.TargetRowCount))
	}

	return &LoadResult{
		Table:        l.cfg.Table,
		Database:     conn.Name(),
		RowsWritten:  metrics.RowsWritten,
		Metrics:      metrics,
		Verification: verification,
	}, nil
}

// replaceTable fills a staging table and swaps it in within one transaction
func (l *Loader) replaceTable(
	ctx context.Context,
	db *sqlx.DB,
	metadata *model.TableMetadata,
	t *model.Table,
	metrics *LoadMetrics,
) error {
	staging := stagingTableName(l.cfg.Table)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return l.classify(err, "begin")
	}
	committed := false
	defer func() {
		if !committed {
			if rerr := tx.Rollback(); rerr != nil {
				l.logger.Warn("Rollback failed", zap.String("table", l.cfg.Table), zap.Error(rerr))
			} else {
				l.logger.Info("Rolled back load", zap.String("table", l.cfg.Table))
			}
		}
	}()

	l.logger.Debug("Creating staging table", zap.String("staging", staging))
	if _, err := tx.ExecContext(ctx, l.typeConverter.CreateTableStatement(metadata, staging)); err != nil {
		return l.classify(err, "create")
	}

	if err := l.insertRows(ctx, tx, staging, metadata, t, metrics); err != nil {
		return err
	}

	swap := []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", converter.QuoteIdentifier(l.cfg.Table)),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", converter.QuoteIdentifier(staging), converter.QuoteIdentifier(l.cfg.Table)),
	}
	for _, stmt := range swap {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return l.classify(err, "swap")
		}
	}

	if err := tx.Commit(); err != nil {
		return l.classify(err, "commit")
	}
	committed = true

	l.logger.Info("Replaced table",
		zap.String("table", l.cfg.Table),
		zap.Int64("rows", metrics.RowsWritten))
	return nil
}

// insertRows writes every row in multi-row INSERT batches
func (l *Loader) insertRows(
	ctx context.Context,
	tx *sqlx.Tx,
	table string,
	metadata *model.TableMetadata,
	t *model.Table,
	metrics *LoadMetrics,
) error {
	columns := metadata.ColumnNames()
	batchSize := l.cfg.BatchSize
	if limit := maxBindParams / len(columns); batchSize > limit {
		batchSize = limit
	}

	var fullBatch string
	for start := 0; start < t.Len(); start += batchSize {
		end := start + batchSize
		if end > t.Len() {
			end = t.Len()
		}
		rows := t.Rows[start:end]

		args := make([]interface{}, 0, len(rows)*len(columns))
		for i, row := range rows {
			values, err := l.typeConverter.ConvertRow(row, metadata)
			if err != nil {
				return l.classify(fmt.Errorf("row %d: %w", start+i, err), "convert")
			}
			args = append(args, values...)
		}

		// Every batch but the last has the same shape
		query := fullBatch
		if len(rows) != batchSize || query == "" {
			query = tx.Rebind(converter.InsertStatement(table, columns, len(rows)))
			if len(rows) == batchSize {
				fullBatch = query
			}
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return l.classify(fmt.Errorf("batch at row %d: %w", start, err), "insert")
		}
		metrics.RecordBatch(int64(len(rows)), args)

		l.logger.Debug("Inserted batch",
			zap.String("table", table),
			zap.Int("from", start),
			zap.Int("rows", len(rows)))
	}

	return nil
}

// classify records err and wraps it in the sink error type matching its category
func (l *Loader) classify(err error, phase string) error {
	category := l.errorHandler.CategorizeError(err)
	l.errorHandler.RecordError(NewErrorRecord(err, category).WithTable(l.cfg.Table, phase))

	if category == ErrorCategoryConnectionLevel {
		return &SinkConnectionError{Driver: l.cfg.Driver, Err: err}
	}
	return &SinkWriteError{Table: l.cfg.Table, Err: WrapError(err, phase)}
}

// committedFailure records a verification failure. The new table is already in place.
func (l *Loader) committedFailure(err error) error {
	category := l.errorHandler.CategorizeError(err)
	l.errorHandler.RecordError(NewErrorRecord(err, category).WithTable(l.cfg.Table, "verify"))
	l.logger.Error("Verification failed after commit, the new table is in place",
		zap.String("table", l.cfg.Table),
		zap.Error(err))

	return &SinkWriteError{Table: l.cfg.Table, Committed: true, Err: WrapError(err, "verify")}
}

// stagingTableName returns a unique name for the table being built
func stagingTableName(table string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s__staging_%s", table, suffix)
}
