package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/customer-ingress/pkg/converter"
	"github.com/David-Botos/customer-ingress/pkg/model"
)

// ErrRowCountMismatch is returned when the written table does not hold the expected rows
var ErrRowCountMismatch = errors.New("row count mismatch")

// StructureDiscrepancy represents a discrepancy in table structure
type StructureDiscrepancy struct {
	ColumnName string
	IsMissing  bool // Expected but absent in the target
	IsExtra    bool // Present in the target but not expected
	Position   int  // Expected position, -1 for extra columns
}

// VerificationReport contains the results of a table verification
type VerificationReport struct {
	Table                  string
	VerificationTime       time.Time
	RowCountMatches        bool
	ExpectedRowCount       int64
	TargetRowCount         int64
	StructureMatches       bool
	StructureDiscrepancies []StructureDiscrepancy
	Duration               time.Duration
}

// Verifier checks a written table against what was loaded
type Verifier struct {
	logger  *zap.Logger
	timeout time.Duration
}

// NewVerifier creates a new verifier
func NewVerifier(logger *zap.Logger) *Verifier {
	return &Verifier{
		logger:  logger,
		timeout: time.Minute, // Default 1-minute timeout
	}
}

// WithTimeout sets a custom timeout for verification operations
func (v *Verifier) WithTimeout(timeout time.Duration) *Verifier {
	v.timeout = timeout
	return v
}

// Verify runs the row count and structure checks for metadata.Table
func (v *Verifier) Verify(ctx context.Context, db *sqlx.DB, metadata *model.TableMetadata, expectedRows int64) (*VerificationReport, error) {
	start := time.Now()
	report := &VerificationReport{
		Table:            metadata.Table,
		VerificationTime: start,
		ExpectedRowCount: expectedRows,
	}

	matches, count, err := v.VerifyRowCount(ctx, db, metadata.Table, expectedRows)
	if err != nil {
		return nil, err
	}
	report.RowCountMatches = matches
	report.TargetRowCount = count

	structureMatches, discrepancies, err := v.VerifyTableStructure(ctx, db, metadata)
	if err != nil {
		return nil, err
	}
	report.StructureMatches = structureMatches
	report.StructureDiscrepancies = discrepancies

	report.Duration = time.Since(start)
	return report, nil
}

// VerifyRowCount compares the target row count with the expected count
func (v *Verifier) VerifyRowCount(ctx context.Context, db *sqlx.DB, table string, expected int64) (bool, int64, error) {
	v.logger.Info("Verifying row count", zap.String("table", table))

	// Create context with timeout
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	var count int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", converter.QuoteIdentifier(table))
	if err := db.GetContext(ctx, &count, countQuery); err != nil {
		return false, 0, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}

	// Log the result
	matches := count == expected
	if matches {
		v.logger.Info("Row count verification successful",
			zap.String("table", table),
			zap.Int64("count", count))
	} else {
		v.logger.Warn("Row count mismatch",
			zap.String("table", table),
			zap.Int64("expectedCount", expected),
			zap.Int64("targetCount", count),
			zap.Int64("difference", expected-count))
	}

	return matches, count, nil
}

// VerifyTableStructure compares the target column names and order with metadata
func (v *Verifier) VerifyTableStructure(ctx context.Context, db *sqlx.DB, metadata *model.TableMetadata) (bool, []StructureDiscrepancy, error) {
	v.logger.Info("Verifying table structure", zap.String("table", metadata.Table))

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	// An empty result still carries the column list
	rows, err := db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", converter.QuoteIdentifier(metadata.Table)))
	if err != nil {
		return false, nil, fmt.Errorf("failed to get table structure: %w", err)
	}
	defer rows.Close()

	actualColumns, err := rows.Columns()
	if err != nil {
		return false, nil, fmt.Errorf("failed to read table columns: %w", err)
	}

	actual := make(map[string]int, len(actualColumns))
	for i, name := range actualColumns {
		actual[strings.ToLower(name)] = i
	}

	discrepancies := make([]StructureDiscrepancy, 0)
	for i, col := range metadata.Columns {
		name := strings.ToLower(col.Name)
		pos, exists := actual[name]
		if !exists {
			discrepancies = append(discrepancies, StructureDiscrepancy{ColumnName: col.Name, IsMissing: true, Position: i})
			continue
		}
		if pos != i {
			discrepancies = append(discrepancies, StructureDiscrepancy{ColumnName: col.Name, Position: i})
		}
	}

	for _, name := range actualColumns {
		if metadata.GetColumnByName(name) == nil {
			discrepancies = append(discrepancies, StructureDiscrepancy{ColumnName: name, IsExtra: true, Position: -1})
		}
	}

	// Log results
	matches := len(discrepancies) == 0
	if matches {
		v.logger.Info("Table structure verification successful", zap.String("table", metadata.Table))
	} else {
		v.logger.Warn("Table structure discrepancies found",
			zap.String("table", metadata.Table),
			zap.Int("discrepancies", len(discrepancies)))
	}

	return matches, discrepancies, nil
}
