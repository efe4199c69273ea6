// pkg/cleaner/cleaner.go
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/customer-ingress/pkg/model"
)

var (
	// ErrNonUniqueBinEdges is returned when quantile bucketing cannot produce distinct edges
	ErrNonUniqueBinEdges = errors.New("quantile bin edges are not unique")
	// ErrRedundancyMismatch is returned in strict mode when redundant columns disagree
	ErrRedundancyMismatch = errors.New("redundant columns are not equivalent")
)

// UnmappedCategoryError reports values that have no entry in a static mapping
type UnmappedCategoryError struct {
	Column string
	Values []string // Distinct offending values as read, sorted
	Rows   int      // Number of rows carrying an offending value
}

func (e *UnmappedCategoryError) Error() string {
	return fmt.Sprintf("column %s has %d rows with unmapped values: %s",
		e.Column, e.Rows, strings.Join(e.Values, ", "))
}

// Step is one transformation applied to the table in place
type Step interface {
	Name() string
	Apply(ctx context.Context, t *model.Table, report *model.CleaningReport) error
}

// Options tunes cleaning behavior
type Options struct {
	// StrictRedundancy fails the run when the discount indicator columns disagree
	// instead of logging a warning and dropping one anyway
	StrictRedundancy bool
}

// DataCleaner runs the ordered cleaning steps over a table
type DataCleaner struct {
	logger *zap.Logger
	steps  []Step
}

// NewDataCleaner creates a DataCleaner with the standard step sequence
func NewDataCleaner(logger *zap.Logger, opts Options) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return NewDataCleanerWithSteps(logger, DefaultSteps(logger, opts))
}

// NewDataCleanerWithSteps creates a DataCleaner running the given steps in order
func NewDataCleanerWithSteps(logger *zap.Logger, steps []Step) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if len(steps) == 0 {
		return nil, errors.New("at least one cleaning step is required")
	}

	c := &DataCleaner{
		logger: logger,
		steps:  steps,
	}
	logger.Debug("Data cleaner configured", zap.Strings("steps", c.StepNames()))
	return c, nil
}

// DefaultSteps returns the cleaning sequence: imputation, renaming, feature derivation,
// redundancy elimination, region mapping, text normalization, category materialization
func DefaultSteps(logger *zap.Logger, opts Options) []Step {
	return []Step{
		&RatingImputation{
			RatingColumn: sourceRatingColumn,
			GroupColumn:  sourceCategoryColumn,
			logger:       logger,
		},
		&ColumnRenaming{Renames: renamedColumns},
		&AgeGroupDerivation{
			Column: ColumnAge,
			Target: ColumnAgeGroup,
			Labels: AgeGroupLabels,
		},
		&FrequencyDerivation{
			Column:  ColumnFrequencyOfPurchases,
			Target:  ColumnPurchaseFrequencyDays,
			Mapping: FrequencyMapping,
		},
		&RedundancyElimination{
			Keep:   ColumnDiscountApplied,
			Drop:   ColumnPromoCodeUsed,
			Strict: opts.StrictRedundancy,
			logger: logger,
		},
		&RegionDerivation{
			Column:  ColumnLocation,
			Target:  ColumnRegion,
			Mapping: RegionMapping,
			logger:  logger,
		},
		&TextNormalization{},
		&CategoryMaterialization{Columns: CategoryColumns},
	}
}

// StepNames returns the names of the configured steps in order
func (c *DataCleaner) StepNames() []string {
	names := make([]string, len(c.steps))
	for i, step := range c.steps {
		names[i] = step.Name()
	}
	return names
}

// Clean applies every step to t in order and returns the operations performed.
// The first failing step aborts the run; t is then left partially cleaned.
func (c *DataCleaner) Clean(ctx context.Context, t *model.Table) (*model.CleaningReport, error) {
	if t == nil {
		return nil, errors.New("table cannot be nil")
	}

	report := &model.CleaningReport{}
	rowCount := t.Len()

	for _, step := range c.steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		start := time.Now()
		if err := step.Apply(ctx, t, report); err != nil {
			c.logger.Error("Cleaning step failed",
				zap.String("step", step.Name()),
				zap.Error(err))
			return report, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if t.Len() != rowCount {
			return report, fmt.Errorf("%s: row count changed from %d to %d", step.Name(), rowCount, t.Len())
		}

		c.logger.Debug("Completed cleaning step",
			zap.String("step", step.Name()),
			zap.Duration("duration", time.Since(start)))
	}

	for _, warning := range report.Warnings {
		c.logger.Warn("Cleaning warning", zap.String("warning", warning))
	}

	c.logger.Info("Cleaned table",
		zap.Int("rows", rowCount),
		zap.Int("columns", len(t.Names())),
		zap.Int("operations", len(report.Operations)),
		zap.Int("warnings", len(report.Warnings)))

	return report, nil
}

// sortedKeys returns the keys of a set in sorted order
func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
