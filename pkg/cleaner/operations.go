// pkg/cleaner/operations.go
package cleaner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/gonum/stat"

	"github.com/David-Botos/customer-ingress/pkg/model"
)

const missingValueLabel = "<missing>"

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// normalizeText trims surrounding whitespace and lower-cases
func normalizeText(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// RatingImputation coerces the rating column to float and fills missing ratings
// with the median rating of rows in the same group
type RatingImputation struct {
	RatingColumn string
	GroupColumn  string
	logger       *zap.Logger
}

func (s *RatingImputation) Name() string { return "rating_imputation" }

func (s *RatingImputation) Apply(_ context.Context, t *model.Table, report *model.CleaningReport) error {
	if err := t.RequireColumns(s.RatingColumn, s.GroupColumn); err != nil {
		return err
	}
	logger := nopIfNil(s.logger)

	// Coerce, never fail: anything non-numeric becomes missing
	ratings := make([]interface{}, t.Len())
	present := make([]float64, 0, t.Len())
	coerced := 0
	for i, row := range t.Rows {
		raw := row[s.RatingColumn]
		f, ok := toFloat(raw)
		if !ok {
			if !model.IsMissing(raw) {
				coerced++
			}
			continue
		}
		ratings[i] = f
		present = append(present, f)
	}

	if len(present) > 0 {
		logger.Info("Rating summary before imputation",
			zap.String("column", s.RatingColumn),
			zap.Float64("median", median(present)),
			zap.Float64("mean", stat.Mean(present, nil)),
			zap.Int("missing", t.Len()-len(present)))
	}

	// First pass: group statistics keyed by group value
	groups := make(map[string][]float64)
	for i, row := range t.Rows {
		key, ok := groupKey(row[s.GroupColumn])
		if !ok {
			continue
		}
		if f, ok := ratings[i].(float64); ok {
			groups[key] = append(groups[key], f)
		} else if _, seen := groups[key]; !seen {
			groups[key] = nil
		}
	}

	medians := make(map[string]float64, len(groups))
	emptyGroups := make(map[string]struct{})
	for key, values := range groups {
		if len(values) == 0 {
			emptyGroups[key] = struct{}{}
			continue
		}
		medians[key] = median(values)
	}

	// Second pass: fill from the group median
	imputed, unfilled := 0, 0
	for i, row := range t.Rows {
		if ratings[i] != nil {
			continue
		}
		key, ok := groupKey(row[s.GroupColumn])
		if !ok {
			unfilled++
			continue
		}
		m, ok := medians[key]
		if !ok {
			unfilled++
			continue
		}
		ratings[i] = m
		imputed++
	}

	if err := t.SetColumn(model.Column{Name: s.RatingColumn, Kind: model.KindFloat}, ratings); err != nil {
		return err
	}

	if coerced > 0 {
		report.Add(model.CleaningOperation{
			Step:         s.Name(),
			ColumnName:   s.RatingColumn,
			RowsAffected: coerced,
			Reason:       "non_numeric_rating",
		})
	}
	report.Add(model.CleaningOperation{
		Step:         s.Name(),
		ColumnName:   s.RatingColumn,
		RowsAffected: imputed,
		Reason:       "missing_rating_group_median",
	})
	if unfilled > 0 {
		report.Warn(fmt.Sprintf("%d rows of %s remain missing; groups without ratings: %s",
			unfilled, s.RatingColumn, strings.Join(sortedKeys(emptyGroups), ", ")))
	}

	return nil
}

// groupKey returns the grouping key of a value; missing values form no group
func groupKey(v interface{}) (string, bool) {
	if model.IsMissing(v) {
		return "", false
	}
	return toString(v), true
}

// ColumnRenaming lower-cases column names, replaces spaces with underscores,
// then applies explicit renames
type ColumnRenaming struct {
	Renames map[string]string
}

func (s *ColumnRenaming) Name() string { return "column_renaming" }

func (s *ColumnRenaming) Apply(_ context.Context, t *model.Table, report *model.CleaningReport) error {
	renames, err := t.RenameAll(s.normalize)
	if err != nil {
		return err
	}

	report.Add(model.CleaningOperation{
		Step:         s.Name(),
		ColumnName:   "*",
		RowsAffected: len(renames),
		Reason:       "snake_case_column_names",
	})
	return nil
}

func (s *ColumnRenaming) normalize(name string) string {
	snake := strings.ReplaceAll(strings.ToLower(name), " ", "_")
	if renamed, ok := s.Renames[snake]; ok {
		return renamed
	}
	return snake
}

// AgeGroupDerivation buckets a numeric column into equal-frequency quantile groups
// labeled in ascending order
type AgeGroupDerivation struct {
	Column string
	Target string
	Labels []string
}

func (s *AgeGroupDerivation) Name() string { return "age_group_derivation" }

func (s *AgeGroupDerivation) Apply(_ context.Context, t *model.Table, report *model.CleaningReport) error {
	if err := t.RequireColumns(s.Column); err != nil {
		return err
	}
	if len(s.Labels) < 2 {
		return fmt.Errorf("need at least 2 labels, got %d", len(s.Labels))
	}

	domain, err := model.NewDomain(s.Labels, true)
	if err != nil {
		return err
	}

	ages := make([]float64, 0, t.Len())
	for _, row := range t.Rows {
		if f, ok := toFloat(row[s.Column]); ok {
			ages = append(ages, f)
		}
	}
	if len(ages) == 0 {
		return fmt.Errorf("%w: column %s has no values", ErrNonUniqueBinEdges, s.Column)
	}

	sort.Float64s(ages)
	edges := quantileEdges(ages, len(s.Labels))
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return fmt.Errorf("%w: column %s edges %v", ErrNonUniqueBinEdges, s.Column, edges)
		}
	}

	groups := make([]interface{}, t.Len())
	assigned := 0
	for i, row := range t.Rows {
		f, ok := toFloat(row[s.Column])
		if !ok {
			continue
		}
		if bucket := bucketFor(edges, f); bucket >= 0 {
			groups[i] = domain.At(bucket)
			assigned++
		}
	}

	if err := t.AddColumn(model.Column{Name: s.Target, Kind: model.KindCategory, Domain: domain}, groups); err != nil {
		return err
	}

	report.Add(model.CleaningOperation{
		Step:         s.Name(),
		ColumnName:   s.Target,
		RowsAffected: assigned,
		Reason:       fmt.Sprintf("quartiles_of_%s", s.Column),
	})
	return nil
}

// FrequencyDerivation maps normalized frequency text to an integer day count.
// Every row must map.
type FrequencyDerivation struct {
	Column  string
	Target  string
	Mapping map[string]int64
}

func (s *FrequencyDerivation) Name() string { return "frequency_derivation" }

func (s *FrequencyDerivation) Apply(_ context.Context, t *model.Table, report *model.CleaningReport) error {
	if err := t.RequireColumns(s.Column); err != nil {
		return err
	}

	days := make([]interface{}, t.Len())
	unmapped := make(map[string]struct{})
	unmappedRows := 0
	for i, row := range t.Rows {
		raw := row[s.Column]
		if model.IsMissing(raw) {
			unmapped[missingValueLabel] = struct{}{}
			unmappedRows++
			continue
		}

		d, ok := s.Mapping[normalizeText(toString(raw))]
		if !ok {
			unmapped[toString(raw)] = struct{}{}
			unmappedRows++
			continue
		}
		days[i] = d
	}

	if unmappedRows > 0 {
		return &UnmappedCategoryError{
			Column: s.Column,
			Values: sortedKeys(unmapped),
			Rows:   unmappedRows,
		}
	}

	if err := t.AddColumn(model.Column{Name: s.Target, Kind: model.KindInt}, days); err != nil {
		return err
	}

	report.Add(model.CleaningOperation{
		Step:         s.Name(),
		ColumnName:   s.Target,
		RowsAffected: t.Len(),
		Reason:       "frequency_to_days",
	})
	return nil
}

// RedundancyElimination compares two indicator columns row by row and drops one of them.
// The comparison is informational: the drop happens whether or not they agree,
// unless Strict is set.
type RedundancyElimination struct {
	Keep   string
	Drop   string
	Strict bool
	logger *zap.Logger
}

func (s *RedundancyElimination) Name() string { return "redundancy_elimination" }

func (s *RedundancyElimination) Apply(_ context.Context, t *model.Table, report *model.CleaningReport) error {
	if err := t.RequireColumns(s.Keep, s.Drop); err != nil {
		return err
	}
	logger := nopIfNil(s.logger)

	mismatches := 0
	for _, row := range t.Rows {
		if !valuesEqual(row[s.Keep], row[s.Drop]) {
			mismatches++
		}
	}

	if mismatches == 0 {
		logger.Info("Redundant columns are equivalent",
			zap.String("kept", s.Keep),
			zap.String("dropped", s.Drop))
	} else {
		if s.Strict {
			return fmt.Errorf("%w: %s and %s differ in %d rows", ErrRedundancyMismatch, s.Keep, s.Drop, mismatches)
		}
		logger.Warn("Redundant columns are not equivalent, dropping anyway",
			zap.String("kept", s.Keep),
			zap.String("dropped", s.Drop),
			zap.Int("mismatches", mismatches))
		report.Warn(fmt.Sprintf("%s and %s differ in %d rows; %s dropped anyway", s.Keep, s.Drop, mismatches, s.Drop))
	}

	if err := t.DropColumn(s.Drop); err != nil {
		return err
	}

	report.Add(model.CleaningOperation{
		Step:         s.Name(),
		ColumnName:   s.Drop,
		RowsAffected: t.Len(),
		Reason:       fmt.Sprintf("redundant_with_%s", s.Keep),
	})
	return nil
}

// valuesEqual compares two cell values; missing never equals anything
func valuesEqual(a, b interface{}) bool {
	if model.IsMissing(a) || model.IsMissing(b) {
		return false
	}
	return a == b
}

// RegionDerivation maps normalized location text to a region. Misses yield missing.
type RegionDerivation struct {
	Column  string
	Target  string
	Mapping map[string]string
	logger  *zap.Logger
}

func (s *RegionDerivation) Name() string { return "region_derivation" }

func (s *RegionDerivation) Apply(_ context.Context, t *model.Table, report *model.CleaningReport) error {
	if err := t.RequireColumns(s.Column); err != nil {
		return err
	}
	logger := nopIfNil(s.logger)

	regions := make([]interface{}, t.Len())
	unmapped := make(map[string]struct{})
	mapped := 0
	for i, row := range t.Rows {
		raw := row[s.Column]
		if model.IsMissing(raw) {
			continue
		}
		region, ok := s.Mapping[normalizeText(toString(raw))]
		if !ok {
			unmapped[toString(raw)] = struct{}{}
			continue
		}
		regions[i] = region
		mapped++
	}

	if err := t.AddColumn(model.Column{Name: s.Target, Kind: model.KindString}, regions); err != nil {
		return err
	}

	if len(unmapped) > 0 {
		logger.Info("Locations without a region",
			zap.String("column", s.Column),
			zap.Strings("values", sortedKeys(unmapped)))
	}

	report.Add(model.CleaningOperation{
		Step:         s.Name(),
		ColumnName:   s.Target,
		RowsAffected: mapped,
		Reason:       "location_to_region",
	})
	return nil
}

// TextNormalization trims and lower-cases every text column in place
type TextNormalization struct{}

func (s *TextNormalization) Name() string { return "text_normalization" }

func (s *TextNormalization) Apply(ctx context.Context, t *model.Table, report *model.CleaningReport) error {
	for _, col := range t.Columns() {
		if col.Kind != model.KindString {
			continue
		}

		changed := 0
		for _, row := range t.Rows {
			str, ok := row[col.Name].(string)
			if !ok {
				continue
			}
			if normalized := normalizeText(str); normalized != str {
				row[col.Name] = normalized
				changed++
			}
		}

		if changed > 0 {
			report.Add(model.CleaningOperation{
				Step:         s.Name(),
				ColumnName:   col.Name,
				RowsAffected: changed,
				Reason:       "trim_lower",
			})
		}
	}
	return nil
}

// CategoryMaterialization converts the listed columns to categorical columns whose
// domain is the set of observed values. Columns that are already categorical keep their domain.
type CategoryMaterialization struct {
	Columns []string
}

func (s *CategoryMaterialization) Name() string { return "category_materialization" }

func (s *CategoryMaterialization) Apply(_ context.Context, t *model.Table, report *model.CleaningReport) error {
	if err := t.RequireColumns(s.Columns...); err != nil {
		return err
	}

	for _, name := range s.Columns {
		col, _ := t.Column(name)
		if col.Kind == model.KindCategory {
			continue
		}

		observed := make([]string, 0, t.Len())
		for _, row := range t.Rows {
			if v := row[name]; !model.IsMissing(v) {
				observed = append(observed, toString(v))
			}
		}
		domain := model.ObservedDomain(observed)

		values := make([]interface{}, t.Len())
		for i, row := range t.Rows {
			v := row[name]
			if model.IsMissing(v) {
				continue
			}
			c, _ := domain.Category(toString(v)) // every observed value is a level
			values[i] = c
		}

		if err := t.SetColumn(model.Column{Name: name, Kind: model.KindCategory, Domain: domain}, values); err != nil {
			return err
		}

		report.Add(model.CleaningOperation{
			Step:         s.Name(),
			ColumnName:   name,
			RowsAffected: len(observed),
			Reason:       fmt.Sprintf("categorical_%d_levels", domain.Len()),
		})
	}
	return nil
}
