// pkg/cleaner/profile.go
package cleaner

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/David-Botos/customer-ingress/pkg/model"
)

// ColumnProfile summarizes one column of a table
type ColumnProfile struct {
	Name    string
	Kind    model.Kind
	Count   int // Non-missing values
	Missing int
	Unique  int

	// Most frequent value, for text and categorical columns
	Top  string
	Freq int

	// Summary statistics, for numeric columns
	Numeric bool
	Mean    float64
	Std     float64 // Sample standard deviation, NaN with fewer than 2 values
	Min     float64
	Max     float64
}

// Profile summarizes every column of t in column order
func Profile(t *model.Table) []ColumnProfile {
	columns := t.Columns()
	profiles := make([]ColumnProfile, 0, len(columns))

	for _, col := range columns {
		p := ColumnProfile{Name: col.Name, Kind: col.Kind}
		counts := make(map[string]int)
		var numbers []float64

		for _, row := range t.Rows {
			v := row[col.Name]
			if model.IsMissing(v) {
				p.Missing++
				continue
			}
			p.Count++
			counts[toString(v)]++

			if col.Kind == model.KindInt || col.Kind == model.KindFloat {
				if f, ok := toFloat(v); ok {
					numbers = append(numbers, f)
				}
			}
		}
		p.Unique = len(counts)

		if col.Kind == model.KindInt || col.Kind == model.KindFloat {
			if len(numbers) > 0 {
				p.Numeric = true
				p.Min = floats.Min(numbers)
				p.Max = floats.Max(numbers)
				if len(numbers) > 1 {
					p.Mean, p.Std = stat.MeanStdDev(numbers, nil)
				} else {
					p.Mean, p.Std = numbers[0], math.NaN()
				}
			}
		} else {
			p.Top, p.Freq = mostFrequent(counts)
		}

		profiles = append(profiles, p)
	}

	return profiles
}

// mostFrequent returns the value with the highest count; ties go to the smallest value
func mostFrequent(counts map[string]int) (string, int) {
	var top string
	freq := 0
	for value, n := range counts {
		if n > freq || (n == freq && value < top) {
			top, freq = value, n
		}
	}
	return top, freq
}

// LogProfile writes one structured log entry per column profile
func LogProfile(logger *zap.Logger, profiles []ColumnProfile) {
	for _, p := range profiles {
		fields := []zap.Field{
			zap.String("column", p.Name),
			zap.String("kind", p.Kind.String()),
			zap.Int("count", p.Count),
			zap.Int("missing", p.Missing),
			zap.Int("unique", p.Unique),
		}
		if p.Numeric {
			fields = append(fields,
				zap.Float64("mean", p.Mean),
				zap.Float64("std", p.Std),
				zap.Float64("min", p.Min),
				zap.Float64("max", p.Max))
		} else if p.Freq > 0 {
			fields = append(fields,
				zap.String("top", p.Top),
				zap.Int("freq", p.Freq))
		}
		logger.Info("Column profile", fields...)
	}
}
