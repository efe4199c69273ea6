// pkg/model/cleaning.go
package model

import (
	"time"
)

// CleaningOperation represents a single data cleaning operation applied to a column
type CleaningOperation struct {
	Step         string    // Pipeline step that performed the change (e.g., "rating_imputation")
	ColumnName   string    // Column that was cleaned or produced
	RowsAffected int       // Number of rows whose value changed or was produced
	Reason       string    // Why the change was made (e.g., "missing_rating")
	PerformedAt  time.Time // When the operation finished
}

// CleaningReport collects the operations of one pipeline run
type CleaningReport struct {
	Operations []CleaningOperation
	Warnings   []string
}

// Add records an operation, stamping it with the current time
func (r *CleaningReport) Add(op CleaningOperation) {
	if op.PerformedAt.IsZero() {
		op.PerformedAt = time.Now()
	}
	r.Operations = append(r.Operations, op)
}

// Warn records an operator-facing warning
func (r *CleaningReport) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// RowsAffected sums the rows affected by operations of a step
func (r *CleaningReport) RowsAffected(step string) int {
	total := 0
	for _, op := range r.Operations {
		if op.Step == step {
			total += op.RowsAffected
		}
	}
	return total
}
