// pkg/model/metadata.go
package model

import "strings"

// TableMetadata contains the structure information for a sink table
type TableMetadata struct {
	Table   string           // Table name
	Columns []ColumnMetadata // Column definitions in table order
}

// ColumnMetadata represents metadata about a sink column
type ColumnMetadata struct {
	Name     string // Column name
	Kind     Kind   // Kind of the source column
	SQLType  string // Mapped SQL type for the target dialect
	Nullable bool   // Whether column allows NULL values
}

// GetColumnByName returns a column by name (case-insensitive)
// Returns nil if column not found
func (tm *TableMetadata) GetColumnByName(name string) *ColumnMetadata {
	normalizedName := normalizeColumnName(name)
	for i, col := range tm.Columns {
		if normalizeColumnName(col.Name) == normalizedName {
			return &tm.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the column names in table order
func (tm *TableMetadata) ColumnNames() []string {
	names := make([]string, len(tm.Columns))
	for i, col := range tm.Columns {
		names[i] = col.Name
	}
	return names
}

func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
