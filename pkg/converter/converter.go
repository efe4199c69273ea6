// pkg/converter/converter.go
package converter

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/customer-ingress/pkg/model"
)

// Dialect identifies the SQL flavor of a sink
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// TypeConverter handles mapping of column kinds to sink types and conversion of values
type TypeConverter struct {
	logger *zap.Logger
	// Configuration options
	config TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Longest category level stored as VARCHAR before falling back to TEXT
	MaxVarcharLength int
	// Whether to size categorical columns from their longest level
	OptimizeStorage bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		MaxVarcharLength: 1000,
		OptimizeStorage:  false,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TypeConverter{
		logger: logger,
		config: config,
	}
}

// BuildMetadata describes the sink table for t, mapping every column for dialect
func (c *TypeConverter) BuildMetadata(t *model.Table, table string, dialect Dialect) (*model.TableMetadata, error) {
	metadata := &model.TableMetadata{
		Table:   table,
		Columns: make([]model.ColumnMetadata, 0, len(t.Names())),
	}

	for _, col := range t.Columns() {
		sqlType, err := c.MapKind(col, dialect)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}

		metadata.Columns = append(metadata.Columns, model.ColumnMetadata{
			Name:     col.Name,
			Kind:     col.Kind,
			SQLType:  sqlType,
			Nullable: true,
		})
	}

	return metadata, nil
}

// GenerateColumnDefinitions creates column definitions for CREATE TABLE
func (c *TypeConverter) GenerateColumnDefinitions(metadata *model.TableMetadata) []string {
	definitions := make([]string, 0, len(metadata.Columns))

	for _, col := range metadata.Columns {
		nullability := "NULL"
		if !col.Nullable {
			nullability = "NOT NULL"
		}

		definitions = append(definitions, fmt.Sprintf("%s %s %s",
			QuoteIdentifier(col.Name),
			col.SQLType,
			nullability))
	}

	return definitions
}

// CreateTableStatement returns the CREATE TABLE statement for metadata under the given name
func (c *TypeConverter) CreateTableStatement(metadata *model.TableMetadata, name string) string {
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)",
		QuoteIdentifier(name),
		strings.Join(c.GenerateColumnDefinitions(metadata), ",\n  "))
}

// InsertStatement returns a multi-row INSERT with rows groups of '?' placeholders.
// Callers rebind the placeholders for their driver.
func InsertStatement(table string, columns []string, rows int) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = QuoteIdentifier(col)
	}

	group := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	groups := make([]string, rows)
	for i := range groups {
		groups[i] = group
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		QuoteIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(groups, ", "))
}

// QuoteIdentifier quotes and escapes an identifier; both dialects accept double quotes
func QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}
