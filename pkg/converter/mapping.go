// pkg/converter/mapping.go
package converter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/customer-ingress/pkg/model"
)

// MapKind returns the sink column type for col in the given dialect
func (c *TypeConverter) MapKind(col model.Column, dialect Dialect) (string, error) {
	switch dialect {
	case DialectPostgres:
		switch col.Kind {
		case model.KindInt:
			return "BIGINT", nil
		case model.KindFloat:
			return "DOUBLE PRECISION", nil
		case model.KindString:
			return "TEXT", nil
		case model.KindCategory:
			return c.handleCategoryType(col), nil
		}
	case DialectSQLite:
		switch col.Kind {
		case model.KindInt:
			return "INTEGER", nil
		case model.KindFloat:
			return "REAL", nil
		case model.KindString, model.KindCategory:
			return "TEXT", nil
		}
	default:
		return "", fmt.Errorf("unsupported dialect %q", dialect)
	}

	return "", fmt.Errorf("unsupported column kind %s", col.Kind)
}

// handleCategoryType sizes a categorical column from its longest level
func (c *TypeConverter) handleCategoryType(col model.Column) string {
	if !c.config.OptimizeStorage || col.Domain == nil {
		return "TEXT"
	}

	varcharType := c.handleVarcharType(col.Domain.MaxLevelLength())
	c.logger.Debug("Sized categorical column",
		zap.String("column", col.Name),
		zap.Int("levels", col.Domain.Len()),
		zap.String("type", varcharType))
	return varcharType
}

// handleVarcharType rounds a maximum length up to a common VARCHAR size
func (c *TypeConverter) handleVarcharType(length int) string {
	if length > c.config.MaxVarcharLength {
		return "TEXT"
	}

	switch {
	case length > 1000:
		return "TEXT"
	case length > 255:
		return "VARCHAR(1000)"
	case length > 100:
		return "VARCHAR(255)"
	case length > 50:
		return "VARCHAR(100)"
	case length < 1:
		return "VARCHAR(1)"
	default:
		// Keep the exact size for small fields
		return fmt.Sprintf("VARCHAR(%d)", length)
	}
}
