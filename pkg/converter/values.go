// pkg/converter/values.go
package converter

import (
	"errors"
	"fmt"
	"math"

	"github.com/David-Botos/customer-ingress/pkg/model"
)

// ErrUnsupportedValue is returned when a cell value cannot be written to its column
var ErrUnsupportedValue = errors.New("unsupported value")

// ConvertValue converts a cell value to a database/sql argument for col
func (c *TypeConverter) ConvertValue(value interface{}, col model.ColumnMetadata) (interface{}, error) {
	// Handle NULL values
	if model.IsMissing(value) {
		return nil, nil
	}

	switch col.Kind {
	case model.KindInt:
		return convertToInt(value, col.Name)
	case model.KindFloat:
		return convertToFloat(value, col.Name)
	case model.KindString, model.KindCategory:
		return convertToText(value, col.Name)
	default:
		return nil, fmt.Errorf("%w: column %s has kind %s", ErrUnsupportedValue, col.Name, col.Kind)
	}
}

// ConvertRow converts a row to arguments in metadata column order
func (c *TypeConverter) ConvertRow(row model.Row, metadata *model.TableMetadata) ([]interface{}, error) {
	args := make([]interface{}, len(metadata.Columns))
	for i, col := range metadata.Columns {
		v, err := c.ConvertValue(row[col.Name], col)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func convertToInt(value interface{}, colName string) (interface{}, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: column %s value %v is not integral", ErrUnsupportedValue, colName, v)
		}
		return int64(v), nil
	default:
		return nil, fmt.Errorf("%w: column %s cannot store %T as integer", ErrUnsupportedValue, colName, value)
	}
}

func convertToFloat(value interface{}, colName string) (interface{}, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	default:
		return nil, fmt.Errorf("%w: column %s cannot store %T as float", ErrUnsupportedValue, colName, value)
	}
}

func convertToText(value interface{}, colName string) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case model.Category:
		return v.String(), nil
	case []byte:
		return string(v), nil
	default:
		return nil, fmt.Errorf("%w: column %s cannot store %T as text", ErrUnsupportedValue, colName, value)
	}
}
