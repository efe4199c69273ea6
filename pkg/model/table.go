// pkg/model/table.go
package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/zeebo/xxh3"
)

var (
	// ErrColumnNotFound is returned when an operation names a column the table does not have
	ErrColumnNotFound = errors.New("column not found")
	// ErrDuplicateColumn is returned when a column name would appear twice
	ErrDuplicateColumn = errors.New("duplicate column")
)

// Kind is the declared semantic type of a column
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindCategory
)

// String returns a string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindCategory:
		return "category"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Column describes a single table column
type Column struct {
	Name   string
	Kind   Kind
	Domain *Domain // Only set for KindCategory
}

// Row maps a column name to its value. A nil or absent value is missing.
//
// Values are stored as string, int64, float64 or Category depending on the column kind.
type Row map[string]interface{}

// Table is an in-memory ordered collection of rows with ordered, uniquely named columns
type Table struct {
	columns []Column
	index   map[string]int
	Rows    []Row
}

// NewTable creates an empty table with the given columns
func NewTable(columns []Column) (*Table, error) {
	t := &Table{
		columns: make([]Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}

	for _, col := range columns {
		if _, exists := t.index[col.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, col.Name)
		}
		t.index[col.Name] = len(t.columns)
		t.columns = append(t.columns, col)
	}

	return t, nil
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Columns returns a copy of the column definitions in order
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Names returns the column names in order
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name
	}
	return names
}

// Column looks up a column by exact name
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// HasColumn reports whether the named column exists
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// RequireColumns returns ErrColumnNotFound for the first name the table lacks
func (t *Table) RequireColumns(names ...string) error {
	for _, name := range names {
		if !t.HasColumn(name) {
			return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
		}
	}
	return nil
}

// AppendRow adds a row to the end of the table
func (t *Table) AppendRow(row Row) {
	t.Rows = append(t.Rows, row)
}

// Values returns the values of a column in row order
func (t *Table) Values(name string) ([]interface{}, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}

	values := make([]interface{}, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[name]
	}
	return values, nil
}

// AddColumn appends a new column populated from values, one per row
func (t *Table) AddColumn(col Column, values []interface{}) error {
	if t.HasColumn(col.Name) {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, col.Name)
	}
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values for %d rows", col.Name, len(values), len(t.Rows))
	}

	t.index[col.Name] = len(t.columns)
	t.columns = append(t.columns, col)

	for i, row := range t.Rows {
		if values[i] != nil {
			row[col.Name] = values[i]
		}
	}
	return nil
}

// SetColumn replaces the definition and values of an existing column in place
func (t *Table) SetColumn(col Column, values []interface{}) error {
	i, ok := t.index[col.Name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, col.Name)
	}
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values for %d rows", col.Name, len(values), len(t.Rows))
	}

	t.columns[i] = col
	for j, row := range t.Rows {
		if values[j] == nil {
			delete(row, col.Name)
			continue
		}
		row[col.Name] = values[j]
	}
	return nil
}

// DropColumn removes a column and its values
func (t *Table) DropColumn(name string) error {
	i, ok := t.index[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}

	t.columns = append(t.columns[:i], t.columns[i+1:]...)
	t.reindex()

	for _, row := range t.Rows {
		delete(row, name)
	}
	return nil
}

// RenameColumn renames a column, keeping its position
func (t *Table) RenameColumn(oldName, newName string) error {
	if oldName == newName {
		return nil
	}
	i, ok := t.index[oldName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, oldName)
	}
	if t.HasColumn(newName) {
		return fmt.Errorf("%w: renaming %q to %q", ErrDuplicateColumn, oldName, newName)
	}

	t.columns[i].Name = newName
	t.reindex()

	for _, row := range t.Rows {
		if v, ok := row[oldName]; ok {
			delete(row, oldName)
			row[newName] = v
		}
	}
	return nil
}

// RenameAll renames every column through fn at once, so a column may take a name
// another column is giving up. It fails without changes if the new names collide.
func (t *Table) RenameAll(fn func(string) string) (map[string]string, error) {
	renames := make(map[string]string)
	seen := make(map[string]string, len(t.columns))
	for _, col := range t.columns {
		newName := fn(col.Name)
		if prev, exists := seen[newName]; exists {
			return nil, fmt.Errorf("%w: %q and %q both become %q", ErrDuplicateColumn, prev, col.Name, newName)
		}
		seen[newName] = col.Name
		if newName != col.Name {
			renames[col.Name] = newName
		}
	}
	if len(renames) == 0 {
		return renames, nil
	}

	for i, col := range t.columns {
		if newName, ok := renames[col.Name]; ok {
			t.columns[i].Name = newName
		}
	}
	t.reindex()

	for i, row := range t.Rows {
		renamed := make(Row, len(row))
		for name, v := range row {
			if newName, ok := renames[name]; ok {
				renamed[newName] = v
				continue
			}
			renamed[name] = v
		}
		t.Rows[i] = renamed
	}
	return renames, nil
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.columns))
	for i, col := range t.columns {
		t.index[col.Name] = i
	}
}

// Fingerprint hashes the column layout and every value in row order.
// Two tables with identical content hash to the same value.
func (t *Table) Fingerprint() uint64 {
	h := xxh3.New()

	for _, col := range t.columns {
		_, _ = h.WriteString(col.Name)
		_, _ = h.WriteString("\x1f")
		_, _ = h.WriteString(col.Kind.String())
		_, _ = h.WriteString("\x1e")
	}

	for _, row := range t.Rows {
		for _, col := range t.columns {
			_, _ = h.WriteString(encodeValue(row[col.Name]))
			_, _ = h.WriteString("\x1f")
		}
		_, _ = h.WriteString("\x1e")
	}

	return h.Sum64()
}

// encodeValue renders a value with a type tag so that "1" and 1 differ
func encodeValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "\x00"
	case string:
		return "s" + val
	case int64:
		return "i" + strconv.FormatInt(val, 10)
	case float64:
		if math.IsNaN(val) {
			return "\x00"
		}
		return "f" + strconv.FormatFloat(val, 'g', -1, 64)
	case Category:
		return "c" + val.String()
	default:
		return fmt.Sprintf("?%v", val)
	}
}

// IsMissing reports whether a value counts as missing
func IsMissing(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(val)
	default:
		return false
	}
}
