// pkg/source/reader.go
package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/David-Botos/customer-ingress/pkg/model"
)

var (
	// ErrSourceNotFound is returned when the source path does not resolve to a file
	ErrSourceNotFound = errors.New("source not found")
	// ErrSourceParse is returned when the source is not valid delimited text
	ErrSourceParse = errors.New("source parse error")
)

// naValues are read as missing, the same markers pandas treats as NA by default
var naValues = []string{"", "NA", "N/A", "n/a", "NaN", "nan", "null", "NULL", "None", "<NA>"}

// Reader loads a delimited flat file into a model.Table
type Reader struct {
	logger    *zap.Logger
	delimiter rune
}

// NewReader creates a Reader for files separated by delimiter
func NewReader(logger *zap.Logger, delimiter rune) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if delimiter == 0 {
		delimiter = ','
	}
	return &Reader{
		logger:    logger,
		delimiter: delimiter,
	}
}

// ReadFile opens path and reads it as a table
func (r *Reader) ReadFile(ctx context.Context, path string) (*model.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceNotFound, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceNotFound, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceNotFound, path, err)
	}
	defer f.Close()

	table, err := r.Read(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	r.logger.Info("Loaded source file",
		zap.String("path", path),
		zap.Int("rows", table.Len()),
		zap.Int("columns", len(table.Names())))

	return table, nil
}

// Read parses delimited text with a header row. Column kinds are inferred from content:
// int, float, otherwise string.
func (r *Reader) Read(ctx context.Context, in io.Reader) (*model.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// A leading UTF-8 byte-order mark would otherwise stick to the first header name
	data, err := io.ReadAll(transform.NewReader(in, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceParse, err)
	}

	if header, ok := headerOnly(data, r.delimiter); ok {
		return emptyTable(header)
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(naValues),
		dataframe.WithDelimiter(r.delimiter),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceParse, df.Err)
	}

	return fromDataFrame(df)
}

// headerOnly reports whether data holds a header row and nothing else.
// gota refuses such input as an empty DataFrame.
func headerOnly(data []byte, delimiter rune) ([]string, bool) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, false
	}
	if _, err := cr.Read(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return header, true
}

// emptyTable builds a zero-row table; with no content to infer from every column is text
func emptyTable(header []string) (*model.Table, error) {
	columns := make([]model.Column, len(header))
	for i, name := range header {
		columns[i] = model.Column{Name: name, Kind: model.KindString}
	}

	table, err := model.NewTable(columns)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceParse, err)
	}
	return table, nil
}

// fromDataFrame copies a gota frame into a row-oriented model.Table
func fromDataFrame(df dataframe.DataFrame) (*model.Table, error) {
	names := df.Names()
	types := df.Types()

	columns := make([]model.Column, len(names))
	for i, name := range names {
		columns[i] = model.Column{Name: name, Kind: kindFor(types[i])}
	}

	table, err := model.NewTable(columns)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceParse, err)
	}

	rows := make([]model.Row, df.Nrow())
	for i := range rows {
		rows[i] = make(model.Row, len(names))
	}

	for i, name := range names {
		col := df.Col(name)
		for j := 0; j < col.Len(); j++ {
			elem := col.Elem(j)
			if elem.IsNA() {
				continue
			}

			switch types[i] {
			case series.Int:
				v, err := elem.Int()
				if err != nil {
					continue
				}
				rows[j][name] = int64(v)
			case series.Float:
				rows[j][name] = elem.Float()
			default:
				rows[j][name] = elem.String()
			}
		}
	}

	for _, row := range rows {
		table.AppendRow(row)
	}
	return table, nil
}

// kindFor maps gota's detected type to a column kind; booleans stay text
func kindFor(t series.Type) model.Kind {
	switch t {
	case series.Int:
		return model.KindInt
	case series.Float:
		return model.KindFloat
	default:
		return model.KindString
	}
}
