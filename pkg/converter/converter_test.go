package converter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/David-Botos/customer-ingress/pkg/model"
)

func categoryColumn(t *testing.T, name string, levels ...string) model.Column {
	t.Helper()
	domain, err := model.NewDomain(levels, false)
	require.NoError(t, err)
	return model.Column{Name: name, Kind: model.KindCategory, Domain: domain}
}

func TestMapKind(t *testing.T) {
	c := NewTypeConverter(zaptest.NewLogger(t))
	season := categoryColumn(t, "season", "fall", "spring")

	cases := []struct {
		col     model.Column
		dialect Dialect
		want    string
	}{
		{model.Column{Kind: model.KindInt}, DialectPostgres, "BIGINT"},
		{model.Column{Kind: model.KindFloat}, DialectPostgres, "DOUBLE PRECISION"},
		{model.Column{Kind: model.KindString}, DialectPostgres, "TEXT"},
		{season, DialectPostgres, "TEXT"},
		{model.Column{Kind: model.KindInt}, DialectSQLite, "INTEGER"},
		{model.Column{Kind: model.KindFloat}, DialectSQLite, "REAL"},
		{season, DialectSQLite, "TEXT"},
	}
	for _, tc := range cases {
		got, err := c.MapKind(tc.col, tc.dialect)
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "%s %s", tc.dialect, tc.col.Kind)
	}

	_, err := c.MapKind(model.Column{Kind: model.KindInt}, Dialect("oracle"))
	require.Error(t, err)
}

func TestMapKindOptimizesCategories(t *testing.T) {
	c := NewTypeConverterWithConfig(zaptest.NewLogger(t), TypeConverterConfig{MaxVarcharLength: 1000, OptimizeStorage: true})

	got, err := c.MapKind(categoryColumn(t, "season", "fall", "spring"), DialectPostgres)
	require.NoError(t, err)
	require.Equal(t, "VARCHAR(6)", got)

	require.Equal(t, "VARCHAR(100)", c.handleVarcharType(51))
	require.Equal(t, "VARCHAR(255)", c.handleVarcharType(200))
	require.Equal(t, "VARCHAR(1000)", c.handleVarcharType(256))
	require.Equal(t, "TEXT", c.handleVarcharType(1001))
	require.Equal(t, "VARCHAR(1)", c.handleVarcharType(0))
}

func TestCreateTableStatement(t *testing.T) {
	c := NewTypeConverter(nil)
	tbl, err := model.NewTable([]model.Column{
		{Name: "customer_id", Kind: model.KindInt},
		{Name: "review_rating", Kind: model.KindFloat},
		categoryColumn(t, "age_group", "adult"),
	})
	require.NoError(t, err)

	metadata, err := c.BuildMetadata(tbl, "customer", DialectSQLite)
	require.NoError(t, err)
	require.Equal(t, []string{"customer_id", "review_rating", "age_group"}, metadata.ColumnNames())

	require.Equal(t,
		"CREATE TABLE \"customer\" (\n  \"customer_id\" INTEGER NULL,\n  \"review_rating\" REAL NULL,\n  \"age_group\" TEXT NULL\n)",
		c.CreateTableStatement(metadata, "customer"))
}

func TestInsertStatement(t *testing.T) {
	require.Equal(t,
		`INSERT INTO "customer" ("a", "b") VALUES (?, ?), (?, ?)`,
		InsertStatement("customer", []string{"a", "b"}, 2))
	require.Equal(t, `"we""ird"`, QuoteIdentifier(`we"ird`))
}

func TestConvertValue(t *testing.T) {
	c := NewTypeConverter(nil)
	domain, err := model.NewDomain([]string{"west"}, false)
	require.NoError(t, err)
	west, _ := domain.Category("west")

	intCol := model.ColumnMetadata{Name: "age", Kind: model.KindInt}
	floatCol := model.ColumnMetadata{Name: "rating", Kind: model.KindFloat}
	textCol := model.ColumnMetadata{Name: "region", Kind: model.KindCategory}

	for _, tc := range []struct {
		value interface{}
		col   model.ColumnMetadata
		want  interface{}
	}{
		{int64(42), intCol, int64(42)},
		{3.0, intCol, int64(3)},
		{nil, intCol, nil},
		{math.NaN(), floatCol, nil},
		{int64(4), floatCol, 4.0},
		{west, textCol, "west"},
		{"south", textCol, "south"},
	} {
		got, err := c.ConvertValue(tc.value, tc.col)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}

	_, err = c.ConvertValue(3.5, intCol)
	require.ErrorIs(t, err, ErrUnsupportedValue)
	_, err = c.ConvertValue(true, textCol)
	require.ErrorIs(t, err, ErrUnsupportedValue)
}
