package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable([]Column{
		{Name: "Customer ID", Kind: KindInt},
		{Name: "Category", Kind: KindString},
		{Name: "Review Rating", Kind: KindFloat},
	})
	require.NoError(t, err)

	tbl.AppendRow(Row{"Customer ID": int64(1), "Category": "Shoes", "Review Rating": 3.5})
	tbl.AppendRow(Row{"Customer ID": int64(2), "Category": "Hats"})
	return tbl
}

func TestNewTableRejectsDuplicateColumns(t *testing.T) {
	_, err := NewTable([]Column{{Name: "a"}, {Name: "a"}})
	require.ErrorIs(t, err, ErrDuplicateColumn)
}

func TestRenameColumnMovesValues(t *testing.T) {
	tbl := newTestTable(t)

	require.NoError(t, tbl.RenameColumn("Review Rating", "review_rating"))
	require.Equal(t, []string{"Customer ID", "Category", "review_rating"}, tbl.Names())
	require.Equal(t, 3.5, tbl.Rows[0]["review_rating"])
	require.NotContains(t, tbl.Rows[0], "Review Rating")
	require.NotContains(t, tbl.Rows[1], "review_rating")

	err := tbl.RenameColumn("Category", "review_rating")
	require.ErrorIs(t, err, ErrDuplicateColumn)

	err = tbl.RenameColumn("missing", "other")
	require.ErrorIs(t, err, ErrColumnNotFound)
}

func TestDropColumnReindexes(t *testing.T) {
	tbl := newTestTable(t)

	require.NoError(t, tbl.DropColumn("Category"))
	require.Equal(t, []string{"Customer ID", "Review Rating"}, tbl.Names())

	col, ok := tbl.Column("Review Rating")
	require.True(t, ok)
	require.Equal(t, KindFloat, col.Kind)
	require.NotContains(t, tbl.Rows[0], "Category")

	require.ErrorIs(t, tbl.DropColumn("Category"), ErrColumnNotFound)
}

func TestAddAndSetColumn(t *testing.T) {
	tbl := newTestTable(t)

	err := tbl.AddColumn(Column{Name: "region", Kind: KindString}, []interface{}{"west"})
	require.Error(t, err)

	require.NoError(t, tbl.AddColumn(Column{Name: "region", Kind: KindString}, []interface{}{"west", nil}))
	require.Equal(t, "west", tbl.Rows[0]["region"])
	require.NotContains(t, tbl.Rows[1], "region")

	require.NoError(t, tbl.SetColumn(Column{Name: "region", Kind: KindString}, []interface{}{nil, "south"}))
	require.NotContains(t, tbl.Rows[0], "region")
	require.Equal(t, "south", tbl.Rows[1]["region"])

	values, err := tbl.Values("region")
	require.NoError(t, err)
	require.Equal(t, []interface{}{nil, "south"}, values)
}

func TestFingerprintIsStableAndContentSensitive(t *testing.T) {
	a := newTestTable(t)
	b := newTestTable(t)
	require.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Rows[1]["Review Rating"] = 4.0
	require.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	c := newTestTable(t)
	c.Rows[0]["Customer ID"] = "1"
	require.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestDomainCategories(t *testing.T) {
	d := ObservedDomain([]string{"west", "south", "west", "midwest"})
	require.Equal(t, []string{"midwest", "south", "west"}, d.Levels())
	require.False(t, d.Ordered())
	require.Equal(t, 7, d.MaxLevelLength())

	c, ok := d.Category("south")
	require.True(t, ok)
	require.Equal(t, 1, c.Code())
	require.Equal(t, "south", c.String())

	_, ok = d.Category("atlantis")
	require.False(t, ok)

	_, err := NewDomain([]string{"a", "a"}, true)
	require.Error(t, err)
}

func TestIsMissing(t *testing.T) {
	require.True(t, IsMissing(nil))
	require.False(t, IsMissing(""))
	require.False(t, IsMissing(0.0))
	require.False(t, IsMissing(int64(0)))
}

func TestRenameAllSwapsNames(t *testing.T) {
	tbl, err := NewTable([]Column{{Name: "a"}, {Name: "b"}})
	require.NoError(t, err)
	tbl.AppendRow(Row{"a": "first", "b": "second"})

	swap := map[string]string{"a": "b", "b": "a"}
	renames, err := tbl.RenameAll(func(name string) string { return swap[name] })
	require.NoError(t, err)
	require.Equal(t, swap, renames)
	require.Equal(t, []string{"b", "a"}, tbl.Names())
	require.Equal(t, Row{"b": "first", "a": "second"}, tbl.Rows[0])

	_, err = tbl.RenameAll(func(string) string { return "same" })
	require.ErrorIs(t, err, ErrDuplicateColumn)
	require.Equal(t, []string{"b", "a"}, tbl.Names())
}
