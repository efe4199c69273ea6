package transfer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/David-Botos/customer-ingress/pkg/config"
	"github.com/David-Botos/customer-ingress/pkg/connector"
	"github.com/David-Botos/customer-ingress/pkg/converter"
	"github.com/David-Botos/customer-ingress/pkg/model"
)

func sqliteSink(t *testing.T) (*connector.ConnectorFactory, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sink.db")
	cfg := &config.Config{
		SinkDriver: config.DriverSQLite,
		SQLite:     &config.SQLiteConfig{Path: path},
	}
	return connector.NewConnectorFactory(cfg, zaptest.NewLogger(t)), path
}

func openSink(t *testing.T, path string) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestLoader(t *testing.T, provider ConnectorProvider, batchSize int) *Loader {
	t.Helper()
	return NewLoader(provider, converter.NewTypeConverter(zaptest.NewLogger(t)), LoaderConfig{
		Table:        "customer",
		Driver:       config.DriverSQLite,
		BatchSize:    batchSize,
		WriteTimeout: 30 * time.Second,
	}, zaptest.NewLogger(t))
}

func customerTable(t *testing.T, rows int) *model.Table {
	t.Helper()
	regions, err := model.NewDomain([]string{"south", "west"}, false)
	require.NoError(t, err)

	tbl, err := model.NewTable([]model.Column{
		{Name: "customer_id", Kind: model.KindInt},
		{Name: "review_rating", Kind: model.KindFloat},
		{Name: "color", Kind: model.KindString},
		{Name: "region", Kind: model.KindCategory, Domain: regions},
	})
	require.NoError(t, err)

	for i := 0; i < rows; i++ {
		row := model.Row{
			"customer_id":   int64(i + 1),
			"review_rating": 3.5,
			"color":         fmt.Sprintf("color-%d", i),
			"region":        regions.At(i % 2),
		}
		tbl.AppendRow(row)
	}
	return tbl
}

func countRows(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, fmt.Sprintf("SELECT COUNT(*) FROM %s", converter.QuoteIdentifier(table))))
	return n
}

func stagingTables(t *testing.T, db *sqlx.DB) []string {
	t.Helper()
	var names []string
	require.NoError(t, db.Select(&names, "SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE 'customer__staging_%'"))
	return names
}

type customerRecord struct {
	CustomerID   int64           `db:"customer_id"`
	ReviewRating sql.NullFloat64 `db:"review_rating"`
	Color        sql.NullString  `db:"color"`
	Region       sql.NullString  `db:"region"`
}

func TestLoadWritesTable(t *testing.T) {
	provider, path := sqliteSink(t)
	tbl := customerTable(t, 5)
	tbl.Rows[1]["review_rating"] = math.NaN()
	delete(tbl.Rows[2], "color")

	result, err := newTestLoader(t, provider, 2).Load(context.Background(), tbl)
	require.NoError(t, err)
	require.Equal(t, int64(5), result.RowsWritten)
	require.Equal(t, path, result.Database)
	require.Equal(t, 3, result.Metrics.Batches)
	require.True(t, result.Verification.RowCountMatches)
	require.True(t, result.Verification.StructureMatches)

	db := openSink(t, path)
	var records []customerRecord
	require.NoError(t, db.Select(&records, `SELECT * FROM "customer" ORDER BY customer_id`))
	require.Len(t, records, 5)

	require.Equal(t, customerRecord{
		CustomerID:   1,
		ReviewRating: sql.NullFloat64{Float64: 3.5, Valid: true},
		Color:        sql.NullString{String: "color-0", Valid: true},
		Region:       sql.NullString{String: "south", Valid: true},
	}, records[0])
	require.False(t, records[1].ReviewRating.Valid)
	require.Equal(t, "west", records[1].Region.String)
	require.False(t, records[2].Color.Valid)

	require.Empty(t, stagingTables(t, db))
}

func TestLoadReplacesExistingTable(t *testing.T) {
	provider, path := sqliteSink(t)
	db := openSink(t, path)
	_, err := db.Exec(`CREATE TABLE "customer" (legacy TEXT)`)
	require.NoError(t, err)
	for i := 0; i < 7; i++ {
		_, err = db.Exec(`INSERT INTO "customer" (legacy) VALUES ('x')`)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	_, err = newTestLoader(t, provider, 100).Load(context.Background(), customerTable(t, 3))
	require.NoError(t, err)

	db = openSink(t, path)
	require.Equal(t, 3, countRows(t, db, "customer"))

	rows, err := db.Queryx(`SELECT * FROM "customer" LIMIT 0`)
	require.NoError(t, err)
	columns, err := rows.Columns()
	require.NoError(t, err)
	require.NoError(t, rows.Close())
	require.Equal(t, []string{"customer_id", "review_rating", "color", "region"}, columns)
}

func TestLoadRollsBackOnFailure(t *testing.T) {
	provider, path := sqliteSink(t)
	_, err := newTestLoader(t, provider, 100).Load(context.Background(), customerTable(t, 4))
	require.NoError(t, err)

	// First batch goes in, second fails to convert
	tbl := customerTable(t, 3)
	tbl.Rows[1]["customer_id"] = struct{}{}

	_, err = newTestLoader(t, provider, 1).Load(context.Background(), tbl)
	var writeErr *SinkWriteError
	require.True(t, errors.As(err, &writeErr), "got %v", err)
	require.Equal(t, "customer", writeErr.Table)
	require.False(t, writeErr.Committed)
	require.Contains(t, err.Error(), "previous table kept")
	require.ErrorIs(t, err, converter.ErrUnsupportedValue)

	db := openSink(t, path)
	require.Equal(t, 4, countRows(t, db, "customer"))
	require.Empty(t, stagingTables(t, db))
}

func TestLoadVerificationFailureReportsCommit(t *testing.T) {
	provider, path := sqliteSink(t)
	loader := NewLoader(provider, converter.NewTypeConverter(zaptest.NewLogger(t)), LoaderConfig{
		Table:         "customer",
		Driver:        config.DriverSQLite,
		BatchSize:     10,
		WriteTimeout:  30 * time.Second,
		VerifyTimeout: 5 * time.Second,
	}, zaptest.NewLogger(t))
	require.Equal(t, 5*time.Second, loader.verifier.timeout)

	// Verification queries start past their deadline
	loader.verifier.WithTimeout(-time.Second)

	_, err := loader.Load(context.Background(), customerTable(t, 3))
	var writeErr *SinkWriteError
	require.True(t, errors.As(err, &writeErr), "got %v", err)
	require.True(t, writeErr.Committed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Contains(t, err.Error(), "was committed")

	// The replacement stays in place
	require.Equal(t, 3, countRows(t, openSink(t, path), "customer"))
	require.Equal(t, 1, loader.GetErrorSummary()[ErrorCategorySystemLevel])
}

func TestLoadEmptyTable(t *testing.T) {
	provider, path := sqliteSink(t)

	result, err := newTestLoader(t, provider, 10).Load(context.Background(), customerTable(t, 0))
	require.NoError(t, err)
	require.Equal(t, int64(0), result.RowsWritten)
	require.Equal(t, 0, countRows(t, openSink(t, path), "customer"))
}

func TestLoadCancelledContextIsConnectionError(t *testing.T) {
	provider, _ := sqliteSink(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := newTestLoader(t, provider, 10)
	_, err := loader.Load(ctx, customerTable(t, 1))

	var connErr *SinkConnectionError
	require.True(t, errors.As(err, &connErr), "got %v", err)
	require.Equal(t, config.DriverSQLite, connErr.Driver)
	require.Equal(t, 1, loader.GetErrorSummary()[ErrorCategoryConnectionLevel])
}

type failingProvider struct{ err error }

func (p failingProvider) CreateSinkConnector(context.Context) (connector.DatabaseConnector, error) {
	return nil, p.err
}

func TestLoadWrapsProviderError(t *testing.T) {
	authErr := &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}

	_, err := newTestLoader(t, failingProvider{err: authErr}, 10).Load(context.Background(), customerTable(t, 1))
	var connErr *SinkConnectionError
	require.True(t, errors.As(err, &connErr))

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	require.Equal(t, "28P01", pgErr.Code)
}

func TestCategorizeError(t *testing.T) {
	eh := NewErrorHandler(zaptest.NewLogger(t))

	cases := map[string]struct {
		err  error
		want ErrorCategory
	}{
		"nil":             {nil, ErrorCategoryNone},
		"auth":            {fmt.Errorf("open: %w", &pgconn.PgError{Code: "28P01"}), ErrorCategoryConnectionLevel},
		"connection lost": {&pgconn.PgError{Code: "08006"}, ErrorCategoryConnectionLevel},
		"unique":          {&pgconn.PgError{Code: "23505"}, ErrorCategoryValidation},
		"bad text":        {&pgconn.PgError{Code: "22P02"}, ErrorCategoryDataConversion},
		"conversion":      {fmt.Errorf("row 3: %w", converter.ErrUnsupportedValue), ErrorCategoryDataConversion},
		"deadline":        {context.DeadlineExceeded, ErrorCategorySystemLevel},
		"other":           {errors.New("no such table: x"), ErrorCategoryTableLevel},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, eh.CategorizeError(tc.err))
		})
	}
}

func TestStagingTableName(t *testing.T) {
	name := stagingTableName("customer")
	require.Regexp(t, `^customer__staging_[0-9a-f]{8}$`, name)
	require.NotEqual(t, name, stagingTableName("customer"))
}

func TestFormatting(t *testing.T) {
	require.Equal(t, "512 B", formatBytes(512))
	require.Equal(t, "2.00 KB", formatBytes(2048))
	require.Equal(t, "1m 30s", formatDuration(90*time.Second))
	require.Equal(t, "1h 0m 5s", formatDuration(time.Hour+5*time.Second))

	m := NewLoadMetrics("customer")
	m.RecordBatch(2, []interface{}{int64(1), "abcd", nil})
	m.Complete()
	require.Equal(t, int64(12), m.BytesMoved)
	require.Contains(t, m.GenerateMetricsReport(), "Rows Written:            2")
}
