package warehouse

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/olistdw/internal/project"
	"github.com/leapstack-labs/olistdw/internal/testutil"
	"github.com/leapstack-labs/olistdw/pkg/adapter"
	duckdbdialect "github.com/leapstack-labs/olistdw/pkg/adapters/duckdb/dialect"
	pgdialect "github.com/leapstack-labs/olistdw/pkg/adapters/postgres/dialect"
	"github.com/leapstack-labs/olistdw/pkg/core"
	"github.com/leapstack-labs/olistdw/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAdapter is an adapter over a sqlmock connection.
type mockAdapter struct {
	adapter.BaseSQLAdapter
	d     *dialect.Dialect
	loads []string
}

func (m *mockAdapter) Connect(context.Context, adapter.Config) error { return nil }

func (m *mockAdapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return m.GetTableMetadataCommon(ctx, table, m.d)
}

func (m *mockAdapter) LoadCSV(_ context.Context, table, _ string) error {
	m.loads = append(m.loads, table)
	return nil
}

func (m *mockAdapter) Dialect() *dialect.Dialect { return m.d }

func newSQL(t *testing.T, d *dialect.Dialect) (*SQL, *mockAdapter, sqlmock.Sqlmock, *project.Catalog) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cat, err := project.Olist("")
	require.NoError(t, err)

	a := &mockAdapter{BaseSQLAdapter: adapter.BaseSQLAdapter{DB: db}, d: d}
	return NewSQL(d.Name, a, core.SchemaConfig{}, cat, testutil.NewTestLogger(t)), a, mock, cat
}

func q(s string) string { return regexp.QuoteMeta(s) }

func countRows(n int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestSQL_Prepare(t *testing.T) {
	w, _, mock, _ := newSQL(t, duckdbdialect.DuckDB)

	for _, s := range []string{"ecommerce_data", "data_staging", "data_target"} {
		mock.ExpectExec(q("CREATE SCHEMA IF NOT EXISTS " + s)).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, w.Prepare(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_MaterializeStaging(t *testing.T) {
	w, _, mock, cat := newSQL(t, duckdbdialect.DuckDB)
	m, _ := cat.Get(project.StgOrderPayments)

	mock.ExpectQuery(q("SELECT COUNT(*) FROM ecommerce_data.olist_order_payments")).WillReturnRows(countRows(3))
	mock.ExpectBegin()
	mock.ExpectExec(q("CREATE OR REPLACE TABLE data_staging.stg_order_payments AS")).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()
	mock.ExpectQuery(q("SELECT COUNT(*) FROM data_staging.stg_order_payments")).WillReturnRows(countRows(3))

	res, err := w.Materialize(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Rows)
	assert.Equal(t, map[string]int64{project.SourceOrderPayments: 3}, res.Inputs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_MaterializeTargetDropCreate(t *testing.T) {
	w, _, mock, cat := newSQL(t, pgdialect.Postgres)
	m, _ := cat.Get(project.DimProducts)

	mock.ExpectQuery(q("SELECT COUNT(*) FROM data_staging.stg_products")).WillReturnRows(countRows(3))
	mock.ExpectQuery(q("SELECT COUNT(*) FROM data_staging.stg_product_category_name")).WillReturnRows(countRows(0))
	mock.ExpectBegin()
	mock.ExpectExec(q("DROP TABLE IF EXISTS data_target.dim_products")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("CREATE TABLE data_target.dim_products AS")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery(q("SELECT COUNT(*) FROM data_target.dim_products")).WillReturnRows(countRows(0))

	res, err := w.Materialize(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Rows)
	assert.Equal(t, []string{project.StgProductCategoryName}, res.EmptyInputs())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_MaterializeFailureRollsBack(t *testing.T) {
	w, _, mock, cat := newSQL(t, duckdbdialect.DuckDB)
	m, _ := cat.Get(project.StgOrderItems)

	mock.ExpectQuery(q("SELECT COUNT(*) FROM ecommerce_data.olist_order_items")).WillReturnRows(countRows(2))
	mock.ExpectBegin()
	mock.ExpectExec(q("CREATE OR REPLACE TABLE data_staging.stg_order_items AS")).
		WillReturnError(errors.New("Conversion Error: Could not convert string 'ten' to DECIMAL(38,18)"))
	mock.ExpectRollback()

	_, err := w.Materialize(context.Background(), m)
	require.Error(t, err)

	var stmtErr *StatementError
	require.True(t, errors.As(err, &stmtErr))
	assert.Equal(t, "CREATE OR REPLACE TABLE data_staging.stg_order_items AS", stmtErr.Expr())
	assert.Contains(t, err.Error(), "Could not convert string 'ten'")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_MissingInputLeavesTableAlone(t *testing.T) {
	w, _, mock, cat := newSQL(t, duckdbdialect.DuckDB)
	m, _ := cat.Get(project.DimReviews)

	mock.ExpectQuery(q("SELECT COUNT(*) FROM data_staging.stg_order_reviews")).
		WillReturnError(errors.New("Catalog Error: Table with name stg_order_reviews does not exist"))

	_, err := w.Materialize(context.Background(), m)
	require.ErrorIs(t, err, ErrNotMaterialized)
	assert.Contains(t, err.Error(), "data_staging.stg_order_reviews")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_Preview(t *testing.T) {
	w, _, mock, cat := newSQL(t, duckdbdialect.DuckDB)
	m, _ := cat.Get(project.DimProducts)

	mock.ExpectQuery(q("SELECT * FROM data_target.dim_products LIMIT 2")).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "product_category_name_english"}).
			AddRow("p1", "health_beauty").
			AddRow("p2", nil))

	out, err := w.Preview(context.Background(), m, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"product_id", "product_category_name_english"}, out.Columns)
	assert.Equal(t, [][]any{{"p1", "health_beauty"}, {"p2", nil}}, out.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_LoadSource(t *testing.T) {
	w, a, _, _ := newSQL(t, duckdbdialect.DuckDB)

	require.NoError(t, w.LoadSource(context.Background(), project.SourceOrders, "seeds/olist_orders.csv"))
	assert.Equal(t, []string{"ecommerce_data.olist_orders"}, a.loads)
	assert.Equal(t, "duckdb", w.Name())
}

func TestOpen_Memory(t *testing.T) {
	cat, err := project.Olist("")
	require.NoError(t, err)

	w, err := Open(context.Background(), core.TargetConfig{Type: MemoryType}, core.SchemaConfig{}, cat, nil)
	require.NoError(t, err)
	assert.Equal(t, MemoryType, w.Name())
	assert.NoError(t, w.Close())
}

func TestOpen_UnknownType(t *testing.T) {
	cat, err := project.Olist("")
	require.NoError(t, err)

	_, err = Open(context.Background(), core.TargetConfig{Type: "oracle"}, core.SchemaConfig{}, cat, nil)
	require.Error(t, err)

	var unknown *adapter.UnknownAdapterError
	assert.True(t, errors.As(err, &unknown))
}

func TestResult(t *testing.T) {
	r := Result{Rows: 0, Inputs: map[string]int64{"b": 0, "a": 0, "c": 5}}
	assert.Equal(t, []string{"a", "b"}, r.EmptyInputs())
	assert.Equal(t, int64(5), r.InputRows())
	assert.Empty(t, Result{}.EmptyInputs())
}
