package dialect

import (
	"testing"

	"github.com/leapstack-labs/olistdw/pkg/core"
	"github.com/leapstack-labs/olistdw/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuckDB_Registered(t *testing.T) {
	d, ok := dialect.Get("duckdb")
	require.True(t, ok)
	assert.Same(t, DuckDB, d)
}

func TestDuckDB_Casts(t *testing.T) {
	assert.Equal(t,
		`CASE WHEN regexp_full_match(order_approved_at, '\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}') `+
			`THEN TRY_STRPTIME(order_approved_at, '%Y-%m-%d %H:%M:%S') END`,
		DuckDB.CastExpr("order_approved_at", core.TypeTimestamp))
	assert.Equal(t,
		`CASE WHEN review_score IS NULL THEN NULL `+
			`WHEN regexp_full_match(review_score, '\s*([+-]?[0-9]+)\s*') `+
			`THEN CAST(regexp_extract(review_score, '\s*([+-]?[0-9]+)\s*', 1) AS BIGINT) `+
			`ELSE error('CAST(review_score AS BIGINT) failed for value ' || review_score) END`,
		DuckDB.CastExpr("review_score", core.TypeInteger))
	assert.Equal(t, "CAST(price AS DECIMAL(38, 18))", DuckDB.CastExpr("price", core.TypeNumeric))
	assert.Equal(t, "CAST(zip AS VARCHAR)", DuckDB.CastExpr("zip", core.TypeString))
	assert.Empty(t, DuckDB.SetupStatements())
}

func TestDuckDB_Replace(t *testing.T) {
	stmts := DuckDB.ReplaceTableStmts("data_target.dim_reviews", "SELECT 1")
	require.Len(t, stmts, 1, "CREATE OR REPLACE is atomic on its own")
	assert.Contains(t, stmts[0], "CREATE OR REPLACE TABLE data_target.dim_reviews")
}
