package dialect

import (
	"testing"

	"github.com/leapstack-labs/olistdw/pkg/core"
	"github.com/leapstack-labs/olistdw/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_Registered(t *testing.T) {
	d, ok := dialect.Get("postgres")
	require.True(t, ok)
	assert.Same(t, Postgres, d)
}

func TestPostgres_Casts(t *testing.T) {
	assert.Equal(t, "olistdw_safe_parse_timestamp(won_date)", Postgres.CastExpr("won_date", core.TypeTimestamp))
	assert.Equal(t, "CAST(price AS NUMERIC)", Postgres.CastExpr("price", core.TypeNumeric))
	assert.Equal(t, "CAST(seller_id AS TEXT)", Postgres.CastExpr("seller_id", core.TypeString))
	assert.Equal(t, "$3", Postgres.FormatPlaceholder(3))
}

func TestPostgres_SetupInstallsSafeParse(t *testing.T) {
	stmts := Postgres.SetupStatements()
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE OR REPLACE FUNCTION olistdw_safe_parse_timestamp")
	assert.Contains(t, stmts[0], "EXCEPTION WHEN others THEN")
}

func TestPostgres_Replace(t *testing.T) {
	stmts := Postgres.ReplaceTableStmts(`data_staging."order"`, "SELECT 1")
	assert.Equal(t, []string{
		`DROP TABLE IF EXISTS data_staging."order"`,
		"CREATE TABLE data_staging.\"order\" AS\nSELECT 1",
	}, stmts)
}
