package project

import (
	"bytes"
	"encoding/json"
	"testing"

	duckdialect "github.com/leapstack-labs/olistdw/pkg/adapters/duckdb/dialect"
	"github.com/leapstack-labs/olistdw/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestManifest(t *testing.T) {
	cat := olist(t)

	man, err := cat.Manifest(core.SchemaConfig{}, nil)
	require.NoError(t, err)

	assert.Equal(t, ManifestVersion, man.Version)
	assert.Equal(t, core.DefaultSchemas(), man.Schemas)
	assert.Len(t, man.Sources, 11)
	require.Len(t, man.Nodes, 15)

	pos := make(map[string]int)
	for i, n := range man.Nodes {
		pos[n.Name] = i
		assert.Empty(t, n.SQL, "no dialect, no SQL")
	}
	for _, n := range man.Nodes {
		for _, up := range n.Upstream {
			assert.Less(t, pos[up], pos[n.Name], "%s listed before %s", up, n.Name)
		}
	}

	orders := man.Nodes[pos[StgOrders]]
	assert.Equal(t, "data_staging.stg_orders", orders.Table)
	assert.Equal(t, "ecommerce_data.olist_orders", orders.Source)
	assert.Equal(t, []string{}, orders.Upstream)
	assert.Equal(t, ManifestColumn{
		Name: "order_approved_at",
		Type: core.TypeTimestamp,
		Expr: "SAFE.PARSE_TIMESTAMP('%Y-%m-%d %H:%M:%S', order_approved_at)",
		Safe: true,
	}, orders.Columns[4])

	summary := man.Nodes[pos[OrderSummary]]
	assert.Equal(t, "data_target.order_summary", summary.Table)
	assert.Equal(t, "stg_order_payments.payment_value", summary.Columns[3].Expr)
}

func TestManifest_WithDialect(t *testing.T) {
	cat := olist(t)

	man, err := cat.Manifest(core.SchemaConfig{}, duckdialect.DuckDB)
	require.NoError(t, err)
	assert.Equal(t, "duckdb", man.Dialect)
	for _, n := range man.Nodes {
		assert.NotEmpty(t, n.SQL, n.Name)
	}
}

func TestWriteManifest(t *testing.T) {
	cat := olist(t)
	man, err := cat.Manifest(core.SchemaConfig{}, nil)
	require.NoError(t, err)

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteManifest(&buf, man, "json"))

		var decoded Manifest
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Len(t, decoded.Nodes, len(man.Nodes))
		assert.Equal(t, man.Nodes[0].Name, decoded.Nodes[0].Name)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteManifest(&buf, man, "yaml"))

		var decoded map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, 1, decoded["version"])
		assert.Contains(t, buf.String(), "write_mode: full_replace")
	})

	t.Run("unknown", func(t *testing.T) {
		err := WriteManifest(&bytes.Buffer{}, man, "toml")
		require.Error(t, err)
	})
}
