package postgres

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/leapstack-labs/olistdw/pkg/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
	}{
		{
			name: "basic connection",
			config: adapter.Config{
				Host:     "localhost",
				Port:     5432,
				Database: "olist",
				Username: "etl",
				Password: "pass",
			},
			expected: "host=localhost port=5432 dbname=olist sslmode=disable user=etl password=pass",
		},
		{
			name: "sslmode and search path",
			config: adapter.Config{
				Host:     "warehouse.internal",
				Database: "olist",
				Username: "etl",
				Schema:   "data_target",
				Options:  map[string]string{"sslmode": "require"},
			},
			expected: "host=warehouse.internal port=5432 dbname=olist sslmode=require user=etl search_path=data_target",
		},
		{
			name:     "defaults",
			config:   adapter.Config{Database: "olist"},
			expected: "host=localhost port=5432 dbname=olist sslmode=disable",
		},
		{
			name: "quoted password",
			config: adapter.Config{
				Database: "olist",
				Password: `it's a secret`,
			},
			expected: `host=localhost port=5432 dbname=olist sslmode=disable password='it\'s a secret'`,
		},
		{
			name:     "empty database is quoted",
			config:   adapter.Config{Port: 6543},
			expected: "host=localhost port=6543 dbname='' sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config))
		})
	}
}

func TestCSVSource(t *testing.T) {
	data := "order_id,order_status\nA1,delivered\nA2,\n"
	reader := csv.NewReader(strings.NewReader(data))
	_, err := reader.Read()
	require.NoError(t, err)

	src := &csvSource{reader: reader, width: 2}

	require.True(t, src.Next())
	vals, err := src.Values()
	require.NoError(t, err)
	assert.Equal(t, []any{"A1", "delivered"}, vals)

	require.True(t, src.Next())
	vals, err = src.Values()
	require.NoError(t, err)
	assert.Equal(t, []any{"A2", nil}, vals, "empty field loads as NULL")

	assert.False(t, src.Next())
	assert.NoError(t, src.Err())
}

func TestReadHeader(t *testing.T) {
	t.Run("byte order mark", func(t *testing.T) {
		headers, err := readHeader(csv.NewReader(strings.NewReader("\ufeffseller_id,seller_state\ns1,SP\n")))
		require.NoError(t, err)
		assert.Equal(t, []string{"seller_id", "seller_state"}, headers)
	})

	t.Run("plain", func(t *testing.T) {
		headers, err := readHeader(csv.NewReader(strings.NewReader("seller_id,seller_state\n")))
		require.NoError(t, err)
		assert.Equal(t, []string{"seller_id", "seller_state"}, headers)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := readHeader(csv.NewReader(strings.NewReader("")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read CSV header")
	})
}

func TestCSVSource_WidthMismatch(t *testing.T) {
	reader := csv.NewReader(strings.NewReader("A1,delivered,extra\n"))
	reader.FieldsPerRecord = -1
	src := &csvSource{reader: reader, width: 2}

	assert.False(t, src.Next())
	require.Error(t, src.Err())
	assert.Contains(t, src.Err().Error(), "3 fields")
}

func TestNew(t *testing.T) {
	adp := New(nil)

	assert.Nil(t, adp.DB, "DB should be nil before Connect")
	assert.False(t, adp.IsConnected())
	assert.Equal(t, "postgres", adp.Dialect().Name)
}

func TestAdapter_NotConnected(t *testing.T) {
	tests := []struct {
		name      string
		operation func(ctx context.Context, adp *Adapter) error
	}{
		{
			name: "exec",
			operation: func(ctx context.Context, adp *Adapter) error {
				return adp.Exec(ctx, "SELECT 1")
			},
		},
		{
			name: "exec tx",
			operation: func(ctx context.Context, adp *Adapter) error {
				return adp.ExecTx(ctx, "DROP TABLE IF EXISTS t", "CREATE TABLE t AS SELECT 1")
			},
		},
		{
			name: "metadata",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.GetTableMetadata(ctx, "data_staging.stg_orders")
				return err
			},
		},
		{
			name: "load csv",
			operation: func(ctx context.Context, adp *Adapter) error {
				return adp.LoadCSV(ctx, "ecommerce_data.olist_orders_dataset", "olist_orders_dataset.csv")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.operation(context.Background(), New(nil))
			assert.ErrorIs(t, err, adapter.ErrNotConnected)
		})
	}
}

func TestAdapter_Registry(t *testing.T) {
	factory, ok := adapter.Get("postgres")
	require.True(t, ok, "postgres adapter should be registered")

	pg, ok := factory(nil).(*Adapter)
	require.True(t, ok, "factory should return *Adapter")
	assert.Equal(t, "postgres", pg.Dialect().Name)
}

func TestAdapter_Close(t *testing.T) {
	adp := New(nil)
	assert.NoError(t, adp.Close())
}
