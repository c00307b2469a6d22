package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/olistdw/pkg/adapters/duckdb"
)

func TestVersionCommand(t *testing.T) {
	for _, tc := range []struct {
		name string
		info BuildInfo
		want []string
		not  []string
	}{
		{
			name: "release build",
			info: BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-02"},
			want: []string{"olistdw v1.2.3", "Olist warehouse", "commit abc123, built 2026-01-02"},
		},
		{
			name: "dev build without metadata",
			info: BuildInfo{Version: "dev"},
			want: []string{"olistdw vdev"},
			not:  []string{"commit"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cmd := NewVersionCommand(tc.info)
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetArgs([]string{})
			require.NoError(t, cmd.Execute())

			out := buf.String()
			for _, w := range tc.want {
				assert.Contains(t, out, w)
			}
			for _, n := range tc.not {
				assert.NotContains(t, out, n)
			}
			assert.Contains(t, out, "warehouses: ")
		})
	}
}

func TestWarehouseTypes(t *testing.T) {
	types := warehouseTypes()
	assert.Contains(t, types, "duckdb")
	assert.Contains(t, types, "memory")
	assert.IsIncreasing(t, types)
}
