package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/olistdw/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/olistdw/pkg/adapters/postgres"
)

func TestValidateTarget(t *testing.T) {
	tests := []struct {
		name      string
		target    *TargetConfig
		errSubstr string
	}{
		{name: "nil", target: nil, errSubstr: "target type is required"},
		{name: "empty type", target: &TargetConfig{}, errSubstr: "target type is required"},
		{name: "duckdb", target: &TargetConfig{Type: "duckdb"}},
		{name: "duckdb uppercase", target: &TargetConfig{Type: "DuckDB"}},
		{name: "postgres", target: &TargetConfig{Type: "postgres"}},
		{name: "memory", target: &TargetConfig{Type: "memory"}},
		{name: "mysql", target: &TargetConfig{Type: "mysql"}, errSubstr: "unknown adapter type"},
		{name: "bigquery is render-only", target: &TargetConfig{Type: "bigquery"}, errSubstr: "unknown adapter type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTarget(tt.target)
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestMergeTargetConfig(t *testing.T) {
	base := &TargetConfig{
		Type:     "postgres",
		Host:     "localhost",
		Port:     5432,
		Database: "olist",
		Options:  map[string]string{"sslmode": "disable"},
	}

	t.Run("nil override returns base", func(t *testing.T) {
		assert.Same(t, base, MergeTargetConfig(base, nil))
	})

	t.Run("nil base returns override", func(t *testing.T) {
		o := &TargetConfig{Type: "duckdb"}
		assert.Same(t, o, MergeTargetConfig(nil, o))
	})

	t.Run("override wins field by field", func(t *testing.T) {
		merged := MergeTargetConfig(base, &TargetConfig{
			Host:    "warehouse.internal",
			User:    "etl",
			Options: map[string]string{"application_name": "olistdw"},
		})
		assert.Equal(t, "postgres", merged.Type)
		assert.Equal(t, "warehouse.internal", merged.Host)
		assert.Equal(t, 5432, merged.Port)
		assert.Equal(t, "etl", merged.User)
		assert.Equal(t, "olist", merged.Database)
		assert.Equal(t, map[string]string{"sslmode": "disable", "application_name": "olistdw"}, merged.Options)
		assert.Equal(t, "localhost", base.Host, "base must not be mutated")
	})
}

func TestApplyTargetDefaults(t *testing.T) {
	pg := &TargetConfig{Type: "Postgres"}
	ApplyTargetDefaults(pg)
	assert.Equal(t, "postgres", pg.Type)
	assert.Equal(t, 5432, pg.Port)
	assert.NotEmpty(t, pg.Schema)

	mem := &TargetConfig{Type: "memory"}
	ApplyTargetDefaults(mem)
	assert.Equal(t, "main", mem.Schema)
	assert.Zero(t, mem.Port)

	ApplyTargetDefaults(nil)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("OLISTDW_TEST_SECRET", "s3cret")

	assert.Equal(t, "s3cret", expandEnvVars("${OLISTDW_TEST_SECRET}"))
	assert.Equal(t, "pw-s3cret-x", expandEnvVars("pw-${OLISTDW_TEST_SECRET}-x"))
	assert.Equal(t, "${OLISTDW_TEST_UNSET}", expandEnvVars("${OLISTDW_TEST_UNSET}"))
	assert.Equal(t, "plain", expandEnvVars("plain"))
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("", "", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, DefaultSeedsDir), cfg.SeedsDir)
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, DefaultEnv, cfg.Environment)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultThreads, cfg.Threads)
	assert.Equal(t, "ecommerce_data", cfg.Schemas.Source)
	assert.Equal(t, "data_staging", cfg.Schemas.Staging)
	assert.Equal(t, "data_target", cfg.Schemas.Target)
	require.NotNil(t, cfg.Target)
	assert.Equal(t, "duckdb", cfg.Target.Type)
	assert.Empty(t, cfg.ConfigFile)
	assert.True(t, cfg.Ephemeral())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
seeds_dir: data/olist
threads: 2
schemas:
  staging: stg
target:
  type: duckdb
  database: warehouse.duckdb
`)
	t.Chdir(t.TempDir())

	cfg, err := Load(path, "", nil)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, "data/olist"), cfg.SeedsDir)
	assert.Equal(t, 2, cfg.Threads)
	assert.Equal(t, "stg", cfg.Schemas.Staging)
	assert.Equal(t, "data_target", cfg.Schemas.Target)
	assert.Equal(t, filepath.Join(dir, "warehouse.duckdb"), cfg.Target.Database)
	assert.False(t, cfg.Ephemeral())
}

func TestLoad_FindsConfigUpward(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "threads: 7\n")
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := Load("", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Threads)
	assert.Equal(t, filepath.Join(dir, DefaultSeedsDir), cfg.SeedsDir)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
threads: 2
environment: dev
target:
  type: memory
`)
	t.Chdir(dir)
	t.Setenv("OLISTDW_THREADS", "3")
	t.Setenv("OLISTDW_SCHEMAS__TARGET", "marts")

	t.Run("env beats file", func(t *testing.T) {
		cfg, err := Load("", "", nil)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Threads)
		assert.Equal(t, "marts", cfg.Schemas.Target)
		assert.Equal(t, "memory", cfg.Target.Type)
	})

	t.Run("set flags beat env", func(t *testing.T) {
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.Int("threads", DefaultThreads, "")
		flags.String("seeds-dir", DefaultSeedsDir, "")
		flags.String("env", DefaultEnv, "")
		require.NoError(t, flags.Parse([]string{"--threads", "8", "--seeds-dir", "other"}))

		cfg, err := Load("", "", flags)
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Threads)
		assert.Equal(t, filepath.Join(dir, "other"), cfg.SeedsDir)
		assert.Equal(t, "dev", cfg.Environment, "unset flags must not override")
	})
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
target:
  type: duckdb
environments:
  prod:
    seeds_dir: /data/olist
    target:
      type: postgres
      host: db.internal
      password: ${OLISTDW_TEST_PG_PASSWORD}
`)
	t.Chdir(dir)
	t.Setenv("OLISTDW_TEST_PG_PASSWORD", "hunter2")

	cfg, err := Load("", "prod", nil)
	require.NoError(t, err)
	assert.Equal(t, "/data/olist", cfg.SeedsDir)
	assert.Equal(t, "postgres", cfg.Target.Type)
	assert.Equal(t, "db.internal", cfg.Target.Host)
	assert.Equal(t, 5432, cfg.Target.Port)
	assert.Equal(t, "hunter2", cfg.Target.Password)

	_, err = Load("", "staging", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown target environment "staging"`)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{name: "unknown target", content: "target:\n  type: oracle\n", errSubstr: "invalid target configuration"},
		{name: "zero threads", content: "threads: 0\n", errSubstr: "threads must be at least 1"},
		{name: "bad output", content: "output: xml\n", errSubstr: "invalid output format"},
		{name: "same schemas", content: "schemas:\n  staging: dw\n  target: dw\n", errSubstr: "must differ"},
		{name: "bad yaml", content: "threads: [\n", errSubstr: "error reading config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			writeConfig(t, dir, tt.content)

			_, err := Load("", "", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, FromContext(ctx))
	assert.NotNil(t, GetLogger(ctx), "missing logger falls back to a discard logger")

	cfg := &Config{Threads: 3}
	ctx = WithConfig(ctx, cfg)
	assert.Same(t, cfg, FromContext(ctx))

	var buf bytes.Buffer
	ctx = WithLogger(ctx, NewLogger(&buf, false))
	GetLogger(ctx).Info("hidden")
	GetLogger(ctx).Warn("shown", "model", "stg_orders")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "model=stg_orders")

	buf.Reset()
	NewLogger(&buf, true).Debug("debugging")
	assert.Contains(t, buf.String(), "debugging")
}
