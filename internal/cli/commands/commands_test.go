package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/olistdw/internal/cli/output"
	"github.com/leapstack-labs/olistdw/internal/cli/testutil"
	"github.com/leapstack-labs/olistdw/internal/config"
	"github.com/leapstack-labs/olistdw/internal/project"
	itestutil "github.com/leapstack-labs/olistdw/internal/testutil"
	"github.com/leapstack-labs/olistdw/internal/warehouse"

	_ "github.com/leapstack-labs/olistdw/pkg/adapters/duckdb"
)

// execute runs cmd against the project in dir, the way the root command
// would after loading its config.
func execute(t *testing.T, cmd *cobra.Command, dir, format string, args ...string) (string, error) {
	t.Helper()

	cfg, err := config.Load(filepath.Join(dir, config.ConfigFileName), "", nil)
	require.NoError(t, err)
	if format != "" {
		cfg.OutputFormat = format
	}

	var out, errOut bytes.Buffer
	cmd.SetContext(config.WithConfig(context.Background(), cfg))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return out.String(), err
}

func jsonLines(t *testing.T, s string) []output.RunEvent {
	t.Helper()
	var events []output.RunEvent
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		var ev output.RunEvent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev), "line %q", sc.Text())
		events = append(events, ev)
	}
	return events
}

func event(events []output.RunEvent, name, model string) (output.RunEvent, bool) {
	for _, ev := range events {
		if ev.Event == name && ev.Model == model {
			return ev, true
		}
	}
	return output.RunEvent{}, false
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewRunCommand(), "run", []string{"select", "downstream", "continue-on-error", "json", "seed", "watch"}},
		{NewSeedCommand(), "seed", nil},
		{NewDAGCommand(), "dag", nil},
		{NewListCommand(), "list", nil},
		{NewRenderCommand(), "render <model>", []string{"dialect"}},
		{NewShowCommand(), "show <model>", []string{"limit", "seed"}},
		{NewManifestCommand(), "manifest", []string{"format", "sql", "dialect"}},
		{NewRunsCommand(), "runs [run-id]", []string{"limit"}},
		{NewDoctorCommand(), "doctor", nil},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Long, "Long should not be empty")
			assert.NotEmpty(t, tt.cmd.Example, "Example should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}

	run := NewRunCommand()
	require.NotEmpty(t, run.Aliases)
	assert.Equal(t, "build", run.Aliases[0], "run command should have 'build' alias")
}

func TestRunCommand_Markdown(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, NewRunCommand(), dir, "")
	require.NoError(t, err)

	testutil.AssertNoANSI(t, out)
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "# Run ")
	assert.Contains(t, out, "order_summary")
	assert.Contains(t, out, "empty inputs: stg_order_reviews")
	assert.Contains(t, out, "Success: 15, Failed: 0, Skipped: 0")
}

func TestRunCommand_JSON(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, NewRunCommand(), dir, "", "--json")
	require.NoError(t, err)

	events := jsonLines(t, out)
	require.NotEmpty(t, events)
	assert.Equal(t, "run_start", events[0].Event)
	assert.Len(t, events[0].Models, 15)

	summary, ok := event(events, "model_complete", project.OrderSummary)
	require.True(t, ok)
	assert.Equal(t, "success", summary.Status)
	assert.Equal(t, int64(5), summary.Rows, "A1 fans out to 2x2 rows, A2 to one")

	reviews, ok := event(events, "model_complete", project.DimReviews)
	require.True(t, ok)
	assert.Zero(t, reviews.Rows)
	assert.Equal(t, []string{project.StgOrderReviews}, reviews.EmptyInputs)

	last := events[len(events)-1]
	assert.Equal(t, "run_complete", last.Event)
	assert.Equal(t, "completed", last.Status)
	assert.Equal(t, 15, last.Successful)
}

func TestRunCommand_FailureSkipsDependents(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	src := project.Sources("")
	for _, s := range src {
		if s.Ref.Table == project.SourceOrderItems {
			itestutil.WriteCSV(t, filepath.Join(dir, "seeds"), s.Ref.Table, s.Columns,
				[]string{"A1", "1", "P1", "S1", "2018-01-05 10:00:00", "abc", "2.00"})
		}
	}

	out, err := execute(t, NewRunCommand(), dir, "json", "--continue-on-error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), project.StgOrderItems)
	assert.Contains(t, err.Error(), `"abc"`)

	events := jsonLines(t, out)
	last := events[len(events)-1]
	assert.Equal(t, "failed", last.Status)
	assert.Equal(t, 1, last.Failed)
	assert.Equal(t, 2, last.Skipped)
	assert.Equal(t, 12, last.Successful)

	items, ok := event(events, "model_complete", project.StgOrderItems)
	require.True(t, ok)
	assert.Contains(t, items.Error, "CAST(price AS NUMERIC)")
}

func TestRunCommand_UnknownModel(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	_, err := execute(t, NewRunCommand(), dir, "", "--select", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown model "nope"`)
}

func TestSeedCommand_JSON(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, NewSeedCommand(), dir, "json")
	require.NoError(t, err)

	var seeds []output.SeedOutput
	require.NoError(t, json.Unmarshal([]byte(out), &seeds))
	require.Len(t, seeds, 11)
	for _, s := range seeds {
		if s.Table == project.SourceOrderItems {
			assert.Equal(t, int64(3), s.Rows)
			assert.False(t, s.Missing)
		}
	}
}

func TestDAGCommand_JSON(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, NewDAGCommand(), dir, "json")
	require.NoError(t, err)

	var dag output.DAGOutput
	require.NoError(t, json.Unmarshal([]byte(out), &dag))
	assert.Equal(t, 15, dag.TotalModels)
	require.Len(t, dag.Levels, 3)
	assert.Len(t, dag.Levels[0].Models, 11)
	require.Len(t, dag.Levels[2].Models, 1)
	assert.Equal(t, project.OrderSummary, dag.Levels[2].Models[0].Path)
	assert.Equal(t, "data_target.order_summary", dag.Levels[2].Models[0].Table)
	assert.Equal(t, "staging", dag.Levels[0].Layer)
	assert.Equal(t, "target", dag.Levels[1].Layer)
	assert.Equal(t, []string{}, dag.Levels[2].Models[0].UsedBy)
}

func TestDAGCommand_Markdown(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, NewDAGCommand(), dir, "")
	require.NoError(t, err)
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "## Level 0 (Staging)")
	assert.Contains(t, out, "- **Total Models**: 15")
}

func TestListCommand_JSON(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, NewListCommand(), dir, "json")
	require.NoError(t, err)

	var models []output.ModelOutput
	require.NoError(t, json.Unmarshal([]byte(out), &models))
	require.Len(t, models, 15)
	assert.Equal(t, project.StgOrderItems, models[0].Name)
	assert.Equal(t, "staging", models[0].Layer)
	assert.Equal(t, "data_staging.stg_order_items", models[0].Table)
	assert.Equal(t, "ecommerce_data.olist_order_items", models[0].Source)
}

func TestListCommand_Markdown(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, NewListCommand(), dir, "")
	require.NoError(t, err)
	assert.Contains(t, out, "# Models (15 total)")
	assert.Contains(t, out, "data_target.order_summary")
	assert.Contains(t, out, "never")
}

func TestRenderCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, NewRenderCommand(), dir, "", project.StgOrders, "--dialect", "bigquery")
	require.NoError(t, err)
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "```sql")
	assert.Contains(t, out, "SAFE.PARSE_TIMESTAMP")

	out, err = execute(t, NewRenderCommand(), dir, "json", project.OrderSummary, "--dialect", "duckdb")
	require.NoError(t, err)
	var rendered output.RenderOutput
	require.NoError(t, json.Unmarshal([]byte(out), &rendered))
	assert.Equal(t, "duckdb", rendered.Dialect)
	assert.Contains(t, rendered.SQL, "JOIN")

	_, err = execute(t, NewRenderCommand(), dir, "", project.StgOrders, "--dialect", "oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown dialect "oracle"`)
}

func TestShowCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	_, err := execute(t, NewShowCommand(), dir, "", project.OrderSummary)
	require.Error(t, err)
	assert.ErrorIs(t, err, warehouse.ErrNotMaterialized)

	out, err := execute(t, NewShowCommand(), dir, "json", project.OrderSummary, "--seed", "--limit", "3")
	require.NoError(t, err)
	var preview output.PreviewOutput
	require.NoError(t, json.Unmarshal([]byte(out), &preview))
	assert.Len(t, preview.Rows, 3)
	assert.Contains(t, preview.Columns, "order_id")

	out, err = execute(t, NewShowCommand(), dir, "", project.DimProducts, "--seed")
	require.NoError(t, err)
	assert.Contains(t, out, "health_beauty")
	assert.Contains(t, out, "(1 rows)")
}

func TestManifestCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, NewManifestCommand(), dir, "", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: order_summary")
	assert.NotContains(t, out, "sql:")

	out, err = execute(t, NewManifestCommand(), dir, "", "--sql", "--dialect", "bigquery")
	require.NoError(t, err)
	var man project.Manifest
	require.NoError(t, json.Unmarshal([]byte(out), &man))
	assert.Equal(t, "bigquery", man.Dialect)
	assert.Len(t, man.Nodes, 15)
	assert.NotEmpty(t, man.Nodes[0].SQL)
}

func TestRunsCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, NewRunsCommand(), dir, "")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")

	_, err = execute(t, NewRunCommand(), dir, "")
	require.NoError(t, err)

	out, err = execute(t, NewRunsCommand(), dir, "json")
	require.NoError(t, err)
	var runs []output.RunOutput
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, "dev", runs[0].Environment)

	out, err = execute(t, NewRunsCommand(), dir, "", runs[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "[success] order_summary: 5 rows")

	_, err = execute(t, NewRunsCommand(), dir, "", "missing-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestDoctorCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, NewDoctorCommand(), dir, "")
	require.NoError(t, err)
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "## Seeds")
	assert.Contains(t, out, "[pass] olist_orders")
	assert.Contains(t, out, "[pass] connection")

	itestutil.WriteFile(t, filepath.Join(dir, "seeds"), "olist_sellers.csv", "id,city\n")
	out, err = execute(t, NewDoctorCommand(), dir, "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 checks failed")

	var checks []output.CheckOutput
	require.NoError(t, json.Unmarshal([]byte(out), &checks))
	for _, c := range checks {
		if c.Name == project.SourceSellers {
			assert.Equal(t, "error", c.Status)
			assert.Contains(t, c.Details, "does not match")
		}
	}
}

func TestDoctorCommand_DescribesTables(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	itestutil.WriteFile(t, dir, "olistdw.yaml", "seeds_dir: seeds\n"+
		"state_path: .olistdw/state.db\n"+
		"target:\n"+
		"  type: duckdb\n"+
		"  database: "+filepath.Join(dir, "warehouse.duckdb")+"\n")

	doctor := func() map[string]output.CheckOutput {
		t.Helper()
		out, err := execute(t, NewDoctorCommand(), dir, "json")
		require.NoError(t, err)
		var checks []output.CheckOutput
		require.NoError(t, json.Unmarshal([]byte(out), &checks))
		byName := make(map[string]output.CheckOutput)
		for _, c := range checks {
			byName[c.Group+"/"+c.Name] = c
		}
		return byName
	}

	checks := doctor()
	assert.Equal(t, "warn", checks["sources/"+project.SourceOrders].Status)
	assert.Equal(t, "not loaded", checks["sources/"+project.SourceOrders].Details)
	assert.Equal(t, "warn", checks["models/"+project.OrderSummary].Status)

	_, err := execute(t, NewRunCommand(), dir, "")
	require.NoError(t, err)

	checks = doctor()
	assert.Equal(t, "pass", checks["sources/"+project.SourceOrders].Status)
	assert.Equal(t, "2 rows", checks["sources/"+project.SourceOrders].Details)
	assert.Equal(t, "pass", checks["models/"+project.OrderSummary].Status)
	assert.Equal(t, "5 rows", checks["models/"+project.OrderSummary].Details)
}
