package commands

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/olistdw/internal/cli/output"
	"github.com/leapstack-labs/olistdw/pkg/core"
	"github.com/spf13/cobra"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show run history",
		Long: `List recent runs from the state database, newest first.

Given a run ID, show every model of that run with its status, row count
and error.`,
		Example: `  # Show the last 10 runs
  olistdw runs

  # Show the models of one run
  olistdw runs 3f2a9c1e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if len(args) == 1 {
				return showRun(cmdCtx, args[0])
			}
			return listRuns(cmdCtx, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of runs")

	return cmd
}

func runOutput(run *core.Run) output.RunOutput {
	out := output.RunOutput{
		ID:          run.ID,
		Environment: run.Environment,
		Status:      string(run.Status),
		StartedAt:   run.StartedAt.UTC().Format(time.RFC3339),
		Error:       run.Error,
	}
	if run.CompletedAt != nil {
		out.CompletedAt = run.CompletedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func listRuns(cmdCtx *CommandContext, limit int) error {
	r := cmdCtx.Renderer
	runs, err := cmdCtx.Engine.Store().ListRuns(limit)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		out := make([]output.RunOutput, 0, len(runs))
		for _, run := range runs {
			out = append(out, runOutput(run))
		}
		return r.JSON(out)
	}

	r.Header(1, "Runs")
	if len(runs) == 0 {
		r.Println("No runs recorded.")
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		o := runOutput(run)
		rows = append(rows, []string{o.ID, o.Environment, o.Status, o.StartedAt, o.CompletedAt})
	}
	r.Table([]string{"Run", "Environment", "Status", "Started", "Completed"}, rows)
	return nil
}

func showRun(cmdCtx *CommandContext, id string) error {
	r := cmdCtx.Renderer
	store := cmdCtx.Engine.Store()

	run, err := store.GetRun(id)
	if err != nil {
		return err
	}
	modelRuns, err := store.GetModelRunsForRun(id)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		type modelRunOutput struct {
			Model       string `json:"model"`
			Status      string `json:"status"`
			Rows        int64  `json:"rows"`
			InputRows   int64  `json:"input_rows"`
			ExecutionMS int64  `json:"execution_ms"`
			Error       string `json:"error,omitempty"`
		}
		models := make([]modelRunOutput, 0, len(modelRuns))
		for _, mr := range modelRuns {
			models = append(models, modelRunOutput{mr.Model, string(mr.Status), mr.RowsAffected, mr.InputRows, mr.ExecutionMS, mr.Error})
		}
		return r.JSON(struct {
			Run    output.RunOutput `json:"run"`
			Models []modelRunOutput `json:"models"`
		}{runOutput(run), models})
	}

	r.Header(1, fmt.Sprintf("Run %s (%s, %s)", run.ID, run.Environment, run.Status))
	for _, mr := range modelRuns {
		detail := fmt.Sprintf("%d rows from %d input rows", mr.RowsAffected, mr.InputRows)
		if mr.Error != "" {
			detail = mr.Error
		}
		r.StatusLine(mr.Model, string(mr.Status), detail)
	}
	return nil
}
