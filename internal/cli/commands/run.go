package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/leapstack-labs/olistdw/internal/cli/output"
	"github.com/leapstack-labs/olistdw/internal/engine"
	"github.com/leapstack-labs/olistdw/pkg/core"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Select          []string
	Downstream      bool
	ContinueOnError bool
	JSONOutput      bool
	Seed            bool
	Watch           bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run all models or specific models",
		Long: `Materialize the staging and dimension models in dependency order.

A model runs only after every model it reads succeeded in the same run. By
default the first failure skips all remaining models; --continue-on-error
skips only the dependents of failed models.

Seeds are loaded first when --seed is set or the warehouse is in-memory.
With --watch the run repeats whenever a CSV in the seeds directory changes.`,
		Example: `  # Run all models
  olistdw run

  # Run specific models
  olistdw run --select stg_orders,stg_order_items

  # Run a model and everything built from it
  olistdw run --select stg_orders --downstream

  # Reload seeds and re-run on every seed change
  olistdw run --seed --watch

  # Run with JSON output for CI/CD integration
  olistdw run --json`,
		Aliases: []string{"build"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Select, "select", "s", nil, "Comma-separated list of models to run")
	cmd.Flags().BoolVar(&opts.Downstream, "downstream", false, "Include downstream dependents when using --select")
	cmd.Flags().BoolVar(&opts.ContinueOnError, "continue-on-error", false, "Keep running models that do not depend on a failed model")
	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "Output as JSON lines for progress tracking")
	cmd.Flags().BoolVar(&opts.Seed, "seed", false, "Load seeds before running")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run when seed files change")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	seed := opts.Seed || cmdCtx.Cfg.Ephemeral()
	if !opts.Watch {
		return runOnce(cmd.Context(), cmdCtx, opts, seed)
	}

	return watchSeeds(cmd.Context(), cmdCtx.Cfg.SeedsDir, cmdCtx.Logger, seedDebounce, func(ctx context.Context) error {
		err := runOnce(ctx, cmdCtx, opts, true)
		if err != nil {
			cmdCtx.Renderer.Error(err.Error())
		}
		return err
	})
}

// runOnce loads seeds when asked, runs the models and reports the result.
func runOnce(ctx context.Context, cmdCtx *CommandContext, opts *RunOptions, seed bool) error {
	eng := cmdCtx.Engine
	r := cmdCtx.Renderer
	start := time.Now()

	if seed {
		results, err := eng.LoadSeeds(ctx)
		if err != nil {
			return fmt.Errorf("failed to load seeds: %w", err)
		}
		for _, res := range results {
			if res.Missing {
				cmdCtx.Logger.Warn("seed file missing", "table", res.Table, "path", res.Path)
			}
		}
	}

	report, runErr := eng.Run(ctx, cmdCtx.Cfg.Environment, engine.RunOptions{
		Select:          opts.Select,
		Downstream:      opts.Downstream,
		ContinueOnError: opts.ContinueOnError,
	})
	if report == nil {
		return runErr
	}

	switch {
	case opts.JSONOutput || r.EffectiveMode() == output.ModeJSON:
		emitRunEvents(r.Writer(), report, time.Since(start))
	case r.EffectiveMode() == output.ModeMarkdown:
		runMarkdown(r, report, time.Since(start))
	default:
		runText(r, report, time.Since(start))
	}
	return runErr
}

// modelDetail describes a model result in one line.
func modelDetail(m engine.ModelResult) string {
	switch m.Status {
	case core.ModelRunStatusSuccess:
		detail := fmt.Sprintf("%d rows (%s)", m.Rows, m.Duration.Round(time.Millisecond))
		if empty := m.EmptyInputs(); len(empty) > 0 {
			detail += ", empty inputs: " + strings.Join(empty, ", ")
		}
		return detail
	case core.ModelRunStatusFailed:
		if m.Err != nil {
			return m.Err.Error()
		}
	}
	return ""
}

// runSummary returns "Success: n, Failed: n, Skipped: n".
func runSummary(report *engine.RunReport) string {
	title := cases.Title(language.English)
	statuses := []core.ModelRunStatus{core.ModelRunStatusSuccess, core.ModelRunStatusFailed, core.ModelRunStatusSkipped}
	parts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		parts = append(parts, fmt.Sprintf("%s: %d", title.String(string(s)), report.Count(s)))
	}
	return strings.Join(parts, ", ")
}

func runText(r *output.Renderer, report *engine.RunReport, elapsed time.Duration) {
	r.Header(1, fmt.Sprintf("Run %s (%s)", report.Run.ID, report.Run.Environment))
	for _, m := range report.Models {
		r.StatusLine(m.Model, string(m.Status), modelDetail(m))
	}
	r.Println("")
	r.Println(runSummary(report))
	r.Muted(fmt.Sprintf("Completed in %s", elapsed.Round(time.Millisecond)))
}

func runMarkdown(r *output.Renderer, report *engine.RunReport, elapsed time.Duration) {
	r.Println(output.FormatHeader(1, "Run "+report.Run.ID))
	r.Println("")
	r.Println(output.FormatKeyValue("Environment", report.Run.Environment))
	r.Println(output.FormatKeyValue("Status", string(report.Run.Status)))
	r.Println(output.FormatKeyValue("Duration", elapsed.Round(time.Millisecond).String()))
	r.Println("")

	rows := make([][]string, 0, len(report.Models))
	for _, m := range report.Models {
		rows = append(rows, []string{m.Model, string(m.Status), fmt.Sprintf("%d", m.Rows), modelDetail(m)})
	}
	r.Table([]string{"Model", "Status", "Rows", "Detail"}, rows)
	r.Println("")
	r.Println(runSummary(report))
}

// emitRunEvents writes the run as JSON lines.
func emitRunEvents(w io.Writer, report *engine.RunReport, elapsed time.Duration) {
	names := make([]string, 0, len(report.Models))
	for _, m := range report.Models {
		names = append(names, m.Model)
	}
	emitRunEvent(w, output.RunEvent{Event: "run_start", RunID: report.Run.ID, Models: names})

	for _, m := range report.Models {
		event := output.RunEvent{
			Event:       "model_complete",
			RunID:       report.Run.ID,
			Model:       m.Model,
			Status:      string(m.Status),
			Rows:        m.Rows,
			EmptyInputs: m.EmptyInputs(),
			ExecutionMS: m.Duration.Milliseconds(),
		}
		if m.Err != nil {
			event.Error = m.Err.Error()
		}
		emitRunEvent(w, event)
	}

	emitRunEvent(w, output.RunEvent{
		Event:       "run_complete",
		RunID:       report.Run.ID,
		Status:      string(report.Run.Status),
		TotalModels: len(report.Models),
		Successful:  report.Count(core.ModelRunStatusSuccess),
		Failed:      report.Count(core.ModelRunStatusFailed),
		Skipped:     report.Count(core.ModelRunStatusSkipped),
		TotalMS:     elapsed.Milliseconds(),
	})
}

// emitRunEvent outputs a run event as a JSON line.
func emitRunEvent(w io.Writer, event output.RunEvent) {
	event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	data, _ := json.Marshal(event)
	_, _ = fmt.Fprintln(w, string(data))
}
