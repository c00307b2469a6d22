package engine

// run.go - Execution orchestration for running models

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/leapstack-labs/olistdw/internal/dag"
	"github.com/leapstack-labs/olistdw/pkg/core"
)

// RunOptions narrows and tunes a run.
type RunOptions struct {
	// Select limits the run to these models. Empty runs every model.
	Select []string
	// Downstream adds every dependent of the selected models.
	Downstream bool
	// ContinueOnError keeps running models that do not depend on a failed
	// one. By default the first failure skips everything after it.
	ContinueOnError bool
}

// ModelResult is the outcome of one model in a run.
type ModelResult struct {
	Model    string
	Status   core.ModelRunStatus
	Rows     int64
	Inputs   map[string]int64
	Duration time.Duration
	Err      error
}

// EmptyInputs returns the inputs that had no rows, sorted. A model with
// zero output rows and no empty inputs had its rows filtered by its joins.
func (r ModelResult) EmptyInputs() []string {
	var names []string
	for name, n := range r.Inputs {
		if n == 0 {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// RunReport collects model results in execution order.
type RunReport struct {
	Run    *core.Run
	Models []ModelResult
}

// Result returns the outcome of one model.
func (r *RunReport) Result(model string) (ModelResult, bool) {
	for _, m := range r.Models {
		if m.Model == model {
			return m, true
		}
	}
	return ModelResult{}, false
}

// Count returns how many models ended with status.
func (r *RunReport) Count(status core.ModelRunStatus) int {
	n := 0
	for _, m := range r.Models {
		if m.Status == status {
			n++
		}
	}
	return n
}

// plannedModel is a model with its pending run record.
type plannedModel struct {
	node     *dag.Node[*core.Model]
	modelRun *core.ModelRun
}

// Run materializes models in dependency order. A model runs only after all
// of its upstream models succeeded in the same run. Failures are returned
// as *ModelError values, joined when more than one model fails.
func (e *Engine) Run(ctx context.Context, env string, opts RunOptions) (*RunReport, error) {
	if env == "" {
		env = e.environment
	}
	e.logger.Info("starting run", "environment", env, "select", opts.Select, "downstream", opts.Downstream)

	sorted, err := e.plan(opts)
	if err != nil {
		return nil, err
	}

	wh, err := e.ensureWarehouse(ctx)
	if err != nil {
		return nil, err
	}

	run, err := e.store.CreateRun(env)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	e.logger.Debug("created run", "run_id", run.ID, "models", len(sorted))

	planned := make([]plannedModel, 0, len(sorted))
	for _, node := range sorted {
		mr := &core.ModelRun{RunID: run.ID, Model: node.ID, Status: core.ModelRunStatusPending}
		if err := e.store.RecordModelRun(mr); err != nil {
			_ = e.store.CompleteRun(run.ID, core.RunStatusFailed, err.Error())
			return nil, fmt.Errorf("%s: failed to record model run: %w", node.ID, err)
		}
		planned = append(planned, plannedModel{node: node, modelRun: mr})
	}

	report := &RunReport{Run: run}
	var (
		errs   []error
		failed = make(map[string]bool)
		abort  string
	)

	for _, p := range planned {
		name := p.node.ID

		if reason := e.skipReason(ctx, name, failed, abort, opts); reason != "" {
			failed[name] = true
			_ = e.store.UpdateModelRun(p.modelRun.ID, core.ModelRunUpdate{Status: core.ModelRunStatusSkipped, Error: reason})
			report.Models = append(report.Models, ModelResult{Model: name, Status: core.ModelRunStatusSkipped})
			e.logger.Debug("model skipped", "model", name, "reason", reason)
			continue
		}

		_ = e.store.UpdateModelRun(p.modelRun.ID, core.ModelRunUpdate{Status: core.ModelRunStatusRunning})

		start := time.Now()
		res, err := wh.Materialize(ctx, p.node.Data)
		elapsed := time.Since(start)

		result := ModelResult{Model: name, Inputs: res.Inputs, Duration: elapsed}
		if err != nil {
			me := newModelError(name, err)
			result.Status = core.ModelRunStatusFailed
			result.Err = me
			errs = append(errs, me)
			failed[name] = true
			if abort == "" {
				abort = name
			}

			e.logger.Error("model failed", "model", name, "error", me)
			_ = e.store.UpdateModelRun(p.modelRun.ID, core.ModelRunUpdate{
				Status:      core.ModelRunStatusFailed,
				InputRows:   res.InputRows(),
				Error:       me.Error(),
				ExecutionMS: elapsed.Milliseconds(),
			})
			report.Models = append(report.Models, result)
			continue
		}

		result.Status = core.ModelRunStatusSuccess
		result.Rows = res.Rows
		report.Models = append(report.Models, result)

		if empty := res.EmptyInputs(); len(empty) > 0 {
			e.logger.Warn("model read empty inputs", "model", name, "empty_inputs", empty, "rows", res.Rows)
		} else if res.Rows == 0 {
			e.logger.Info("model produced no rows", "model", name, "input_rows", res.InputRows())
		}
		e.logger.Debug("model executed", "model", name, "rows", res.Rows, "exec_ms", elapsed.Milliseconds())

		_ = e.store.UpdateModelRun(p.modelRun.ID, core.ModelRunUpdate{
			Status:       core.ModelRunStatusSuccess,
			RowsAffected: res.Rows,
			InputRows:    res.InputRows(),
			ExecutionMS:  elapsed.Milliseconds(),
		})
	}

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	runErr := errors.Join(errs...)
	if runErr != nil {
		e.logger.Info("run failed", "run_id", run.ID, "failed", len(errs))
		_ = e.store.CompleteRun(run.ID, core.RunStatusFailed, runErr.Error())
	} else {
		e.logger.Info("run completed", "run_id", run.ID, "models", len(planned))
		_ = e.store.CompleteRun(run.ID, core.RunStatusCompleted, "")
	}

	if stored, err := e.store.GetRun(run.ID); err == nil {
		report.Run = stored
	}
	return report, runErr
}

// plan returns the models to run in topological order.
func (e *Engine) plan(opts RunOptions) ([]*dag.Node[*core.Model], error) {
	graph := e.catalog.Graph()
	if len(opts.Select) == 0 {
		return graph.TopologicalSort()
	}

	for _, name := range opts.Select {
		if _, ok := e.catalog.Get(name); !ok {
			return nil, fmt.Errorf("unknown model %q", name)
		}
	}

	names := opts.Select
	if opts.Downstream {
		names = graph.GetAffectedNodes(opts.Select)
	}
	return graph.Subgraph(names).TopologicalSort()
}

// skipReason returns why a model must not run, or "" if it may.
func (e *Engine) skipReason(ctx context.Context, name string, failed map[string]bool, abort string, opts RunOptions) string {
	if err := ctx.Err(); err != nil {
		return fmt.Sprintf("skipped: %v", err)
	}
	for _, up := range e.catalog.Upstream(name) {
		if failed[up] {
			return fmt.Sprintf("skipped: upstream model %s did not succeed", up)
		}
	}
	if abort != "" && !opts.ContinueOnError {
		return fmt.Sprintf("skipped: run aborted after model %s failed", abort)
	}
	return ""
}
