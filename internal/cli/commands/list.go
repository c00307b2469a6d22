package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/olistdw/internal/cli/output"
	"github.com/leapstack-labs/olistdw/internal/project"
	"github.com/leapstack-labs/olistdw/pkg/core"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all models and their dependencies",
		Long: `List every model in execution order with its destination table, the
models it reads and its last run status.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List all models (auto-detect output format)
  olistdw list

  # List models as JSON
  olistdw list --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	eng := cmdCtx.Engine
	r := cmdCtx.Renderer

	man, err := eng.Catalog().Manifest(eng.Schemas(), nil)
	if err != nil {
		return fmt.Errorf("failed to sort models: %w", err)
	}

	models := make([]output.ModelOutput, 0, len(man.Nodes))
	for _, n := range man.Nodes {
		models = append(models, modelOutput(n))
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(models)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Models (%d total)", len(models))))
		r.Println("")
	default:
		r.Header(1, fmt.Sprintf("Models (%d total)", len(models)))
	}

	rows := make([][]string, 0, len(models))
	for i, m := range models {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			m.Name,
			m.Table,
			strings.Join(reads(m), ", "),
			lastRun(eng.Store(), m.Name),
		})
	}
	r.Table([]string{"#", "Model", "Table", "Reads", "Last Run"}, rows)
	return nil
}

func modelOutput(n project.ManifestNode) output.ModelOutput {
	return output.ModelOutput{
		Name:        n.Name,
		Layer:       string(n.Config.Destination),
		Table:       n.Table,
		Source:      n.Source,
		DependsOn:   n.Upstream,
		Columns:     len(n.Columns),
		Description: n.Description,
	}
}

// lastRun describes the latest recorded run of a model.
func lastRun(store core.Store, model string) string {
	mr, err := store.GetLatestModelRun(model)
	if err != nil || mr == nil {
		return "never"
	}
	return fmt.Sprintf("%s %s", mr.Status, mr.StartedAt.Local().Format(time.DateTime))
}

// reads lists the raw table or models a model selects from.
func reads(m output.ModelOutput) []string {
	if m.Source != "" {
		return []string{m.Source}
	}
	return m.DependsOn
}
