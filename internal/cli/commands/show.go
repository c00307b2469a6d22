package commands

import (
	"fmt"

	"github.com/leapstack-labs/olistdw/internal/cli/output"
	"github.com/leapstack-labs/olistdw/internal/engine"
	"github.com/leapstack-labs/olistdw/internal/relation"
	"github.com/spf13/cobra"
)

// DefaultPreviewLimit is the number of rows show prints by default.
const DefaultPreviewLimit = 20

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	var limit int
	var seed bool

	cmd := &cobra.Command{
		Use:   "show <model>",
		Short: "Preview the rows of a materialized model",
		Long: `Print the first rows of a model's current table.

The model must have been materialized. With an in-memory warehouse nothing
survives between commands, so use --seed to load seeds and run the model's
upstream first.`,
		Example: `  # Show the first 20 rows of the order summary
  olistdw show order_summary

  # Show 5 rows as JSON
  olistdw show stg_orders --limit 5 --output json

  # Preview against the in-memory warehouse
  olistdw show dim_products --seed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], limit, seed)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", DefaultPreviewLimit, "Maximum number of rows")
	cmd.Flags().BoolVar(&seed, "seed", false, "Load seeds and run the model and its upstream first")

	return cmd
}

func runShow(cmd *cobra.Command, model string, limit int, seed bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	eng := cmdCtx.Engine
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	if seed {
		if _, err := eng.LoadSeeds(ctx); err != nil {
			return fmt.Errorf("failed to load seeds: %w", err)
		}
		names := append(eng.Catalog().Graph().GetUpstreamNodes(model), model)
		if _, err := eng.Run(ctx, cmdCtx.Cfg.Environment, engine.RunOptions{Select: names}); err != nil {
			return err
		}
	}

	rel, err := eng.Preview(ctx, model, limit)
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(previewOutput(model, rel))
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, model))
		r.Println("")
	}
	if rel.Len() == 0 {
		r.Println("(0 rows)")
		return nil
	}
	r.Table(rel.Columns, formatRows(rel))
	r.Printf("(%d rows)\n", rel.Len())
	return nil
}

func formatRows(rel *relation.Relation) [][]string {
	rows := make([][]string, 0, rel.Len())
	for _, row := range rel.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = relation.Format(v)
		}
		rows = append(rows, cells)
	}
	return rows
}

func previewOutput(model string, rel *relation.Relation) output.PreviewOutput {
	out := output.PreviewOutput{Model: model, Columns: rel.Columns, Rows: make([]map[string]any, 0, rel.Len())}
	for _, row := range rel.Rows {
		m := make(map[string]any, len(row))
		for i, col := range rel.Columns {
			if row[i] == nil {
				m[col] = nil
				continue
			}
			m[col] = relation.Format(row[i])
		}
		out.Rows = append(out.Rows, m)
	}
	return out
}
