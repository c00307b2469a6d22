package commands

import (
	"fmt"

	"github.com/leapstack-labs/olistdw/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	var dialectName string

	cmd := &cobra.Command{
		Use:   "render <model>",
		Short: "Render the SQL computing a model",
		Long: `Render the SELECT that computes a model in a SQL dialect.

Without --dialect the target's dialect is used; the in-memory target renders
BigQuery SQL, the canonical form of the transformations.

Output adapts to environment:
  - Terminal: Plain SQL (suitable for syntax highlighting)
  - Piped/Scripted: Markdown with code block`,
		Example: `  # Render a model's SQL for the configured target
  olistdw render stg_orders

  # Render for BigQuery
  olistdw render order_summary --dialect bigquery

  # Render and save to file
  olistdw render dim_orders > dim_orders.sql`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], dialectName)
		},
	}

	cmd.Flags().StringVarP(&dialectName, "dialect", "d", "", "SQL dialect (bigquery, duckdb, postgres)")

	return cmd
}

func runRender(cmd *cobra.Command, model, dialectName string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	eng := cmdCtx.Engine
	r := cmdCtx.Renderer

	d, err := eng.Dialect(dialectName)
	if err != nil {
		return err
	}
	sql, err := eng.RenderModel(model, d.Name)
	if err != nil {
		return fmt.Errorf("failed to render model: %w", err)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(output.RenderOutput{Model: model, Dialect: d.Name, SQL: sql})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Rendered SQL: %s (%s)", model, d.Name)))
		r.Println("")
		r.Println(output.FormatCodeBlock("sql", sql))
	default:
		// Text mode: just output the SQL directly
		r.Println(sql)
	}
	return nil
}
