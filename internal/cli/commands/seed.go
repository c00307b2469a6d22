package commands

import (
	"fmt"

	"github.com/leapstack-labs/olistdw/internal/cli/output"
	"github.com/leapstack-labs/olistdw/internal/engine"
	"github.com/spf13/cobra"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the raw Olist CSV files",
		Long: `Load <seeds_dir>/<table>.csv into every raw source table of the warehouse.

Each file's header must match the table's columns. Records with the wrong
number of fields are dropped and counted. Tables without a file are left
untouched.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Load all seeds (auto-detect output format)
  olistdw seed

  # Load seeds as JSON
  olistdw seed --output json

  # Load seeds from a specific directory
  olistdw seed --seeds-dir ./data/olist`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd)
		},
	}

	return cmd
}

func runSeed(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	results, err := cmdCtx.Engine.LoadSeeds(cmd.Context())
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		out := make([]output.SeedOutput, 0, len(results))
		for _, res := range results {
			out = append(out, output.SeedOutput(res))
		}
		return r.JSON(out)
	case output.ModeMarkdown:
		seedMarkdown(r, cmdCtx.Cfg.SeedsDir, results)
	default:
		seedText(r, cmdCtx.Cfg.SeedsDir, results)
	}
	return nil
}

func seedDetail(res engine.SeedResult) (status, detail string) {
	if res.Missing {
		return "skipped", "no seed file"
	}
	detail = fmt.Sprintf("%d rows", res.Rows)
	if res.Dropped > 0 {
		detail += fmt.Sprintf(", %d malformed dropped", res.Dropped)
	}
	return "success", detail
}

// seedText outputs seed results in styled text format.
func seedText(r *output.Renderer, seedsDir string, results []engine.SeedResult) {
	r.Header(2, "Loaded Seeds")
	for _, res := range results {
		status, detail := seedDetail(res)
		r.StatusLine(res.Table, status, detail)
	}
	r.Println("")
	r.Muted("Source: " + seedsDir)
}

// seedMarkdown outputs seed results in markdown format.
func seedMarkdown(r *output.Renderer, seedsDir string, results []engine.SeedResult) {
	r.Println(output.FormatHeader(1, "Seeds Loaded"))
	r.Println("")

	rows := make([][]string, 0, len(results))
	var total int64
	for _, res := range results {
		status, detail := seedDetail(res)
		rows = append(rows, []string{res.Table, status, detail})
		total += res.Rows
	}
	r.Table([]string{"Table", "Status", "Detail"}, rows)
	r.Println("")
	r.Println(output.FormatKeyValue("Source Directory", seedsDir))
	r.Println(output.FormatKeyValue("Total Rows", fmt.Sprintf("%d", total)))
}
