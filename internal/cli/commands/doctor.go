package commands

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/olistdw/internal/cli/output"
	"github.com/leapstack-labs/olistdw/internal/engine"
	"github.com/leapstack-labs/olistdw/pkg/core"
	"github.com/spf13/cobra"
)

// Check statuses.
const (
	checkPass  = "pass"
	checkWarn  = "warn"
	checkError = "error"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the project setup",
		Long: `Check that olistdw can run: the configuration, every raw seed file and
its header, the warehouse connection, the model graph and the state
database.

Missing seed files are warnings; a wrong header or an unreachable warehouse
is an error and makes the command fail.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run all checks
  olistdw doctor

  # Output as JSON
  olistdw doctor --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd)
		},
	}

	return cmd
}

func runDoctor(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	eng := cmdCtx.Engine
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	var checks []output.CheckOutput
	add := func(group, name, status, details string) {
		checks = append(checks, output.CheckOutput{Group: group, Name: name, Status: status, Details: details})
	}

	// Configuration
	if cfg.ConfigFile == "" {
		add("configuration", "config file", checkWarn, "none found, using defaults")
	} else {
		add("configuration", "config file", checkPass, cfg.ConfigFile)
	}
	add("configuration", "target", checkPass, eng.Target().Type)

	// Seeds
	for _, c := range eng.CheckSeeds() {
		switch {
		case c.Missing:
			add("seeds", c.Table, checkWarn, "missing "+c.Path)
		case c.Err != nil:
			add("seeds", c.Table, checkError, c.Err.Error())
		default:
			add("seeds", c.Table, checkPass, c.Path)
		}
	}

	// Warehouse
	if err := eng.Connect(cmd.Context()); err != nil {
		add("warehouse", "connection", checkError, err.Error())
	} else {
		add("warehouse", "connection", checkPass, "schemas ready")
		tableChecks(cmd, eng, add)
	}

	// Graph
	graph := eng.Catalog().Graph()
	if levels, err := graph.GetExecutionLevels(); err != nil {
		add("graph", "dependencies", checkError, err.Error())
	} else {
		add("graph", "dependencies", checkPass,
			fmt.Sprintf("%d models, %d edges, %d levels", graph.NodeCount(), graph.EdgeCount(), len(levels)))
	}

	// State
	if runs, err := eng.Store().ListRuns(1); err != nil {
		add("state", "run history", checkError, err.Error())
	} else if len(runs) == 0 {
		add("state", "run history", checkPass, "no runs yet")
	} else {
		status := checkPass
		if runs[0].Status != core.RunStatusCompleted {
			status = checkWarn
		}
		add("state", "last run", status, fmt.Sprintf("%s %s", runs[0].ID, runs[0].Status))
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(checks); err != nil {
			return err
		}
	case output.ModeMarkdown:
		doctorMarkdown(r, checks)
	default:
		doctorText(r, checks)
	}

	failed := 0
	for _, c := range checks {
		if c.Status == checkError {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	return nil
}

// tableChecks compares loaded raw tables and materialized models with the
// columns the catalog declares. Tables that do not exist yet only warn.
func tableChecks(cmd *cobra.Command, eng *engine.Engine, add func(group, name, status, details string)) {
	checks, err := eng.CheckTables(cmd.Context())
	if err != nil {
		add("tables", "describe", checkError, err.Error())
		return
	}
	for _, c := range checks {
		group := "models"
		absent := "not materialized"
		if c.Source {
			group = "sources"
			absent = "not loaded"
		}
		switch {
		case c.Absent:
			add(group, c.Table, checkWarn, absent)
		case c.Err != nil:
			add(group, c.Table, checkError, c.Err.Error())
		case len(c.MissingColumns) > 0:
			add(group, c.Table, checkError, "missing columns: "+strings.Join(c.MissingColumns, ", "))
		default:
			add(group, c.Table, checkPass, fmt.Sprintf("%d rows", c.Rows))
		}
	}
}

func doctorText(r *output.Renderer, checks []output.CheckOutput) {
	styles := r.Styles()
	titleCaser := cases.Title(language.English)

	r.Println(styles.Header1.Render("olistdw Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 40)))

	currentGroup := ""
	for _, c := range checks {
		if c.Group != currentGroup {
			currentGroup = c.Group
			r.Println("")
			r.Println(styles.Bold.Render(titleCaser.String(currentGroup)))
		}
		r.StatusLine(c.Name, c.Status, c.Details)
	}
	r.Println("")
}

func doctorMarkdown(r *output.Renderer, checks []output.CheckOutput) {
	titleCaser := cases.Title(language.English)

	r.Println("# olistdw Health Report")

	currentGroup := ""
	for _, c := range checks {
		if c.Group != currentGroup {
			currentGroup = c.Group
			r.Println("")
			r.Println("## " + titleCaser.String(currentGroup))
			r.Println("")
		}
		r.StatusLine(c.Name, c.Status, c.Details)
	}
}
