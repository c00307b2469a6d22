package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/olistdw/internal/cli/output"
	"github.com/leapstack-labs/olistdw/internal/engine"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NewDAGCommand creates the dag command.
func NewDAGCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dag",
		Short: "Show the dependency graph",
		Long: `Display the dependency graph of every model, grouped by execution level.

Every model in a level reads only models from earlier levels, so a level
runs once all levels before it succeeded. The staging models, one per raw
olist table, form level 0.`,
		Example: `  # Show the graph
  olistdw dag

  # Machine-readable levels
  olistdw dag -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDAG(cmd)
		},
	}
}

func runDAG(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	view, err := buildDAGView(cmdCtx.Engine)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(view)
	case output.ModeMarkdown:
		dagMarkdown(r, view)
	default:
		dagText(r, view)
	}
	return nil
}

// buildDAGView resolves execution levels and labels each level with the
// layer its models write to.
func buildDAGView(eng *engine.Engine) (output.DAGOutput, error) {
	cat := eng.Catalog()
	graph := cat.Graph()
	schemas := eng.Schemas()

	levels, err := graph.GetExecutionLevels()
	if err != nil {
		return output.DAGOutput{}, fmt.Errorf("failed to get execution levels: %w", err)
	}

	view := output.DAGOutput{
		Levels:      make([]output.DAGLevel, 0, len(levels)),
		TotalModels: graph.NodeCount(),
		TotalEdges:  graph.EdgeCount(),
	}
	for i, names := range levels {
		lvl := output.DAGLevel{Level: i, Models: make([]output.DAGNode, 0, len(names))}
		for _, name := range names {
			node := output.DAGNode{
				Path:      name,
				DependsOn: nonNil(graph.GetParents(name)),
				UsedBy:    nonNil(graph.GetChildren(name)),
			}
			if m, ok := cat.Get(name); ok {
				dest := m.Config.Destination
				node.Table = schemas.For(dest) + "." + m.Name
				lvl.Layer = mergeLayer(lvl.Layer, string(dest))
			}
			lvl.Models = append(lvl.Models, node)
		}
		view.Levels = append(view.Levels, lvl)
	}
	return view, nil
}

func mergeLayer(cur, dest string) string {
	if cur == "" || cur == dest {
		return dest
	}
	return "mixed"
}

func levelTitle(lvl output.DAGLevel) string {
	if lvl.Layer == "" {
		return fmt.Sprintf("Level %d", lvl.Level)
	}
	return fmt.Sprintf("Level %d (%s)", lvl.Level, cases.Title(language.English).String(lvl.Layer))
}

func dagText(r *output.Renderer, view output.DAGOutput) {
	styles := r.Styles()

	r.Header(1, "Dependency Graph")
	for _, lvl := range view.Levels {
		r.Println(styles.Header2.Render(levelTitle(lvl) + ":"))
		for _, n := range lvl.Models {
			r.Printf("  %s %s\n", styles.ModelPath.Render(n.Path), styles.Muted.Render("-> "+n.Table))
			if len(n.DependsOn) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("reads:"), strings.Join(n.DependsOn, ", "))
			}
			if len(n.UsedBy) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("feeds:"), strings.Join(n.UsedBy, ", "))
			}
		}
		r.Println("")
	}
	r.Muted(fmt.Sprintf("Total: %d models, %d dependencies", view.TotalModels, view.TotalEdges))
}

func dagMarkdown(r *output.Renderer, view output.DAGOutput) {
	r.Println(output.FormatHeader(1, "Dependency Graph"))
	r.Println("")

	for _, lvl := range view.Levels {
		r.Println(output.FormatHeader(2, levelTitle(lvl)))
		for _, n := range lvl.Models {
			r.Printf("- %s (`%s`)\n", n.Path, n.Table)
			if len(n.DependsOn) > 0 {
				r.Printf("  - reads: %s\n", strings.Join(n.DependsOn, ", "))
			}
		}
		r.Println("")
	}

	r.Println(output.FormatHeader(2, "Summary"))
	r.Println(output.FormatKeyValue("Total Models", fmt.Sprint(view.TotalModels)))
	r.Println(output.FormatKeyValue("Total Dependencies", fmt.Sprint(view.TotalEdges)))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
