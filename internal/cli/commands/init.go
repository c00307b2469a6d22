package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/olistdw/internal/cli/output"
	"github.com/leapstack-labs/olistdw/internal/config"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new olistdw project",
		Long: `Initialize a new olistdw project with a configuration file and a seeds
directory.

This creates:
  - olistdw.yaml configuration file
  - seeds/ directory for the raw Olist CSV exports

Use --example to also write a small sample of every Olist table, enough to
run the whole graph end to end.`,
		Example: `  # Initialize in current directory
  olistdw init

  # Initialize with sample data
  olistdw init --example

  # Initialize in a new directory
  olistdw init my-warehouse --example

  # Force overwrite existing config
  olistdw init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			r := NewCommandContextWithoutEngine(cmd).Renderer
			if example {
				return runInit(r, dir, "example", force)
			}
			return runInit(r, dir, "minimal", force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&example, "example", false, "Include sample seed data for every Olist table")

	return cmd
}

func runInit(r *output.Renderer, dir, template string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileName)
	}

	files, err := planTemplate(template)
	if err != nil {
		return err
	}
	written, kept, err := writeScaffold(files, dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	isKept := make(map[string]bool, len(kept))
	for _, f := range kept {
		isKept[f] = true
	}
	for _, seeds := range []bool{false, true} {
		if seeds {
			r.Header(2, "Seeds")
		} else {
			r.Header(2, "Configuration")
		}
		for _, f := range files {
			if f.seed != seeds {
				continue
			}
			if isKept[f.rel] {
				r.StatusLine(f.rel, "skipped", "already exists")
			} else {
				r.StatusLine(f.rel, "success", "")
			}
		}
		r.Println("")
	}
	r.Muted(fmt.Sprintf("%d files written, %d kept", len(written), len(kept)))
	r.Println("")
	r.Success("olistdw project initialized!")
	r.Println("")
	r.Println("Next steps:")
	if template == "example" {
		r.Println("  olistdw run --seed   Load the sample data and build every model")
	} else {
		r.Println("  1. Copy the Olist CSV exports into seeds/")
		r.Println("  2. Run 'olistdw doctor' to check them")
		r.Println("  3. Run 'olistdw run --seed' to build every model")
	}
	r.Println("  olistdw dag          Show the dependency graph")
	r.Println("  olistdw show order_summary")

	return nil
}
