package commands

import (
	"github.com/leapstack-labs/olistdw/internal/project"
	"github.com/spf13/cobra"
)

// NewManifestCommand creates the manifest command.
func NewManifestCommand() *cobra.Command {
	var format, dialectName string
	var withSQL bool

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Print the model manifest",
		Long: `Print every raw source and model with its destination table, upstream
models and output columns, in execution order.

External schedulers and resolvers read the manifest instead of the code.
With --sql each node also carries its SELECT in the chosen dialect.`,
		Example: `  # Print the manifest as JSON
  olistdw manifest

  # YAML with BigQuery SQL per node
  olistdw manifest --format yaml --sql --dialect bigquery`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			eng := cmdCtx.Engine
			var man *project.Manifest
			if withSQL {
				d, err := eng.Dialect(dialectName)
				if err != nil {
					return err
				}
				man, err = eng.Catalog().Manifest(eng.Schemas(), d)
				if err != nil {
					return err
				}
			} else if man, err = eng.Catalog().Manifest(eng.Schemas(), nil); err != nil {
				return err
			}
			return project.WriteManifest(cmd.OutOrStdout(), man, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Manifest format: json, yaml")
	cmd.Flags().BoolVar(&withSQL, "sql", false, "Include each model's SELECT")
	cmd.Flags().StringVarP(&dialectName, "dialect", "d", "", "SQL dialect for --sql (default: the target's)")

	return cmd
}
