package commands

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/leapstack-labs/olistdw/pkg/adapter"
	"github.com/spf13/cobra"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the olistdw version, build metadata and the warehouse types this binary can target.`,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "olistdw v%s\n", info.Version)
			_, _ = fmt.Fprintf(w, "Olist warehouse transformations (%s)\n", runtime.Version())
			if info.Commit != "" {
				_, _ = fmt.Fprintf(w, "commit %s, built %s\n", info.Commit, info.Date)
			}
			_, _ = fmt.Fprintf(w, "warehouses: %s\n", strings.Join(warehouseTypes(), ", "))
		},
	}
}

// warehouseTypes lists every target.type value: the registered adapters
// plus the in-process memory warehouse.
func warehouseTypes() []string {
	types := append(adapter.ListAdapters(), "memory")
	slices.Sort(types)
	return types
}
