package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/olistdw/pkg/adapter"
)

// memoryTarget is the built-in in-process warehouse. It has no adapter.
const memoryTarget = "memory"

// OutputModes lists the accepted values of output.
var OutputModes = []string{"auto", "text", "markdown", "json"}

// ValidateTarget checks the target type against the adapter registry.
func ValidateTarget(t *TargetConfig) error {
	if t == nil || t.Type == "" {
		return fmt.Errorf("target type is required")
	}

	typ := strings.ToLower(t.Type)
	if typ == memoryTarget || adapter.IsRegistered(typ) {
		return nil
	}
	return &adapter.UnknownAdapterError{
		Type:      t.Type,
		Available: adapter.ListAdapters(),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := ValidateTarget(c.Target); err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}
	if c.Threads < 1 {
		return fmt.Errorf("threads must be at least 1, got %d", c.Threads)
	}
	if !slices.Contains(OutputModes, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (expected one of %s)", c.OutputFormat, strings.Join(OutputModes, ", "))
	}
	if c.Schemas.Staging == c.Schemas.Target {
		return fmt.Errorf("staging and target schemas must differ (both %q)", c.Schemas.Staging)
	}
	return nil
}

// Ephemeral reports whether the warehouse forgets its tables when the
// process exits, in which case seeds must be loaded on every run.
func (c *Config) Ephemeral() bool {
	if c.Target == nil {
		return true
	}
	switch c.Target.Type {
	case memoryTarget:
		return true
	case "duckdb":
		return c.Target.Database == "" || c.Target.Database == ":memory:"
	}
	return false
}
