package config

import (
	"strings"

	"github.com/leapstack-labs/olistdw/pkg/core"
	"github.com/leapstack-labs/olistdw/pkg/dialect"
)

// DefaultSchemaForType returns the default schema for a database type.
// It looks up the dialect in the registry; if not found, returns "main" as fallback.
func DefaultSchemaForType(dbType string) string {
	if d, ok := dialect.Get(dbType); ok && d.DefaultSchema != "" {
		return d.DefaultSchema
	}
	return "main"
}

// ApplyTargetDefaults applies default values to a TargetConfig based on the target type.
func ApplyTargetDefaults(t *core.TargetConfig) {
	if t == nil {
		return
	}

	t.Type = strings.ToLower(t.Type)
	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}
	if t.Type == "postgres" && t.Port == 0 {
		t.Port = 5432
	}
}

func defaults() map[string]any {
	s := core.DefaultSchemas()
	return map[string]any{
		"seeds_dir":       DefaultSeedsDir,
		"state_path":      DefaultStateFile,
		"environment":     DefaultEnv,
		"verbose":         false,
		"output":          DefaultOutput,
		"threads":         DefaultThreads,
		"schemas.source":  s.Source,
		"schemas.staging": s.Staging,
		"schemas.target":  s.Target,
	}
}
