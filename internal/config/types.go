// Package config loads olistdw configuration.
//
// Values are layered with koanf: built-in defaults, then olistdw.yaml, then
// OLISTDW_* environment variables, then explicitly set CLI flags.
package config

import (
	"github.com/leapstack-labs/olistdw/pkg/core"
)

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = core.TargetConfig

// Default configuration values.
const (
	DefaultSeedsDir  = "seeds"
	DefaultStateFile = ".olistdw/state.db"
	DefaultEnv       = "dev"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultThreads   = 4
	DefaultTarget    = "duckdb"
)

// Config file names, in lookup order.
const (
	ConfigFileName    = "olistdw.yaml"
	ConfigFileNameAlt = "olistdw.yml"
)

// Config holds all configuration options.
type Config struct {
	SeedsDir     string               `koanf:"seeds_dir"`
	StatePath    string               `koanf:"state_path"`
	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	OutputFormat string               `koanf:"output"`
	Threads      int                  `koanf:"threads"`
	Schemas      core.SchemaConfig    `koanf:"schemas"`
	Target       *TargetConfig        `koanf:"target"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory relative paths resolve against.
	ProjectRoot string `koanf:"-"`
	// ConfigFile is the config file that was read, if any.
	ConfigFile string `koanf:"-"`
}

// EnvConfig holds environment-specific overrides.
type EnvConfig struct {
	SeedsDir string        `koanf:"seeds_dir"`
	Target   *TargetConfig `koanf:"target"`
}
