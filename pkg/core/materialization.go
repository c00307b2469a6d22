package core

// Destination is the logical schema a model writes into.
type Destination string

// Destination constants.
const (
	DestinationStaging Destination = "staging"
	DestinationTarget  Destination = "target"
)

// WriteMode describes how a model's output relation is written.
type WriteMode string

// WriteModeFullReplace recomputes the relation and replaces it wholesale.
// It is the only write mode models support.
const WriteModeFullReplace WriteMode = "full_replace"

// NodeConfig is the per-model materialization record.
type NodeConfig struct {
	Destination Destination `json:"destination" yaml:"destination"`
	WriteMode   WriteMode   `json:"write_mode" yaml:"write_mode"`
}

// StagingConfig returns the configuration shared by all staging models.
func StagingConfig() NodeConfig {
	return NodeConfig{Destination: DestinationStaging, WriteMode: WriteModeFullReplace}
}

// TargetNodeConfig returns the configuration shared by all target models.
func TargetNodeConfig() NodeConfig {
	return NodeConfig{Destination: DestinationTarget, WriteMode: WriteModeFullReplace}
}
