// Package core defines the shared language of the olistdw system.
//
// This package contains:
//   - Domain entities (SourceTable, Model, CastRule, Join, Run, ModelRun)
//   - Service interfaces (Store)
//   - Configuration types (TargetConfig, SchemaConfig, AdapterConfig)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
