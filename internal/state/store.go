// Package state persists run history in SQLite.
// It records every run and the outcome of each model within it.
package state

import (
	"github.com/leapstack-labs/olistdw/pkg/core"
)

// Short aliases for the core run-history types.
type (
	// Store is an alias for core.Store.
	Store = core.Store

	// RunStatus is an alias for core.RunStatus.
	RunStatus = core.RunStatus

	// Run is an alias for core.Run.
	Run = core.Run

	// ModelRunStatus is an alias for core.ModelRunStatus.
	ModelRunStatus = core.ModelRunStatus

	// ModelRun is an alias for core.ModelRun.
	ModelRun = core.ModelRun

	// ModelRunUpdate is an alias for core.ModelRunUpdate.
	ModelRunUpdate = core.ModelRunUpdate
)
