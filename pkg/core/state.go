package core

import "time"

// Store defines the interface for run-history persistence.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Run operations
	CreateRun(env string) (*Run, error)
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetLatestRun(env string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	// Model run operations
	RecordModelRun(modelRun *ModelRun) error
	UpdateModelRun(id string, update ModelRunUpdate) error
	GetModelRunsForRun(runID string) ([]*ModelRun, error)
	GetLatestModelRun(model string) (*ModelRun, error)
}

// RunStatus represents the status of a pipeline run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents one materialization pass over the graph.
type Run struct {
	ID          string
	Environment string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// ModelRunStatus represents the status of an individual model execution.
type ModelRunStatus string

// Model run status constants.
const (
	ModelRunStatusPending ModelRunStatus = "pending"
	ModelRunStatusRunning ModelRunStatus = "running"
	ModelRunStatusSuccess ModelRunStatus = "success"
	ModelRunStatusFailed  ModelRunStatus = "failed"
	ModelRunStatusSkipped ModelRunStatus = "skipped"
)

// ModelRun represents a single execution of a model within a run.
type ModelRun struct {
	ID           string
	RunID        string
	Model        string
	Status       ModelRunStatus
	RowsAffected int64
	InputRows    int64
	StartedAt    time.Time
	CompletedAt  *time.Time
	Error        string
	ExecutionMS  int64
}

// ModelRunUpdate carries the mutable fields of a model run.
type ModelRunUpdate struct {
	Status       ModelRunStatus
	RowsAffected int64
	InputRows    int64
	Error        string
	ExecutionMS  int64
}
