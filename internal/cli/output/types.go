package output

// RunEvent is one JSON line emitted by run --json.
type RunEvent struct {
	Event       string   `json:"event"`
	Timestamp   string   `json:"timestamp"`
	RunID       string   `json:"run_id,omitempty"`
	Models      []string `json:"models,omitempty"`
	Model       string   `json:"model,omitempty"`
	Status      string   `json:"status,omitempty"`
	Rows        int64    `json:"rows,omitempty"`
	EmptyInputs []string `json:"empty_inputs,omitempty"`
	ExecutionMS int64    `json:"execution_ms,omitempty"`
	Error       string   `json:"error,omitempty"`
	TotalModels int      `json:"total_models,omitempty"`
	Successful  int      `json:"successful,omitempty"`
	Failed      int      `json:"failed,omitempty"`
	Skipped     int      `json:"skipped,omitempty"`
	TotalMS     int64    `json:"total_ms,omitempty"`
}

// DAGOutput is the JSON form of the dag command.
type DAGOutput struct {
	Levels      []DAGLevel `json:"levels"`
	TotalModels int        `json:"total_models"`
	TotalEdges  int        `json:"total_edges"`
}

// DAGLevel groups models that can run once earlier levels finished.
type DAGLevel struct {
	Level  int       `json:"level"`
	Layer  string    `json:"layer"`
	Models []DAGNode `json:"models"`
}

// DAGNode is one model in the DAG output.
type DAGNode struct {
	Path      string   `json:"path"`
	Table     string   `json:"table"`
	DependsOn []string `json:"depends_on"`
	UsedBy    []string `json:"used_by"`
}

// ModelOutput is one model in the list command.
type ModelOutput struct {
	Name        string   `json:"name"`
	Layer       string   `json:"layer"`
	Table       string   `json:"table"`
	Source      string   `json:"source,omitempty"`
	DependsOn   []string `json:"depends_on,omitempty"`
	Columns     int      `json:"columns"`
	Description string   `json:"description,omitempty"`
}

// SeedOutput is one seed in the seed command.
type SeedOutput struct {
	Table   string `json:"table"`
	Path    string `json:"path"`
	Rows    int64  `json:"rows"`
	Dropped int    `json:"dropped,omitempty"`
	Missing bool   `json:"missing,omitempty"`
}

// RunOutput is one run in the runs command.
type RunOutput struct {
	ID          string `json:"id"`
	Environment string `json:"environment"`
	Status      string `json:"status"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	Error       string `json:"error,omitempty"`
}

// RenderOutput is the JSON form of the render command.
type RenderOutput struct {
	Model   string `json:"model"`
	Dialect string `json:"dialect"`
	SQL     string `json:"sql"`
}

// PreviewOutput is the JSON form of the show command.
type PreviewOutput struct {
	Model   string           `json:"model"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// CheckOutput is one doctor check.
type CheckOutput struct {
	Group   string `json:"group"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}
