package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/olistdw/pkg/core"
)

const modelRunColumns = `id, run_id, model, status, rows_affected, input_rows, started_at, completed_at, error, execution_ms`

// RecordModelRun inserts a model run. Empty ID, status and start time are
// filled in.
func (s *SQLiteStore) RecordModelRun(mr *core.ModelRun) error {
	if s.db == nil {
		return errNotOpened
	}

	if mr.ID == "" {
		mr.ID = generateID()
	}
	if mr.Status == "" {
		mr.Status = core.ModelRunStatusPending
	}
	if mr.StartedAt.IsZero() {
		mr.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx(),
		`INSERT INTO model_runs (`+modelRunColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mr.ID, mr.RunID, mr.Model, string(mr.Status), mr.RowsAffected, mr.InputRows,
		mr.StartedAt, mr.CompletedAt, nullString(mr.Error), mr.ExecutionMS,
	)
	if err != nil {
		return fmt.Errorf("failed to record model run: %w", err)
	}
	return nil
}

// UpdateModelRun updates a model run. Terminal statuses set completed_at.
func (s *SQLiteStore) UpdateModelRun(id string, u core.ModelRunUpdate) error {
	if s.db == nil {
		return errNotOpened
	}

	var completedAt *time.Time
	switch u.Status {
	case core.ModelRunStatusSuccess, core.ModelRunStatusFailed, core.ModelRunStatusSkipped:
		now := time.Now().UTC()
		completedAt = &now
	}

	res, err := s.db.ExecContext(ctx(),
		`UPDATE model_runs
		SET status = ?, rows_affected = ?, input_rows = ?, error = ?, execution_ms = ?, completed_at = ?
		WHERE id = ?`,
		string(u.Status), u.RowsAffected, u.InputRows, nullString(u.Error), u.ExecutionMS, completedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update model run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("model run not found: %s", id)
	}
	return nil
}

// GetModelRunsForRun retrieves all model runs of a run in recording order.
func (s *SQLiteStore) GetModelRunsForRun(runID string) ([]*core.ModelRun, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT `+modelRunColumns+` FROM model_runs WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get model runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*core.ModelRun
	for rows.Next() {
		mr, err := scanModelRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model run: %w", err)
		}
		out = append(out, mr)
	}
	return out, rows.Err()
}

// GetLatestModelRun retrieves the most recent run of a model, or nil.
func (s *SQLiteStore) GetLatestModelRun(model string) (*core.ModelRun, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	row := s.db.QueryRowContext(ctx(),
		`SELECT `+modelRunColumns+` FROM model_runs WHERE model = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`, model)
	mr, err := scanModelRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest model run: %w", err)
	}
	return mr, nil
}

func scanModelRun(row scanner) (*core.ModelRun, error) {
	var (
		mr          core.ModelRun
		status      string
		completedAt sql.NullTime
		errMsg      sql.NullString
	)
	err := row.Scan(&mr.ID, &mr.RunID, &mr.Model, &status, &mr.RowsAffected, &mr.InputRows,
		&mr.StartedAt, &completedAt, &errMsg, &mr.ExecutionMS)
	if err != nil {
		return nil, err
	}
	mr.Status = core.ModelRunStatus(status)
	mr.StartedAt = mr.StartedAt.UTC()
	mr.CompletedAt = timePtr(completedAt)
	mr.Error = errMsg.String
	return &mr, nil
}
