package warehouse

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/olistdw/internal/relation"
	"github.com/leapstack-labs/olistdw/internal/sqlgen"
	"github.com/leapstack-labs/olistdw/pkg/adapter"
	"github.com/leapstack-labs/olistdw/pkg/core"
)

// SQL materializes models by executing rendered statements on a connected
// adapter.
type SQL struct {
	name     string
	db       adapter.Adapter
	renderer *sqlgen.Renderer
	logger   *slog.Logger
}

var (
	_ Warehouse = (*SQL)(nil)
	_ Describer = (*SQL)(nil)
)

// NewSQL wraps a connected adapter.
func NewSQL(name string, db adapter.Adapter, schemas core.SchemaConfig, models sqlgen.ModelSource, logger *slog.Logger) *SQL {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQL{
		name:     name,
		db:       db,
		renderer: sqlgen.New(db.Dialect(), schemas, models),
		logger:   logger,
	}
}

// Name implements Warehouse.
func (w *SQL) Name() string { return w.name }

// Renderer returns the renderer bound to the adapter's dialect.
func (w *SQL) Renderer() *sqlgen.Renderer { return w.renderer }

// Close implements Warehouse.
func (w *SQL) Close() error { return w.db.Close() }

// Prepare implements Warehouse.
func (w *SQL) Prepare(ctx context.Context) error {
	s := w.renderer.Schemas
	for _, schema := range []string{s.Source, s.Staging, s.Target} {
		stmt := w.db.Dialect().CreateSchemaStmt(schema)
		if err := w.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema %s: %w", schema, err)
		}
	}
	return nil
}

// LoadSource implements Warehouse.
func (w *SQL) LoadSource(ctx context.Context, table, path string) error {
	qualified := w.db.Dialect().QualifiedName(w.renderer.Schemas.Source, table)
	if err := w.db.LoadCSV(ctx, qualified, path); err != nil {
		return fmt.Errorf("loading %s: %w", qualified, err)
	}
	w.logger.Debug("loaded source", "table", qualified, "path", path)
	return nil
}

// Materialize implements Warehouse. Input tables are counted before the
// replace runs, so a missing input fails the model without touching its
// table.
func (w *SQL) Materialize(ctx context.Context, m *core.Model) (Result, error) {
	res := Result{Inputs: make(map[string]int64)}

	if m.IsStaging() {
		n, err := w.count(ctx, w.renderer.SourceTable(*m.Source))
		if err != nil {
			return res, err
		}
		res.Inputs[m.Source.Ref.Table] = n
	} else {
		for _, name := range m.Upstream() {
			up, ok := w.renderer.Models.Get(name)
			if !ok {
				return res, fmt.Errorf("unknown upstream model %q", name)
			}
			n, err := w.count(ctx, w.renderer.Table(up))
			if err != nil {
				return res, err
			}
			res.Inputs[name] = n
		}
	}

	stmts, err := w.renderer.ReplaceStmts(m)
	if err != nil {
		return res, err
	}
	if err := w.db.ExecTx(ctx, stmts...); err != nil {
		return res, &StatementError{Stmt: stmts[len(stmts)-1], Err: err}
	}

	n, err := w.count(ctx, w.renderer.Table(m))
	if err != nil {
		return res, err
	}
	res.Rows = n
	return res, nil
}

// Preview implements Warehouse.
func (w *SQL) Preview(ctx context.Context, m *core.Model, limit int) (*relation.Relation, error) {
	q := "SELECT * FROM " + w.renderer.Table(m)
	if limit > 0 {
		q = fmt.Sprintf("%s LIMIT %d", q, limit)
	}
	rows, err := w.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", w.renderer.Table(m), err)
	}
	cols, data, err := adapter.CollectRows(rows, limit)
	if err != nil {
		return nil, err
	}
	return &relation.Relation{Columns: cols, Rows: data}, nil
}

// DescribeSource implements Describer.
func (w *SQL) DescribeSource(ctx context.Context, src core.SourceTable) (*core.TableMetadata, error) {
	return w.db.GetTableMetadata(ctx, w.renderer.SourceTable(src))
}

// Describe implements Describer.
func (w *SQL) Describe(ctx context.Context, m *core.Model) (*core.TableMetadata, error) {
	return w.db.GetTableMetadata(ctx, w.renderer.Table(m))
}

func (w *SQL) count(ctx context.Context, table string) (int64, error) {
	rows, err := w.db.Query(ctx, sqlgen.CountQuery(table))
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %w", table, ErrNotMaterialized, err)
	}
	_, data, err := adapter.CollectRows(rows, 1)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %w", table, ErrNotMaterialized, err)
	}
	if len(data) == 0 || len(data[0]) == 0 {
		return 0, fmt.Errorf("counting %s: no result", table)
	}
	switch v := data[0][0].(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case string:
		var n int64
		if _, err := fmt.Sscan(v, &n); err != nil {
			return 0, fmt.Errorf("counting %s: %w", table, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("counting %s: unexpected count type %T", table, v)
	}
}
