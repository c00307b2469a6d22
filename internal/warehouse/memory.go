package warehouse

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/leapstack-labs/olistdw/internal/casting"
	"github.com/leapstack-labs/olistdw/internal/relation"
	"github.com/leapstack-labs/olistdw/internal/sqlgen"
	"github.com/leapstack-labs/olistdw/pkg/core"
)

// Memory evaluates models in process. Tables are keyed by "schema.name".
type Memory struct {
	schemas core.SchemaConfig
	models  sqlgen.ModelSource
	logger  *slog.Logger

	mu     sync.RWMutex
	tables map[string]*relation.Relation
}

var _ Warehouse = (*Memory)(nil)

// NewMemory returns an empty in-process warehouse.
func NewMemory(schemas core.SchemaConfig, models sqlgen.ModelSource, logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Memory{
		schemas: schemas.WithDefaults(),
		models:  models,
		logger:  logger,
		tables:  make(map[string]*relation.Relation),
	}
}

// Name implements Warehouse.
func (w *Memory) Name() string { return MemoryType }

// Prepare implements Warehouse. Schemas are implicit in memory.
func (w *Memory) Prepare(context.Context) error { return nil }

// Close implements Warehouse.
func (w *Memory) Close() error { return nil }

// PutSource replaces a raw source table.
func (w *Memory) PutSource(table string, rel *relation.Relation) {
	w.put(w.schemas.Source+"."+table, rel)
}

// LoadSource implements Warehouse.
func (w *Memory) LoadSource(ctx context.Context, table, path string) error {
	f, err := os.Open(path) //nolint:gosec // seed paths come from configuration
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rel := relation.New(header...)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV: %w", err)
		}
		row := make([]any, len(rec))
		for i, v := range rec {
			if v != "" {
				row[i] = v
			}
		}
		rel.Append(row...)
	}

	w.PutSource(table, rel)
	w.logger.Debug("loaded source", "table", table, "rows", rel.Len())
	return nil
}

// Table returns the current table of m.
func (w *Memory) Table(m *core.Model) (*relation.Relation, bool) {
	return w.get(w.key(m))
}

// Materialize implements Warehouse.
func (w *Memory) Materialize(ctx context.Context, m *core.Model) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var (
		out *relation.Relation
		res Result
		err error
	)
	if m.IsStaging() {
		out, res, err = w.staging(m)
	} else {
		out, res, err = w.target(m)
	}
	if err != nil {
		return Result{}, err
	}

	w.put(w.key(m), out)
	res.Rows = int64(out.Len())
	return res, nil
}

// Preview implements Warehouse.
func (w *Memory) Preview(_ context.Context, m *core.Model, limit int) (*relation.Relation, error) {
	t, ok := w.Table(m)
	if !ok {
		return nil, fmt.Errorf("%s: %w", w.key(m), ErrNotMaterialized)
	}
	out := t.Clone()
	if limit > 0 && len(out.Rows) > limit {
		out.Rows = out.Rows[:limit]
	}
	return out, nil
}

func (w *Memory) staging(m *core.Model) (*relation.Relation, Result, error) {
	key := w.schemas.Source + "." + m.Source.Ref.Table
	src, ok := w.get(key)
	if !ok {
		return nil, Result{}, fmt.Errorf("source table %s: %w", key, ErrNotMaterialized)
	}
	res := Result{Inputs: map[string]int64{m.Source.Ref.Table: int64(src.Len())}}

	idx := make([]int, len(m.Rules))
	names := make([]string, len(m.Rules))
	for i, rule := range m.Rules {
		idx[i] = src.Index(rule.Column)
		if idx[i] < 0 {
			return nil, res, fmt.Errorf("column %s does not exist in %s", rule.Column, key)
		}
		names[i] = rule.OutputName()
	}

	out := &relation.Relation{Columns: names, Rows: make([][]any, 0, src.Len())}
	for n, row := range src.Rows {
		vals := make([]any, len(m.Rules))
		for i, rule := range m.Rules {
			v, err := casting.Apply(rule, row[idx[i]])
			if err != nil {
				return nil, res, fmt.Errorf("row %d: %w", n+1, err)
			}
			vals[i] = v
		}
		out.Rows = append(out.Rows, vals)
	}
	return out, res, nil
}

func (w *Memory) target(m *core.Model) (*relation.Relation, Result, error) {
	res := Result{Inputs: make(map[string]int64)}

	acc, err := w.input(m.From, &res)
	if err != nil {
		return nil, res, err
	}
	for _, j := range m.Joins {
		right, err := w.input(j.Model, &res)
		if err != nil {
			return nil, res, err
		}
		lk := make([]string, len(j.On))
		rk := make([]string, len(j.On))
		for i, k := range j.On {
			lk[i] = k.LeftModel + "." + k.LeftColumn
			rk[i] = j.Model + "." + k.RightColumn
		}
		if acc, err = relation.InnerJoin(acc, right, lk, rk); err != nil {
			return nil, res, err
		}
	}

	cols := make([]string, len(m.Columns))
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		cols[i] = c.Model + "." + c.Column
		names[i] = c.OutputName()
	}
	out, err := acc.Project(cols, names)
	if err != nil {
		return nil, res, err
	}
	return out, res, nil
}

// input reads an upstream model's table with its columns prefixed by the
// model name and records its row count.
func (w *Memory) input(name string, res *Result) (*relation.Relation, error) {
	up, ok := w.models.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown upstream model %q", name)
	}
	t, ok := w.get(w.key(up))
	if !ok {
		return nil, fmt.Errorf("upstream %s: %w", name, ErrNotMaterialized)
	}
	res.Inputs[name] = int64(t.Len())
	return t.Prefix(name), nil
}

func (w *Memory) key(m *core.Model) string {
	return w.schemas.For(m.Config.Destination) + "." + m.Name
}

func (w *Memory) get(key string) (*relation.Relation, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	t, ok := w.tables[key]
	return t, ok
}

func (w *Memory) put(key string, rel *relation.Relation) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tables[key] = rel
}
