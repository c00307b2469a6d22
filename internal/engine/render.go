package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/olistdw/internal/relation"
	"github.com/leapstack-labs/olistdw/internal/sqlgen"
	"github.com/leapstack-labs/olistdw/internal/warehouse"
	"github.com/leapstack-labs/olistdw/pkg/core"
	"github.com/leapstack-labs/olistdw/pkg/dialect"

	// Register the dialects models can be rendered in.
	_ "github.com/leapstack-labs/olistdw/pkg/adapters/duckdb/dialect"
	_ "github.com/leapstack-labs/olistdw/pkg/adapters/postgres/dialect"
	_ "github.com/leapstack-labs/olistdw/pkg/dialects/bigquery"
)

// canonicalDialect renders SQL when the target has no dialect of its own.
const canonicalDialect = "bigquery"

// Dialect resolves a dialect by name. Empty selects the target's dialect;
// the memory target renders in the canonical dialect.
func (e *Engine) Dialect(name string) (*dialect.Dialect, error) {
	if name == "" {
		name = e.target.Type
	}
	if name == warehouse.MemoryType {
		name = canonicalDialect
	}
	d, ok := dialect.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (available: %s)", name, strings.Join(dialect.List(), ", "))
	}
	return d, nil
}

// RenderModel returns the SELECT computing a model in the named dialect.
func (e *Engine) RenderModel(name, dialectName string) (string, error) {
	m, err := e.model(name)
	if err != nil {
		return "", err
	}
	d, err := e.Dialect(dialectName)
	if err != nil {
		return "", err
	}
	return sqlgen.New(d, e.schemas, e.catalog).Select(m)
}

// Preview returns at most limit rows of a model's current table.
func (e *Engine) Preview(ctx context.Context, name string, limit int) (*relation.Relation, error) {
	m, err := e.model(name)
	if err != nil {
		return nil, err
	}
	wh, err := e.ensureWarehouse(ctx)
	if err != nil {
		return nil, err
	}
	return wh.Preview(ctx, m, limit)
}

func (e *Engine) model(name string) (*core.Model, error) {
	m, ok := e.catalog.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown model %q", name)
	}
	return m, nil
}
