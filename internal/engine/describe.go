package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/leapstack-labs/olistdw/internal/warehouse"
	"github.com/leapstack-labs/olistdw/pkg/adapter"
	"github.com/leapstack-labs/olistdw/pkg/core"
)

// TableCheck compares a warehouse table with the columns the catalog
// declares for it.
type TableCheck struct {
	// Table is the raw table or model name.
	Table string
	// Source is true for raw tables.
	Source bool
	// Absent means the table does not exist yet.
	Absent bool
	// MissingColumns lists declared columns the table lacks.
	MissingColumns []string
	Rows           int64
	Err            error
}

// CheckTables describes every raw table and every model table in the
// warehouse. It returns nil when the backend cannot describe tables.
func (e *Engine) CheckTables(ctx context.Context) ([]TableCheck, error) {
	wh, err := e.ensureWarehouse(ctx)
	if err != nil {
		return nil, err
	}
	d, ok := wh.(warehouse.Describer)
	if !ok {
		e.logger.Debug("warehouse cannot describe tables", "backend", wh.Name())
		return nil, nil
	}

	var checks []TableCheck
	for _, src := range e.catalog.Sources() {
		meta, err := d.DescribeSource(ctx, src)
		c := tableCheck(src.Ref.Table, src.Columns, meta, err)
		c.Source = true
		checks = append(checks, c)
	}
	for _, m := range e.catalog.Models() {
		cols, _ := e.catalog.Schema(m.Name)
		names := make([]string, len(cols))
		for i, col := range cols {
			names[i] = col.Name
		}
		meta, err := d.Describe(ctx, m)
		checks = append(checks, tableCheck(m.Name, names, meta, err))
	}
	return checks, nil
}

func tableCheck(table string, declared []string, meta *core.TableMetadata, err error) TableCheck {
	c := TableCheck{Table: table}
	switch {
	case errors.Is(err, adapter.ErrTableNotFound):
		c.Absent = true
		return c
	case err != nil:
		c.Err = err
		return c
	}

	have := make(map[string]bool, len(meta.Columns))
	for _, col := range meta.Columns {
		have[strings.ToLower(col.Name)] = true
	}
	for _, name := range declared {
		if !have[strings.ToLower(name)] {
			c.MissingColumns = append(c.MissingColumns, name)
		}
	}
	c.Rows = meta.RowCount
	return c
}
