// Package warehouse materializes models into a storage backend.
//
// Two backends exist: SQL, which renders each model through sqlgen and
// executes it on a connected adapter, and Memory, which evaluates the same
// semantics in process. Both replace a model's table only after its full
// result has been computed.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/olistdw/internal/relation"
	"github.com/leapstack-labs/olistdw/internal/sqlgen"
	"github.com/leapstack-labs/olistdw/pkg/adapter"
	"github.com/leapstack-labs/olistdw/pkg/core"
)

// MemoryType is the target type selecting the in-process backend.
const MemoryType = "memory"

// ErrNotMaterialized is returned when a model reads a relation that does
// not exist yet.
var ErrNotMaterialized = errors.New("relation has not been materialized")

// Warehouse stores source tables and materializes models.
type Warehouse interface {
	// Name returns the backend name (memory, duckdb, postgres).
	Name() string

	// Prepare creates the source, staging and target schemas.
	Prepare(ctx context.Context) error

	// LoadSource replaces a raw source table with the rows of a headed CSV
	// file. Every column is text; empty fields are NULL.
	LoadSource(ctx context.Context, table, path string) error

	// Materialize recomputes m and atomically replaces its table.
	Materialize(ctx context.Context, m *core.Model) (Result, error)

	// Preview returns at most limit rows of m's current table.
	Preview(ctx context.Context, m *core.Model, limit int) (*relation.Relation, error)

	Close() error
}

// Describer is implemented by warehouses that can report the physical
// columns of a table.
type Describer interface {
	DescribeSource(ctx context.Context, src core.SourceTable) (*core.TableMetadata, error)
	Describe(ctx context.Context, m *core.Model) (*core.TableMetadata, error)
}

// Result describes one materialization.
type Result struct {
	// Rows is the number of rows written.
	Rows int64
	// Inputs maps each input relation (raw table or upstream model) to its
	// row count at read time.
	Inputs map[string]int64
}

// InputRows returns the summed input row count.
func (r Result) InputRows() int64 {
	var n int64
	for _, v := range r.Inputs {
		n += v
	}
	return n
}

// EmptyInputs returns the inputs that had no rows, sorted.
func (r Result) EmptyInputs() []string {
	var names []string
	for name, n := range r.Inputs {
		if n == 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// StatementError reports a SQL statement the backend rejected.
type StatementError struct {
	Stmt string
	Err  error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("executing %q: %v", firstLine(e.Stmt), e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// Expr returns the leading line of the failing statement.
func (e *StatementError) Expr() string {
	return firstLine(e.Stmt)
}

// Open returns the backend selected by target.Type. SQL backends are
// connected before Open returns.
func Open(ctx context.Context, target core.TargetConfig, schemas core.SchemaConfig, models sqlgen.ModelSource, logger *slog.Logger) (Warehouse, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if target.Type == MemoryType {
		return NewMemory(schemas, models, logger), nil
	}

	cfg := target.AdapterConfig()
	db, err := adapter.NewAdapter(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database adapter: %w", err)
	}
	if err := db.Connect(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewSQL(target.Type, db, schemas, models, logger), nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
