// Package engine runs the Olist model graph against a warehouse.
// It resolves execution order, materializes each model, propagates failures
// to dependents and records every run in the state store.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/leapstack-labs/olistdw/internal/project"
	"github.com/leapstack-labs/olistdw/internal/state"
	"github.com/leapstack-labs/olistdw/internal/warehouse"
	"github.com/leapstack-labs/olistdw/pkg/core"
)

// DefaultThreads bounds concurrent seed loads when Config.Threads is unset.
const DefaultThreads = 4

// Engine orchestrates seed loading and model materialization.
type Engine struct {
	// Warehouse (lazy initialized)
	wh         warehouse.Warehouse
	whPrepared bool
	whMu       sync.Mutex

	logger      *slog.Logger
	store       core.Store
	ownsStore   bool
	catalog     *project.Catalog
	schemas     core.SchemaConfig
	target      core.TargetConfig
	seedsDir    string
	environment string
	threads     int
}

// Config holds engine configuration.
type Config struct {
	// Catalog is the model graph. Nil uses the Olist catalog.
	Catalog *project.Catalog
	// Schemas names the source, staging and target namespaces.
	Schemas core.SchemaConfig
	// SeedsDir is the directory holding <table>.csv raw files
	SeedsDir string
	// StatePath is the path to the SQLite state database. Empty keeps
	// history in memory.
	StatePath string
	// Environment is the current environment (dev, staging, prod)
	Environment string
	// Target selects and configures the warehouse. Nil means an in-memory
	// DuckDB database.
	Target *core.TargetConfig
	// Threads bounds concurrent seed loads.
	Threads int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger

	// Warehouse overrides Target with an already open backend.
	Warehouse warehouse.Warehouse
	// Store overrides StatePath with an already open store.
	Store core.Store
}

// New creates an engine. The warehouse is opened on first use.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	schemas := cfg.Schemas.WithDefaults()

	catalog := cfg.Catalog
	if catalog == nil {
		var err error
		if catalog, err = project.Olist(schemas.Source); err != nil {
			return nil, fmt.Errorf("failed to build model catalog: %w", err)
		}
	}

	env := cfg.Environment
	if env == "" {
		env = "dev"
	}

	target := core.TargetConfig{Type: "duckdb"}
	if cfg.Target != nil {
		target = *cfg.Target
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = DefaultThreads
	}

	logger.Debug("initializing engine", "environment", env, "target", target.Type, "models", len(catalog.Names()))

	store := cfg.Store
	ownsStore := false
	if store == nil {
		s, err := openStore(cfg.StatePath, logger)
		if err != nil {
			return nil, err
		}
		store = s
		ownsStore = true
	}

	return &Engine{
		wh:          cfg.Warehouse,
		logger:      logger,
		store:       store,
		ownsStore:   ownsStore,
		catalog:     catalog,
		schemas:     schemas,
		target:      target,
		seedsDir:    cfg.SeedsDir,
		environment: env,
		threads:     threads,
	}, nil
}

func openStore(path string, logger *slog.Logger) (*state.SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(path); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize state schema: %w", err)
	}
	return store, nil
}

// ensureWarehouse lazily opens the warehouse and creates its schemas.
func (e *Engine) ensureWarehouse(ctx context.Context) (warehouse.Warehouse, error) {
	e.whMu.Lock()
	defer e.whMu.Unlock()

	if e.wh == nil {
		e.logger.Debug("opening warehouse", "type", e.target.Type)
		wh, err := warehouse.Open(ctx, e.target, e.schemas, e.catalog, e.logger)
		if err != nil {
			return nil, err
		}
		e.wh = wh
	}

	if !e.whPrepared {
		if err := e.wh.Prepare(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare warehouse: %w", err)
		}
		e.whPrepared = true
		e.logger.Debug("warehouse ready", "backend", e.wh.Name())
	}
	return e.wh, nil
}

// Close releases the warehouse and the state store.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	var errs []error
	if e.wh != nil {
		if err := e.wh.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.ownsStore && e.store != nil {
		if err := e.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing engine: %v", errs)
	}
	return nil
}

// --- Getters (public accessors) ---

// Catalog returns the model catalog.
func (e *Engine) Catalog() *project.Catalog {
	return e.catalog
}

// Store returns the state store.
func (e *Engine) Store() core.Store {
	return e.store
}

// Schemas returns the resolved schema layout.
func (e *Engine) Schemas() core.SchemaConfig {
	return e.schemas
}

// Environment returns the default environment name.
func (e *Engine) Environment() string {
	return e.environment
}

// SeedsDir returns the seeds directory.
func (e *Engine) SeedsDir() string {
	return e.seedsDir
}

// Target returns the warehouse target configuration.
func (e *Engine) Target() core.TargetConfig {
	return e.target
}

// Connect opens the warehouse and creates its schemas if that has not
// happened yet.
func (e *Engine) Connect(ctx context.Context) error {
	_, err := e.ensureWarehouse(ctx)
	return err
}
