package engine

// seeds.go - CSV seed data loading

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/leapstack-labs/olistdw/pkg/core"
	"golang.org/x/sync/errgroup"
)

// SeedResult describes one raw table load.
type SeedResult struct {
	Table string
	Path  string
	// Rows is the number of records loaded.
	Rows int64
	// Dropped counts records skipped because they could not be parsed or
	// their field count did not match the header.
	Dropped int
	// Missing is set when no seed file exists for the table.
	Missing bool
}

// LoadSeeds loads <seeds_dir>/<table>.csv into every raw source table,
// replacing the table's previous contents. Files load concurrently, at most
// Threads at a time. Tables without a seed file are left untouched.
func (e *Engine) LoadSeeds(ctx context.Context) ([]SeedResult, error) {
	if e.seedsDir == "" {
		return nil, nil
	}

	e.logger.Debug("loading seeds", "seeds_dir", e.seedsDir, "threads", e.threads)

	wh, err := e.ensureWarehouse(ctx)
	if err != nil {
		return nil, err
	}

	sources := e.catalog.Sources()
	results := make([]SeedResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.threads)

	for i, src := range sources {
		path := filepath.Join(e.seedsDir, src.Ref.Table+".csv")
		results[i] = SeedResult{Table: src.Ref.Table, Path: path}

		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			results[i].Missing = true
			e.logger.Info("no seed file, skipping", "table", src.Ref.Table, "path", path)
			continue
		}

		g.Go(func() error {
			loadPath, rows, dropped, cleanup, err := prepareSeed(path, src)
			if err != nil {
				return fmt.Errorf("failed to load seed %s: %w", filepath.Base(path), err)
			}
			defer cleanup()

			if dropped > 0 {
				e.logger.Warn("dropped malformed seed records", "table", src.Ref.Table, "dropped", dropped)
			}

			if err := wh.LoadSource(gctx, src.Ref.Table, loadPath); err != nil {
				return fmt.Errorf("failed to load seed %s: %w", filepath.Base(path), err)
			}

			results[i].Rows = rows
			results[i].Dropped = dropped
			e.logger.Debug("seed loaded", "table", src.Ref.Table, "rows", rows)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// prepareSeed checks the header of a seed file against the declared raw
// columns and drops records that fail to parse or whose field count
// differs from the header. When
// records are dropped the rest are written to a temporary file, which
// cleanup removes.
func prepareSeed(path string, src core.SourceTable) (loadPath string, rows int64, dropped int, cleanup func(), err error) {
	cleanup = func() {}

	f, err := os.Open(path) //nolint:gosec // seed paths come from configuration
	if err != nil {
		return "", 0, 0, cleanup, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r, src)
	if err != nil {
		return "", 0, 0, cleanup, err
	}

	var good [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			dropped++
			continue
		}
		if err != nil {
			return "", 0, 0, cleanup, fmt.Errorf("failed to read CSV: %w", err)
		}
		if len(rec) != len(header) {
			dropped++
			continue
		}
		good = append(good, rec)
	}

	if dropped == 0 {
		return path, int64(len(good)), 0, cleanup, nil
	}

	tmp, err := os.CreateTemp("", "olistdw-"+src.Ref.Table+"-*.csv")
	if err != nil {
		return "", 0, 0, cleanup, fmt.Errorf("failed to create cleaned seed: %w", err)
	}
	cleanup = func() { _ = os.Remove(tmp.Name()) }

	w := csv.NewWriter(tmp)
	_ = w.Write(header)
	_ = w.WriteAll(good)
	if err := errors.Join(w.Error(), tmp.Close()); err != nil {
		cleanup()
		return "", 0, 0, func() {}, fmt.Errorf("failed to write cleaned seed: %w", err)
	}
	return tmp.Name(), int64(len(good)), dropped, cleanup, nil
}

// readHeader reads the first record and checks it against the declared
// columns of src. A leading byte order mark is ignored.
func readHeader(r *csv.Reader, src core.SourceTable) ([]string, error) {
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !slices.Equal(header, src.Columns) {
		return nil, fmt.Errorf("header %v does not match the columns of %s %v",
			header, src.Ref, src.Columns)
	}
	return header, nil
}

// SeedCheck is the result of inspecting one seed file without loading it.
type SeedCheck struct {
	Table   string
	Path    string
	Missing bool
	Err     error
}

// CheckSeeds reports, for every raw table, whether its seed file exists and
// has the expected header. Nothing is loaded.
func (e *Engine) CheckSeeds() []SeedCheck {
	sources := e.catalog.Sources()
	checks := make([]SeedCheck, 0, len(sources))
	for _, src := range sources {
		path := filepath.Join(e.seedsDir, src.Ref.Table+".csv")
		c := SeedCheck{Table: src.Ref.Table, Path: path}

		f, err := os.Open(path) //nolint:gosec // seed paths come from configuration
		switch {
		case errors.Is(err, os.ErrNotExist):
			c.Missing = true
		case err != nil:
			c.Err = err
		default:
			_, c.Err = readHeader(csv.NewReader(f), src)
			_ = f.Close()
		}
		checks = append(checks, c)
	}
	return checks
}
