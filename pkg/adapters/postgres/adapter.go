// Package postgres provides the PostgreSQL warehouse adapter.
package postgres

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/olistdw/pkg/adapter"
	pgdialect "github.com/leapstack-labs/olistdw/pkg/adapters/postgres/dialect"
	"github.com/leapstack-labs/olistdw/pkg/dialect"
)

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the PostgreSQL dialect.
func (a *Adapter) Dialect() *dialect.Dialect {
	return pgdialect.Postgres
}

// Connect establishes a connection to PostgreSQL and installs the timestamp
// helper function.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildPostgresDSN(cfg)

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg

	if err := a.RunSetup(ctx, a.Dialect()); err != nil {
		_ = db.Close()
		a.DB = nil
		return err
	}
	return nil
}

// buildPostgresDSN constructs a key=value PostgreSQL connection string.
func buildPostgresDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		dsnValue(host), port, dsnValue(cfg.Database), dsnValue(sslmode))

	if cfg.Username != "" {
		dsn += " user=" + dsnValue(cfg.Username)
	}
	if cfg.Password != "" {
		dsn += " password=" + dsnValue(cfg.Password)
	}
	if cfg.Schema != "" {
		dsn += " search_path=" + dsnValue(cfg.Schema)
	}

	return dsn
}

// dsnValue quotes a value when libpq key=value syntax requires it.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return a.GetTableMetadataCommon(ctx, table, a.Dialect())
}

// LoadCSV replaces tableName with the CSV contents using COPY FROM STDIN.
// All columns are TEXT; empty fields are loaded as NULL. Drop, create and
// copy share one transaction so readers never see a half-loaded table.
func (a *Adapter) LoadCSV(ctx context.Context, tableName string, filePath string) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	file, err := os.Open(absPath) //nolint:gosec // seed paths come from configuration
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.ReuseRecord = false
	headers, err := readHeader(reader)
	if err != nil {
		return err
	}

	conn, err := a.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	n, err := copyCSV(ctx, conn, a.Dialect(), tableName, headers, reader)
	if err != nil {
		return fmt.Errorf("failed to load CSV: %w", err)
	}
	a.Logger.Debug("loaded csv", slog.String("table", tableName), slog.Int64("rows", n))
	return nil
}

// readHeader reads the first record, dropping a UTF-8 byte order mark from
// the first column name.
func readHeader(reader *csv.Reader) ([]string, error) {
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	return headers, nil
}

func copyCSV(ctx context.Context, conn *sql.Conn, d *dialect.Dialect, tableName string, headers []string, reader *csv.Reader) (int64, error) {
	var copied int64
	err := conn.Raw(func(driverConn any) error {
		pgxConn := driverConn.(*stdlib.Conn).Conn()

		tx, err := pgxConn.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+tableName); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, d.CreateRawTableStmt(tableName, headers)); err != nil {
			return err
		}

		schema, name := adapter.ParseQualifiedName(tableName, d)
		copied, err = tx.CopyFrom(ctx, pgx.Identifier{schema, name}, headers, &csvSource{reader: reader, width: len(headers)})
		if err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
	return copied, err
}

// csvSource streams CSV records into pgx.CopyFrom.
type csvSource struct {
	reader *csv.Reader
	width  int
	values []any
	err    error
}

func (s *csvSource) Next() bool {
	record, err := s.reader.Read()
	if errors.Is(err, io.EOF) {
		return false
	}
	if err != nil {
		s.err = err
		return false
	}
	if len(record) != s.width {
		s.err = fmt.Errorf("record has %d fields, header has %d", len(record), s.width)
		return false
	}
	s.values = make([]any, len(record))
	for i, v := range record {
		if v != "" {
			s.values[i] = v
		}
	}
	return true
}

func (s *csvSource) Values() ([]any, error) {
	return s.values, nil
}

func (s *csvSource) Err() error {
	return s.err
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
