// Package dialect describes how the warehouse SQL for staging and target
// models is spelled in a particular engine.
//
// A Dialect knows identifier quoting, the engine type for each semantic
// column type, the safe timestamp parse expression and how to replace a
// table in one atomic step. Concrete dialects are registered from
// pkg/adapters/*/dialect and pkg/dialects/* packages.
package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/olistdw/pkg/core"
)

// NormalizationStrategy defines how unquoted identifiers are normalized.
type NormalizationStrategy int

const (
	// NormLowercase folds unquoted identifiers to lower case (Postgres).
	NormLowercase NormalizationStrategy = iota
	// NormCaseInsensitive compares case-insensitively but preserves case (DuckDB).
	NormCaseInsensitive
	// NormCaseSensitive keeps identifiers as written (BigQuery).
	NormCaseSensitive
)

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for every parameter.
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, ...
	PlaceholderDollar
)

// ReplaceStyle selects how a table is replaced by a new query result.
type ReplaceStyle int

const (
	// ReplaceCreateOrReplace issues a single CREATE OR REPLACE TABLE ... AS.
	ReplaceCreateOrReplace ReplaceStyle = iota
	// ReplaceDropCreate issues DROP TABLE IF EXISTS then CREATE TABLE ... AS.
	// Callers must run both statements in one transaction.
	ReplaceDropCreate
)

// IdentifierConfig defines identifier quoting rules.
type IdentifierConfig struct {
	Quote         string
	QuoteEnd      string
	Escape        string
	Normalization NormalizationStrategy
}

// SafeTimestampFunc renders an expression that parses expr with the strftime
// pattern and yields NULL when the value does not match.
type SafeTimestampFunc func(expr, pattern string) string

// StrictCastFunc renders a cast of expr to typeName that fails the
// statement for any value outside the shared raw shape. Engines whose
// plain CAST is more lenient than the in-process rule register one.
type StrictCastFunc func(expr, typeName string) string

// Dialect is the SQL spelling of one warehouse engine.
type Dialect struct {
	Name        string
	Identifiers IdentifierConfig

	DefaultSchema string
	Placeholder   PlaceholderStyle
	Replace       ReplaceStyle

	types         map[core.SemanticType]string
	safeTimestamp SafeTimestampFunc
	strictCasts   map[core.SemanticType]StrictCastFunc
	setup         []string
	reservedWords map[string]struct{}
}

// NormalizeName returns an unquoted identifier the way the catalog stores
// it. Case-insensitive engines keep the spelling used at creation.
func (d *Dialect) NormalizeName(name string) string {
	if d.Identifiers.Normalization == NormLowercase {
		return strings.ToLower(name)
	}
	return name
}

// IsReservedWord returns true if the word needs quoting when used as an identifier.
func (d *Dialect) IsReservedWord(word string) bool {
	_, ok := d.reservedWords[strings.ToLower(word)]
	return ok
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteIdentifierIfNeeded quotes an identifier only if it is a reserved word
// or is not a plain lower-case identifier.
func (d *Dialect) QuoteIdentifierIfNeeded(name string) string {
	if d.IsReservedWord(name) || !isPlainIdentifier(name) {
		return d.QuoteIdentifier(name)
	}
	return name
}

// QualifiedName returns schema.table with each part quoted when needed.
func (d *Dialect) QualifiedName(schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifierIfNeeded(table)
	}
	return d.QuoteIdentifierIfNeeded(schema) + "." + d.QuoteIdentifierIfNeeded(table)
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default:
		return "?"
	}
}

// TypeName returns the engine type used for a semantic type.
func (d *Dialect) TypeName(t core.SemanticType) string {
	if name, ok := d.types[t]; ok {
		return name
	}
	return d.types[core.TypeString]
}

// CastExpr renders a strict cast of expr to the semantic type t.
// Timestamp casts use the safe parse instead.
func (d *Dialect) CastExpr(expr string, t core.SemanticType) string {
	if t == core.TypeTimestamp {
		return d.SafeTimestampExpr(expr, "%Y-%m-%d %H:%M:%S")
	}
	if fn, ok := d.strictCasts[t]; ok {
		return fn(expr, d.TypeName(t))
	}
	return fmt.Sprintf("CAST(%s AS %s)", expr, d.TypeName(t))
}

// SafeTimestampExpr renders a parse of expr that yields NULL on mismatch.
func (d *Dialect) SafeTimestampExpr(expr, pattern string) string {
	if d.safeTimestamp == nil {
		return fmt.Sprintf("CAST(%s AS %s)", expr, d.TypeName(core.TypeTimestamp))
	}
	return d.safeTimestamp(expr, pattern)
}

// SetupStatements returns the statements that must run once per connection
// before any model SQL (helper functions, settings).
func (d *Dialect) SetupStatements() []string {
	return d.setup
}

// CreateSchemaStmt returns the statement creating schema if it is missing.
func (d *Dialect) CreateSchemaStmt(schema string) string {
	return "CREATE SCHEMA IF NOT EXISTS " + d.QuoteIdentifierIfNeeded(schema)
}

// ReplaceTableStmts returns the statements that replace table (already
// qualified) with the result of query.
func (d *Dialect) ReplaceTableStmts(table, query string) []string {
	if d.Replace == ReplaceDropCreate {
		return []string{
			"DROP TABLE IF EXISTS " + table,
			"CREATE TABLE " + table + " AS\n" + query,
		}
	}
	return []string{"CREATE OR REPLACE TABLE " + table + " AS\n" + query}
}

// CreateRawTableStmt returns a CREATE TABLE IF NOT EXISTS statement with
// every column typed as the dialect's string type.
func (d *Dialect) CreateRawTableStmt(table string, columns []string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = d.QuoteIdentifierIfNeeded(c) + " " + d.TypeName(core.TypeString)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(parts, ", "))
}

func isPlainIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect creates a new dialect builder with the given name.
// Defaults are ANSI double-quote identifiers and plain CAST for timestamps.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			Name: name,
			Identifiers: IdentifierConfig{
				Quote:         `"`,
				QuoteEnd:      `"`,
				Escape:        `""`,
				Normalization: NormLowercase,
			},
			types: map[core.SemanticType]string{
				core.TypeString:    "VARCHAR",
				core.TypeNumeric:   "NUMERIC",
				core.TypeInteger:   "BIGINT",
				core.TypeTimestamp: "TIMESTAMP",
			},
			strictCasts:   make(map[core.SemanticType]StrictCastFunc),
			reservedWords: make(map[string]struct{}),
		},
	}
}

// Identifiers configures identifier quoting and normalization.
func (b *Builder) Identifiers(quote, quoteEnd, escape string, norm NormalizationStrategy) *Builder {
	b.dialect.Identifiers = IdentifierConfig{
		Quote:         quote,
		QuoteEnd:      quoteEnd,
		Escape:        escape,
		Normalization: norm,
	}
	return b
}

// Type sets the engine type name for a semantic type.
func (b *Builder) Type(t core.SemanticType, name string) *Builder {
	b.dialect.types[t] = name
	return b
}

// SafeTimestamp sets the safe timestamp parse renderer.
func (b *Builder) SafeTimestamp(fn SafeTimestampFunc) *Builder {
	b.dialect.safeTimestamp = fn
	return b
}

// StrictCast overrides the plain CAST used for semantic type t.
func (b *Builder) StrictCast(t core.SemanticType, fn StrictCastFunc) *Builder {
	b.dialect.strictCasts[t] = fn
	return b
}

// ReplaceStyle sets how tables are replaced.
func (b *Builder) ReplaceStyle(style ReplaceStyle) *Builder {
	b.dialect.Replace = style
	return b
}

// Setup appends per-connection setup statements.
func (b *Builder) Setup(stmts ...string) *Builder {
	b.dialect.setup = append(b.dialect.setup, stmts...)
	return b
}

// DefaultSchema sets the default schema name.
func (b *Builder) DefaultSchema(schema string) *Builder {
	b.dialect.DefaultSchema = schema
	return b
}

// PlaceholderStyle sets the query parameter placeholder style.
func (b *Builder) PlaceholderStyle(style PlaceholderStyle) *Builder {
	b.dialect.Placeholder = style
	return b
}

// WithReservedWords adds words that must be quoted when used as identifiers.
func (b *Builder) WithReservedWords(words ...string) *Builder {
	for _, w := range words {
		b.dialect.reservedWords[strings.ToLower(w)] = struct{}{}
	}
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}
