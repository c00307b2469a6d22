// Package dialect provides the DuckDB SQL dialect definition.
// This package is lightweight and has no database driver dependencies,
// so rendering and manifest export can use it without opening a database.
package dialect

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/olistdw/pkg/core"
	"github.com/leapstack-labs/olistdw/pkg/dialect"
)

func init() {
	dialect.Register(DuckDB)
}

// NumericType holds every numeric staging column. Eighteen fractional
// digits keep geolocation coordinates exact.
const NumericType = "DECIMAL(38, 18)"

// DuckDB is the DuckDB dialect configuration.
var DuckDB = dialect.NewDialect("duckdb").
	Identifiers(`"`, `"`, `""`, dialect.NormCaseInsensitive).
	DefaultSchema("main").
	Type(core.TypeString, "VARCHAR").
	Type(core.TypeNumeric, NumericType).
	Type(core.TypeInteger, "BIGINT").
	Type(core.TypeTimestamp, "TIMESTAMP").
	SafeTimestamp(safeTimestamp).
	StrictCast(core.TypeInteger, strictInteger).
	ReplaceStyle(dialect.ReplaceCreateOrReplace).
	WithReservedWords(
		"all", "analyse", "analyze", "and", "any", "array", "as", "asc",
		"both", "case", "cast", "check", "collate", "column", "constraint",
		"create", "default", "desc", "distinct", "do", "else", "end", "except",
		"false", "fetch", "for", "foreign", "from", "grant", "group", "having",
		"in", "initially", "intersect", "into", "lateral", "leading", "limit",
		"not", "null", "offset", "on", "only", "or", "order", "pivot",
		"placing", "primary", "qualify", "references", "returning", "select",
		"some", "summarize", "table", "then", "to", "trailing", "true", "union",
		"unique", "unpivot", "using", "variadic", "when", "where", "window", "with",
	).
	Build()

// safeTimestamp checks the exact shape before parsing: TRY_STRPTIME on its
// own accepts unpadded fields such as '2017-1-2 3:04:05'. A CASE without
// ELSE yields NULL for NULL or mismatched input.
func safeTimestamp(expr, pattern string) string {
	return fmt.Sprintf("CASE WHEN regexp_full_match(%s, '%s') THEN TRY_STRPTIME(%s, '%s') END",
		expr, core.TimestampShape, expr, pattern)
}

// strictInteger rejects text that CAST(... AS BIGINT) would round, such
// as '1.5', '2.0' or '1e3', by raising through error().
func strictInteger(expr, typeName string) string {
	label := strings.ReplaceAll(fmt.Sprintf("CAST(%s AS %s)", expr, typeName), "'", "''")
	return fmt.Sprintf("CASE WHEN %[1]s IS NULL THEN NULL "+
		"WHEN regexp_full_match(%[1]s, '%[2]s') THEN CAST(regexp_extract(%[1]s, '%[2]s', 1) AS %[3]s) "+
		"ELSE error('%[4]s failed for value ' || %[1]s) END",
		expr, core.IntegerShape, typeName, label)
}
