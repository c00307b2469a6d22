// Package dialect provides the PostgreSQL SQL dialect definition.
// This package is lightweight and has no database driver dependencies,
// so rendering and manifest export can use it without opening a database.
package dialect

import (
	"fmt"

	"github.com/leapstack-labs/olistdw/pkg/core"
	"github.com/leapstack-labs/olistdw/pkg/dialect"
)

func init() {
	dialect.Register(Postgres)
}

// SafeParseFunction is the helper installed by the setup statements.
const SafeParseFunction = "olistdw_safe_parse_timestamp"

// safeParseDDL installs the timestamp helper. Postgres has no TRY_ cast, so
// the value is shape-checked first and any cast exception maps to NULL.
var safeParseDDL = `CREATE OR REPLACE FUNCTION ` + SafeParseFunction + `(raw text)
RETURNS timestamp
LANGUAGE plpgsql IMMUTABLE AS $fn$
BEGIN
    IF raw IS NULL OR raw !~ '^` + core.TimestampShape + `$' THEN
        RETURN NULL;
    END IF;
    RETURN raw::timestamp;
EXCEPTION WHEN others THEN
    RETURN NULL;
END;
$fn$`

// postgresReservedWords contains common PostgreSQL reserved words.
// This is a manually maintained list of frequently problematic identifiers.
var postgresReservedWords = []string{
	"user", "order", "group", "table", "select", "from", "where", "index",
	"all", "and", "any", "array", "as", "asc", "asymmetric", "authorization",
	"between", "binary", "both", "case", "cast", "check", "collate", "column",
	"constraint", "create", "cross", "current_catalog", "current_date",
	"current_role", "current_schema", "current_time", "current_timestamp",
	"current_user", "default", "deferrable", "desc", "distinct", "do", "else",
	"end", "except", "false", "fetch", "for", "foreign", "freeze", "full",
	"grant", "having", "ilike", "in", "initially", "inner", "intersect",
	"into", "is", "isnull", "join", "lateral", "leading", "left", "like",
	"limit", "localtime", "localtimestamp", "natural", "not", "notnull",
	"null", "offset", "on", "only", "or", "outer", "overlaps", "placing",
	"primary", "references", "returning", "right", "session_user", "similar",
	"some", "symmetric", "then", "to", "trailing", "true", "union", "unique",
	"using", "variadic", "verbose", "when", "window", "with",
}

// Postgres is the PostgreSQL dialect configuration.
var Postgres = dialect.NewDialect("postgres").
	Identifiers(`"`, `"`, `""`, dialect.NormLowercase). // Postgres normalizes unquoted identifiers to lowercase
	DefaultSchema("public").
	PlaceholderStyle(dialect.PlaceholderDollar).
	Type(core.TypeString, "TEXT").
	Type(core.TypeNumeric, "NUMERIC").
	Type(core.TypeInteger, "BIGINT").
	Type(core.TypeTimestamp, "TIMESTAMP").
	SafeTimestamp(func(expr, _ string) string {
		return fmt.Sprintf("%s(%s)", SafeParseFunction, expr)
	}).
	ReplaceStyle(dialect.ReplaceDropCreate).
	Setup(safeParseDDL).
	WithReservedWords(postgresReservedWords...).
	Build()
