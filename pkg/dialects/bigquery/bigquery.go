// Package bigquery provides the BigQuery dialect. It is render-only: no
// adapter executes it, but `olistdw render --dialect bigquery` prints the
// canonical SQL for each model with it.
package bigquery

import (
	"fmt"

	"github.com/leapstack-labs/olistdw/pkg/core"
	"github.com/leapstack-labs/olistdw/pkg/dialect"
)

func init() {
	dialect.Register(BigQuery)
}

// BigQuery is the BigQuery standard SQL dialect configuration.
var BigQuery = dialect.NewDialect("bigquery").
	Identifiers("`", "`", "\\`", dialect.NormCaseSensitive).
	Type(core.TypeString, "STRING").
	Type(core.TypeNumeric, "NUMERIC").
	Type(core.TypeInteger, "INT64").
	Type(core.TypeTimestamp, "TIMESTAMP").
	SafeTimestamp(func(expr, pattern string) string {
		return fmt.Sprintf("SAFE.PARSE_TIMESTAMP('%s', %s)", pattern, expr)
	}).
	ReplaceStyle(dialect.ReplaceCreateOrReplace).
	WithReservedWords(
		"all", "and", "any", "array", "as", "asc", "between", "by", "case",
		"cast", "create", "cross", "current", "default", "desc", "distinct",
		"else", "end", "exists", "false", "from", "full", "group", "having",
		"if", "in", "inner", "interval", "into", "is", "join", "left", "like",
		"limit", "not", "null", "on", "or", "order", "outer", "right", "rows",
		"select", "set", "struct", "then", "to", "true", "union", "using",
		"when", "where", "window", "with",
	).
	Build()
