// Package casting implements the column rules that turn raw string values
// into typed staging values.
//
// Only timestamp rules are safe: a value that does not match
// TimestampPattern becomes NULL. Every other rule is strict and reports a
// *CastError for malformed input. NULL input stays NULL under every rule.
package casting

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/olistdw/pkg/core"
	"github.com/shopspring/decimal"
)

// TimestampPattern is the strftime pattern every raw timestamp must match.
const TimestampPattern = "%Y-%m-%d %H:%M:%S"

// TimestampLayout is TimestampPattern expressed as a Go time layout.
const TimestampLayout = "2006-01-02 15:04:05"

var errNotInteger = errors.New("not an integer")

var (
	integerRe   = regexp.MustCompile(`^` + core.IntegerShape + `$`)
	timestampRe = regexp.MustCompile(`^` + core.TimestampShape + `$`)
)

// CastError reports a raw value that a strict rule could not convert.
type CastError struct {
	Column string
	Expr   string
	Value  string
	Err    error
}

func (e *CastError) Error() string {
	return fmt.Sprintf("column %s: %s failed for value %q: %v", e.Column, e.Expr, e.Value, e.Err)
}

func (e *CastError) Unwrap() error {
	return e.Err
}

// Apply converts one raw value according to rule.
//
// raw is nil (NULL) or a string; values a driver already typed are
// formatted back to text first. The result is nil, string, int64,
// decimal.Decimal or time.Time depending on rule.Type.
func Apply(rule core.CastRule, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	s, ok := text(raw)
	if !ok {
		return nil, nil
	}

	switch rule.Type {
	case core.TypeString:
		return s, nil
	case core.TypeTimestamp:
		t, ok := ParseTimestamp(s)
		if !ok {
			return nil, nil
		}
		return t, nil
	case core.TypeInteger:
		m := integerRe.FindStringSubmatch(s)
		if m == nil {
			return nil, castErr(rule, s, errNotInteger)
		}
		v, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, castErr(rule, s, err)
		}
		return v, nil
	case core.TypeNumeric:
		v, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil, castErr(rule, s, err)
		}
		return v, nil
	default:
		return nil, castErr(rule, s, fmt.Errorf("unknown semantic type %q", rule.Type))
	}
}

// ParseTimestamp parses s with TimestampLayout in UTC. It reports false
// instead of an error so callers can map mismatches to NULL.
func ParseTimestamp(s string) (time.Time, bool) {
	if !timestampRe.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Expr returns the canonical expression text for rule, as it appears in
// error messages and the manifest.
func Expr(rule core.CastRule) string {
	switch rule.Type {
	case core.TypeTimestamp:
		return fmt.Sprintf("SAFE.PARSE_TIMESTAMP('%s', %s)", TimestampPattern, rule.Column)
	case core.TypeNumeric:
		return fmt.Sprintf("CAST(%s AS NUMERIC)", rule.Column)
	case core.TypeInteger:
		return fmt.Sprintf("CAST(%s AS INT64)", rule.Column)
	default:
		return fmt.Sprintf("CAST(%s AS STRING)", rule.Column)
	}
}

func castErr(rule core.CastRule, value string, err error) *CastError {
	return &CastError{Column: rule.Column, Expr: Expr(rule), Value: value, Err: err}
}

func text(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}
