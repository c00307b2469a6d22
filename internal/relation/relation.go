// Package relation implements the small in-process relational algebra the
// memory warehouse needs: projection and inner equi-joins over typed rows.
//
// Values are nil (NULL), string, int64, decimal.Decimal or time.Time.
// Row order is deterministic: joins emit left rows in order and, for each,
// matching right rows in order.
package relation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Relation is an ordered bag of rows with named columns.
type Relation struct {
	Columns []string
	Rows    [][]any
}

// New returns an empty relation with the given columns.
func New(columns ...string) *Relation {
	return &Relation{Columns: columns}
}

// Len returns the number of rows.
func (r *Relation) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Index returns the position of column, or -1.
func (r *Relation) Index(column string) int {
	for i, c := range r.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Append adds a row. It panics if the row width does not match.
func (r *Relation) Append(row ...any) {
	if len(row) != len(r.Columns) {
		panic(fmt.Sprintf("relation: row has %d values, want %d", len(row), len(r.Columns)))
	}
	r.Rows = append(r.Rows, row)
}

// Clone returns a copy that shares no row slices with r.
func (r *Relation) Clone() *Relation {
	out := &Relation{Columns: append([]string(nil), r.Columns...), Rows: make([][]any, len(r.Rows))}
	for i, row := range r.Rows {
		out.Rows[i] = append([]any(nil), row...)
	}
	return out
}

// Prefix returns r with every column renamed to prefix.column.
func (r *Relation) Prefix(prefix string) *Relation {
	cols := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		cols[i] = prefix + "." + c
	}
	return &Relation{Columns: cols, Rows: r.Rows}
}

// Project returns the listed columns under new names. names[i] is the output
// name of columns[i].
func (r *Relation) Project(columns, names []string) (*Relation, error) {
	if len(columns) != len(names) {
		return nil, fmt.Errorf("relation: %d columns but %d names", len(columns), len(names))
	}
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = r.Index(c)
		if idx[i] < 0 {
			return nil, fmt.Errorf("column %s does not exist", c)
		}
	}

	out := &Relation{Columns: append([]string(nil), names...), Rows: make([][]any, len(r.Rows))}
	for i, row := range r.Rows {
		vals := make([]any, len(idx))
		for j, k := range idx {
			vals[j] = row[k]
		}
		out.Rows[i] = vals
	}
	return out, nil
}

// InnerJoin joins left and right where left.leftKeys[i] = right.rightKeys[i]
// for every i. Output columns are left's followed by right's. NULL keys
// never match.
func InnerJoin(left, right *Relation, leftKeys, rightKeys []string) (*Relation, error) {
	if len(leftKeys) != len(rightKeys) || len(leftKeys) == 0 {
		return nil, fmt.Errorf("relation: join needs matching non-empty key lists")
	}
	li, err := indexes(left, leftKeys)
	if err != nil {
		return nil, err
	}
	ri, err := indexes(right, rightKeys)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string][]int)
	for i, row := range right.Rows {
		if k, ok := rowKey(row, ri); ok {
			buckets[k] = append(buckets[k], i)
		}
	}

	cols := make([]string, 0, len(left.Columns)+len(right.Columns))
	cols = append(cols, left.Columns...)
	cols = append(cols, right.Columns...)
	out := &Relation{Columns: cols}

	for _, lrow := range left.Rows {
		k, ok := rowKey(lrow, li)
		if !ok {
			continue
		}
		for _, j := range buckets[k] {
			row := make([]any, 0, len(cols))
			row = append(row, lrow...)
			row = append(row, right.Rows[j]...)
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

func indexes(r *Relation, columns []string) ([]int, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = r.Index(c)
		if idx[i] < 0 {
			return nil, fmt.Errorf("join key column %s does not exist", c)
		}
	}
	return idx, nil
}

// rowKey encodes the key columns of row. It reports false when any key is NULL.
func rowKey(row []any, idx []int) (string, bool) {
	var b strings.Builder
	for _, i := range idx {
		k, ok := Key(row[i])
		if !ok {
			return "", false
		}
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String(), true
}

// Key encodes a single value for equality comparison. Values of different
// types never compare equal. It reports false for NULL.
func Key(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return "s" + x, true
	case int64:
		return "i" + strconv.FormatInt(x, 10), true
	case decimal.Decimal:
		return "n" + x.String(), true
	case time.Time:
		return "t" + strconv.FormatInt(x.UTC().UnixNano(), 10), true
	default:
		return fmt.Sprintf("%T%v", v, v), true
	}
}

// Format renders a value for display. NULL renders as "NULL".
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05")
	case decimal.Decimal:
		return x.String()
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// Equal reports whether two relations have the same columns and rows in the
// same order.
func Equal(a, b *Relation) bool {
	if len(a.Columns) != len(b.Columns) || len(a.Rows) != len(b.Rows) {
		return false
	}
	for i := range a.Columns {
		if a.Columns[i] != b.Columns[i] {
			return false
		}
	}
	for i := range a.Rows {
		for j := range a.Rows[i] {
			ka, oka := Key(a.Rows[i][j])
			kb, okb := Key(b.Rows[i][j])
			if oka != okb || ka != kb {
				return false
			}
		}
	}
	return true
}
