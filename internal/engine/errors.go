package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/olistdw/internal/casting"
	"github.com/leapstack-labs/olistdw/internal/warehouse"
)

// ModelError reports a model that failed to materialize.
type ModelError struct {
	Model string
	// Expr is the failing expression, when one can be named.
	Expr string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Expr == "" || strings.Contains(e.Err.Error(), e.Expr) {
		return fmt.Sprintf("model %s: %v", e.Model, e.Err)
	}
	return fmt.Sprintf("model %s: %s: %v", e.Model, e.Expr, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

func newModelError(model string, err error) *ModelError {
	me := &ModelError{Model: model, Err: err}

	var castErr *casting.CastError
	var stmtErr *warehouse.StatementError
	switch {
	case errors.As(err, &castErr):
		me.Expr = castErr.Expr
	case errors.As(err, &stmtErr):
		me.Expr = stmtErr.Expr()
	}
	return me
}
