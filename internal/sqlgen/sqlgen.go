// Package sqlgen renders the SELECT statement behind each model for a
// warehouse dialect.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/olistdw/pkg/core"
	"github.com/leapstack-labs/olistdw/pkg/dialect"
)

// ModelSource resolves model names to definitions. *project.Catalog
// satisfies it.
type ModelSource interface {
	Get(name string) (*core.Model, bool)
}

// Renderer renders model queries and table names for one dialect and
// schema layout.
type Renderer struct {
	Dialect *dialect.Dialect
	Schemas core.SchemaConfig
	Models  ModelSource
}

// New returns a Renderer. Empty schema fields take the defaults.
func New(d *dialect.Dialect, schemas core.SchemaConfig, models ModelSource) *Renderer {
	return &Renderer{Dialect: d, Schemas: schemas.WithDefaults(), Models: models}
}

// Table returns the qualified output table of m.
func (r *Renderer) Table(m *core.Model) string {
	return r.Dialect.QualifiedName(r.Schemas.For(m.Config.Destination), m.Name)
}

// SourceTable returns the qualified raw table of src. The configured source
// schema wins over the namespace recorded on the model.
func (r *Renderer) SourceTable(src core.SourceTable) string {
	ns := r.Schemas.Source
	if ns == "" {
		ns = src.Ref.Namespace
	}
	return r.Dialect.QualifiedName(ns, src.Ref.Table)
}

// Select renders the query computing m.
func (r *Renderer) Select(m *core.Model) (string, error) {
	if m.IsStaging() {
		return r.staging(m), nil
	}
	return r.target(m)
}

// ReplaceStmts renders the statements that atomically replace m's table.
func (r *Renderer) ReplaceStmts(m *core.Model) ([]string, error) {
	q, err := r.Select(m)
	if err != nil {
		return nil, err
	}
	return r.Dialect.ReplaceTableStmts(r.Table(m), q), nil
}

func (r *Renderer) staging(m *core.Model) string {
	d := r.Dialect
	var b strings.Builder
	b.WriteString("SELECT\n")
	for i, rule := range m.Rules {
		expr := d.CastExpr(d.QuoteIdentifierIfNeeded(rule.Column), rule.Type)
		fmt.Fprintf(&b, "    %s AS %s", expr, d.QuoteIdentifierIfNeeded(rule.OutputName()))
		if i < len(m.Rules)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("FROM ")
	b.WriteString(r.SourceTable(*m.Source))
	return b.String()
}

func (r *Renderer) target(m *core.Model) (string, error) {
	d := r.Dialect
	alias := d.QuoteIdentifierIfNeeded

	from, err := r.input(m.From)
	if err != nil {
		return "", fmt.Errorf("%s: %w", m.Name, err)
	}

	var b strings.Builder
	b.WriteString("SELECT\n")
	for i, c := range m.Columns {
		fmt.Fprintf(&b, "    %s.%s AS %s", alias(c.Model), alias(c.Column), alias(c.OutputName()))
		if i < len(m.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "FROM %s AS %s", from, alias(m.From))

	for _, j := range m.Joins {
		table, err := r.input(j.Model)
		if err != nil {
			return "", fmt.Errorf("%s: %w", m.Name, err)
		}
		fmt.Fprintf(&b, "\n%s JOIN %s AS %s", j.Type, table, alias(j.Model))
		for i, k := range j.On {
			kw := "ON"
			if i > 0 {
				kw = "AND"
			}
			fmt.Fprintf(&b, "\n    %s %s.%s = %s.%s", kw,
				alias(k.LeftModel), alias(k.LeftColumn), alias(j.Model), alias(k.RightColumn))
		}
	}
	return b.String(), nil
}

func (r *Renderer) input(name string) (string, error) {
	m, ok := r.Models.Get(name)
	if !ok {
		return "", fmt.Errorf("unknown upstream model %q", name)
	}
	return r.Table(m), nil
}

// CountQuery returns a row count query for a qualified table.
func CountQuery(table string) string {
	return "SELECT COUNT(*) FROM " + table
}
