package project

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/olistdw/pkg/core"
)

// Problem is one validation failure.
type Problem struct {
	Model   string
	Message string
}

func (p Problem) String() string {
	if p.Model == "" {
		return p.Message
	}
	return p.Model + ": " + p.Message
}

// ValidationError lists every problem found in a model set.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid model graph: " + e.Problems[0].String()
	}
	lines := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		lines[i] = "  - " + p.String()
	}
	return fmt.Sprintf("invalid model graph (%d problems):\n%s", len(e.Problems), strings.Join(lines, "\n"))
}

type validator struct {
	problems []Problem
}

func (v *validator) add(model, msg string) {
	v.problems = append(v.problems, Problem{Model: model, Message: msg})
}

func (v *validator) err() error {
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

// staging checks that rules cover the source exactly and returns the output
// schema.
func (v *validator) staging(m *core.Model) []core.ColumnDef {
	if m.Config.Destination != core.DestinationStaging {
		v.add(m.Name, fmt.Sprintf("staging model has destination %q", m.Config.Destination))
	}
	v.writeMode(m)

	raw := make(map[string]bool, len(m.Source.Columns))
	for _, c := range m.Source.Columns {
		raw[c] = true
	}

	covered := make(map[string]bool)
	outputs := make(map[string]bool)
	cols := make([]core.ColumnDef, 0, len(m.Rules))
	for _, r := range m.Rules {
		switch {
		case !raw[r.Column]:
			v.add(m.Name, fmt.Sprintf("rule for %q: no such column in %s", r.Column, m.Source.Ref))
		case covered[r.Column]:
			v.add(m.Name, fmt.Sprintf("column %q cast more than once", r.Column))
		}
		covered[r.Column] = true

		if !r.Type.Valid() {
			v.add(m.Name, fmt.Sprintf("column %q has unknown type %q", r.Column, r.Type))
		}
		out := r.OutputName()
		if outputs[out] {
			v.add(m.Name, fmt.Sprintf("duplicate output column %q", out))
		}
		outputs[out] = true
		cols = append(cols, core.ColumnDef{Name: out, Type: r.Type})
	}

	for _, c := range m.Source.Columns {
		if !covered[c] {
			v.add(m.Name, fmt.Sprintf("source column %q has no rule", c))
		}
	}
	return cols
}

// target checks joins and projections against upstream schemas and returns
// the output schema. SelectAll references are expanded in place.
func (v *validator) target(m *core.Model, schemas map[string][]core.ColumnDef) []core.ColumnDef {
	if m.Config.Destination != core.DestinationTarget {
		v.add(m.Name, fmt.Sprintf("target model has destination %q", m.Config.Destination))
	}
	v.writeMode(m)
	if m.From == "" {
		v.add(m.Name, "no base input")
		return nil
	}

	lookup := func(model, column string) (core.ColumnDef, bool) {
		for _, c := range schemas[model] {
			if c.Name == column {
				return c, true
			}
		}
		return core.ColumnDef{}, false
	}

	inputs := map[string]bool{m.From: true}
	for _, j := range m.Joins {
		if j.Type != core.JoinInner {
			v.add(m.Name, fmt.Sprintf("join with %s: unsupported join type %q", j.Model, j.Type))
		}
		if inputs[j.Model] {
			v.add(m.Name, fmt.Sprintf("input %q joined more than once", j.Model))
		}
		if len(j.On) == 0 {
			v.add(m.Name, fmt.Sprintf("join with %s has no keys", j.Model))
		}
		for _, k := range j.On {
			if !inputs[k.LeftModel] {
				v.add(m.Name, fmt.Sprintf("join key %s.%s: %q is not an earlier input", k.LeftModel, k.LeftColumn, k.LeftModel))
				continue
			}
			left, lok := lookup(k.LeftModel, k.LeftColumn)
			if !lok {
				v.add(m.Name, fmt.Sprintf("join key column %s.%s does not exist", k.LeftModel, k.LeftColumn))
			}
			right, rok := lookup(j.Model, k.RightColumn)
			if !rok {
				v.add(m.Name, fmt.Sprintf("join key column %s.%s does not exist", j.Model, k.RightColumn))
			}
			if lok && rok && left.Type != right.Type {
				v.add(m.Name, fmt.Sprintf("join key type mismatch: %s.%s is %s, %s.%s is %s",
					k.LeftModel, k.LeftColumn, left.Type, j.Model, k.RightColumn, right.Type))
			}
		}
		inputs[j.Model] = true
	}

	var expanded []core.ColumnRef
	for _, ref := range m.Columns {
		if ref.Column == allColumns {
			for _, c := range schemas[ref.Model] {
				expanded = append(expanded, core.ColumnRef{Model: ref.Model, Column: c.Name})
			}
			continue
		}
		expanded = append(expanded, ref)
	}
	m.Columns = expanded

	if len(m.Columns) == 0 {
		v.add(m.Name, "selects no columns")
	}

	outputs := make(map[string]bool)
	cols := make([]core.ColumnDef, 0, len(m.Columns))
	for _, ref := range m.Columns {
		if !inputs[ref.Model] {
			v.add(m.Name, fmt.Sprintf("column %s.%s: %q is not an input", ref.Model, ref.Column, ref.Model))
			continue
		}
		def, ok := lookup(ref.Model, ref.Column)
		if !ok {
			v.add(m.Name, fmt.Sprintf("column %s.%s does not exist", ref.Model, ref.Column))
			continue
		}
		out := ref.OutputName()
		if outputs[out] {
			v.add(m.Name, fmt.Sprintf("duplicate output column %q", out))
		}
		outputs[out] = true
		cols = append(cols, core.ColumnDef{Name: out, Type: def.Type})
	}
	return cols
}

func (v *validator) writeMode(m *core.Model) {
	if m.Config.WriteMode != core.WriteModeFullReplace {
		v.add(m.Name, fmt.Sprintf("unsupported write mode %q", m.Config.WriteMode))
	}
}
