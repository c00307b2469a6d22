package core

import "fmt"

// SemanticType is the canonical type of a staging or target column.
type SemanticType string

// Semantic type constants.
const (
	TypeString    SemanticType = "string"
	TypeNumeric   SemanticType = "numeric"
	TypeInteger   SemanticType = "integer"
	TypeTimestamp SemanticType = "timestamp"
)

// Raw text shapes (RE2 syntax) that every warehouse accepts for the
// integer and timestamp rules. The in-process casts and the SQL dialects
// both check against them so all backends agree on what is malformed.
const (
	// IntegerShape captures the digits of an optionally signed integer
	// surrounded by whitespace.
	IntegerShape = `\s*([+-]?[0-9]+)\s*`
	// TimestampShape is the text form of %Y-%m-%d %H:%M:%S.
	TimestampShape = `\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`
)

// Valid reports whether t is one of the known semantic types.
func (t SemanticType) Valid() bool {
	switch t {
	case TypeString, TypeNumeric, TypeInteger, TypeTimestamp:
		return true
	}
	return false
}

// SourceRef identifies a raw input relation by namespace and table name.
type SourceRef struct {
	Namespace string `json:"namespace" yaml:"namespace"`
	Table     string `json:"table" yaml:"table"`
}

// String returns the qualified "namespace.table" form.
func (s SourceRef) String() string {
	if s.Namespace == "" {
		return s.Table
	}
	return s.Namespace + "." + s.Table
}

// SourceTable is a raw external relation. Every column arrives as a string.
type SourceTable struct {
	Ref     SourceRef `json:"ref" yaml:"ref"`
	Columns []string  `json:"columns" yaml:"columns"`
}

// CastRule maps exactly one raw column to one typed staging column.
type CastRule struct {
	// Column is the raw source column name.
	Column string `json:"column" yaml:"column"`
	// As renames the output column. Empty keeps the source name.
	As string `json:"as,omitempty" yaml:"as,omitempty"`
	// Type is the semantic type of the output column.
	Type SemanticType `json:"type" yaml:"type"`
}

// OutputName returns the staging column name produced by the rule.
func (r CastRule) OutputName() string {
	if r.As != "" {
		return r.As
	}
	return r.Column
}

// ColumnRef selects one column of a target model input.
type ColumnRef struct {
	Model  string `json:"model" yaml:"model"`
	Column string `json:"column" yaml:"column"`
	As     string `json:"as,omitempty" yaml:"as,omitempty"`
}

// OutputName returns the projected column name.
func (c ColumnRef) OutputName() string {
	if c.As != "" {
		return c.As
	}
	return c.Column
}

// ColumnDef is a typed output column.
type ColumnDef struct {
	Name string       `json:"name" yaml:"name"`
	Type SemanticType `json:"type" yaml:"type"`
}

// Model is one node of the transformation graph.
//
// Staging models set Source and Rules. Target models set From, Joins and
// Columns.
type Model struct {
	Name        string
	Description string
	Config      NodeConfig

	// Staging
	Source *SourceTable
	Rules  []CastRule

	// Target
	From    string
	Joins   []Join
	Columns []ColumnRef
}

// IsStaging reports whether the model reads a raw source table.
func (m *Model) IsStaging() bool {
	return m.Source != nil
}

// Upstream returns the names of the models this model reads, in
// declaration order and without duplicates. Staging models have none;
// their raw sources are external.
func (m *Model) Upstream() []string {
	if m.IsStaging() {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}
	add(m.From)
	for _, j := range m.Joins {
		add(j.Model)
	}
	return names
}

// String implements fmt.Stringer.
func (m *Model) String() string {
	return fmt.Sprintf("%s (%s)", m.Name, m.Config.Destination)
}
