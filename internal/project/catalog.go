// Package project declares the Olist transformation graph: the raw source
// tables, one staging model per source and the target dimension models.
//
// Models are plain core.Model values produced by builder functions; a
// Catalog indexes them, validates the graph and derives each model's typed
// output schema.
package project

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/olistdw/internal/dag"
	"github.com/leapstack-labs/olistdw/pkg/core"
)

// Catalog is a validated, immutable set of models.
type Catalog struct {
	models  map[string]*core.Model
	order   []string
	schemas map[string][]core.ColumnDef
	graph   *dag.Graph[*core.Model]
	sources []core.SourceTable
}

// Olist returns the catalog of Olist staging and target models reading raw
// tables from sourceNamespace.
func Olist(sourceNamespace string) (*Catalog, error) {
	if sourceNamespace == "" {
		sourceNamespace = core.DefaultSourceSchema
	}
	models := append(stagingModels(sourceNamespace), targetModels()...)
	return NewCatalog(models...)
}

// NewCatalog validates models and indexes them. Target columns selected
// with SelectAll are expanded to the input's full column list.
func NewCatalog(models ...*core.Model) (*Catalog, error) {
	c := &Catalog{
		models:  make(map[string]*core.Model, len(models)),
		schemas: make(map[string][]core.ColumnDef, len(models)),
		graph:   dag.NewGraph[*core.Model](),
	}

	v := &validator{}
	for _, m := range models {
		if m == nil || m.Name == "" {
			v.add("", "model without a name")
			continue
		}
		if _, dup := c.models[m.Name]; dup {
			v.add(m.Name, "declared more than once")
			continue
		}
		c.models[m.Name] = m
		c.order = append(c.order, m.Name)
		c.graph.AddNode(m.Name, m)
		if m.IsStaging() {
			c.sources = append(c.sources, *m.Source)
		}
	}

	for _, name := range c.order {
		m := c.models[name]
		for _, up := range m.Upstream() {
			if _, ok := c.models[up]; !ok {
				v.add(name, fmt.Sprintf("reads unknown model %q", up))
				continue
			}
			_ = c.graph.AddEdge(up, name)
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	sorted, err := c.graph.TopologicalSort()
	if err != nil {
		return nil, &ValidationError{Problems: []Problem{{Message: err.Error()}}}
	}

	for _, node := range sorted {
		m := node.Data
		var cols []core.ColumnDef
		if m.IsStaging() {
			cols = v.staging(m)
		} else {
			cols = v.target(m, c.schemas)
		}
		c.schemas[m.Name] = cols
	}
	if err := v.err(); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns a model by name.
func (c *Catalog) Get(name string) (*core.Model, bool) {
	m, ok := c.models[name]
	return m, ok
}

// Models returns all models in declaration order.
func (c *Catalog) Models() []*core.Model {
	out := make([]*core.Model, len(c.order))
	for i, name := range c.order {
		out[i] = c.models[name]
	}
	return out
}

// Names returns all model names in declaration order.
func (c *Catalog) Names() []string {
	return slices.Clone(c.order)
}

// Schema returns the typed output columns of a model.
func (c *Catalog) Schema(name string) ([]core.ColumnDef, bool) {
	cols, ok := c.schemas[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(cols), true
}

// Graph returns the dependency graph. An edge parent -> child means child
// reads parent. The graph is shared; callers must not modify it.
func (c *Catalog) Graph() *dag.Graph[*core.Model] {
	return c.graph
}

// Sources returns the raw tables read by staging models, in declaration order.
func (c *Catalog) Sources() []core.SourceTable {
	return slices.Clone(c.sources)
}

// Upstream returns the direct upstream model names of a model.
func (c *Catalog) Upstream(name string) []string {
	if m, ok := c.models[name]; ok {
		return m.Upstream()
	}
	return nil
}
