package project

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/leapstack-labs/olistdw/internal/casting"
	"github.com/leapstack-labs/olistdw/internal/sqlgen"
	"github.com/leapstack-labs/olistdw/pkg/core"
	"github.com/leapstack-labs/olistdw/pkg/dialect"
	"gopkg.in/yaml.v3"
)

// ManifestVersion is bumped when the manifest layout changes.
const ManifestVersion = 1

// Manifest is the static node mapping handed to external resolvers.
type Manifest struct {
	Version int               `json:"version" yaml:"version"`
	Dialect string            `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Schemas core.SchemaConfig `json:"schemas" yaml:"schemas"`
	Sources []ManifestSource  `json:"sources" yaml:"sources"`
	Nodes   []ManifestNode    `json:"nodes" yaml:"nodes"`
}

// ManifestSource is one raw input relation.
type ManifestSource struct {
	Namespace string   `json:"namespace" yaml:"namespace"`
	Table     string   `json:"table" yaml:"table"`
	Columns   []string `json:"columns" yaml:"columns"`
}

// ManifestNode is one model.
type ManifestNode struct {
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Config      core.NodeConfig  `json:"config" yaml:"config"`
	Table       string           `json:"table" yaml:"table"`
	Upstream    []string         `json:"upstream" yaml:"upstream"`
	Source      string           `json:"source,omitempty" yaml:"source,omitempty"`
	Joins       []core.Join      `json:"joins,omitempty" yaml:"joins,omitempty"`
	Columns     []ManifestColumn `json:"columns" yaml:"columns"`
	SQL         string           `json:"sql,omitempty" yaml:"sql,omitempty"`
}

// ManifestColumn is one output column and the expression producing it.
type ManifestColumn struct {
	Name string            `json:"name" yaml:"name"`
	Type core.SemanticType `json:"type" yaml:"type"`
	Expr string            `json:"expr" yaml:"expr"`
	Safe bool              `json:"safe,omitempty" yaml:"safe,omitempty"`
}

// Manifest builds the manifest in topological order. When d is non-nil each
// node also carries its SELECT rendered for d.
func (c *Catalog) Manifest(schemas core.SchemaConfig, d *dialect.Dialect) (*Manifest, error) {
	schemas = schemas.WithDefaults()

	sorted, err := c.graph.TopologicalSort()
	if err != nil {
		return nil, err
	}

	man := &Manifest{Version: ManifestVersion, Schemas: schemas}
	var r *sqlgen.Renderer
	if d != nil {
		man.Dialect = d.Name
		r = sqlgen.New(d, schemas, c)
	}

	for _, src := range c.sources {
		man.Sources = append(man.Sources, ManifestSource{
			Namespace: schemas.Source,
			Table:     src.Ref.Table,
			Columns:   src.Columns,
		})
	}

	for _, node := range sorted {
		m := node.Data
		n := ManifestNode{
			Name:        m.Name,
			Description: m.Description,
			Config:      m.Config,
			Table:       schemas.For(m.Config.Destination) + "." + m.Name,
			Upstream:    m.Upstream(),
			Joins:       m.Joins,
		}
		if n.Upstream == nil {
			n.Upstream = []string{}
		}

		schema := c.schemas[m.Name]
		if m.IsStaging() {
			n.Source = schemas.Source + "." + m.Source.Ref.Table
			for i, rule := range m.Rules {
				n.Columns = append(n.Columns, ManifestColumn{
					Name: schema[i].Name,
					Type: schema[i].Type,
					Expr: casting.Expr(rule),
					Safe: rule.Type == core.TypeTimestamp,
				})
			}
		} else {
			for i, ref := range m.Columns {
				n.Columns = append(n.Columns, ManifestColumn{
					Name: schema[i].Name,
					Type: schema[i].Type,
					Expr: ref.Model + "." + ref.Column,
				})
			}
		}

		if r != nil {
			q, err := r.Select(m)
			if err != nil {
				return nil, err
			}
			n.SQL = q
		}
		man.Nodes = append(man.Nodes, n)
	}
	return man, nil
}

// WriteManifest encodes man as "json" or "yaml".
func WriteManifest(w io.Writer, man *Manifest, format string) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(man)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(man); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown manifest format %q (want json or yaml)", format)
	}
}
