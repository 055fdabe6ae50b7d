package pipeline

import (
	"strings"

	"github.com/kbukum/opflow/operator"
	"github.com/kbukum/opflow/validation"
)

// Modes accepted in a definition.
const (
	ModeDefault   = "default"
	ModeBatch     = "batch"
	ModeStreaming = "streaming"
)

// Definition is a YAML pipeline.
type Definition struct {
	Name string `yaml:"name"`
	// Mode is batch, streaming or default (also when empty).
	Mode string `yaml:"mode,omitempty"`
	// Includes lists other definitions, by name, whose nodes are merged in.
	Includes []string  `yaml:"includes,omitempty"`
	Nodes    []NodeDef `yaml:"nodes"`
}

// NodeDef is one node of a definition.
type NodeDef struct {
	// Name identifies the node; it defaults to Component.
	Name      string   `yaml:"name,omitempty"`
	Component string   `yaml:"component"`
	Params    Params   `yaml:"params,omitempty"`
	DependsOn []string `yaml:"depends_on,omitempty"`
}

// ID returns the node name.
func (n NodeDef) ID() string {
	if n.Name != "" {
		return n.Name
	}
	return n.Component
}

// DataModel maps the mode to an operator data model.
func (d *Definition) DataModel() operator.DataModel {
	switch strings.ToLower(d.Mode) {
	case ModeBatch:
		return operator.Batch
	case ModeStreaming:
		return operator.Streaming
	default:
		return operator.Default
	}
}

// Validate checks the definition on its own. Dependencies on nodes from
// included definitions are checked by Resolve.
func (d *Definition) Validate() error {
	v := validation.New()
	v.Required("name", d.Name)
	v.OneOf("mode", strings.ToLower(d.Mode), []string{ModeDefault, ModeBatch, ModeStreaming})
	v.Check(len(d.Nodes) > 0 || len(d.Includes) > 0, "nodes", "at least one node or include is required")

	seen := map[string]bool{}
	for i, n := range d.Nodes {
		nv := v.At(validation.Index("nodes", i))
		nv.Required("component", n.Component)
		if id := n.ID(); id != "" {
			if seen[id] {
				nv.Fail("name", "duplicate node %q", id)
			}
			seen[id] = true
		}
		for _, dep := range n.DependsOn {
			nv.Check(dep != n.ID(), "depends_on", "a node cannot depend on itself")
		}
	}
	return v.Err()
}
