package graph

import (
	"fmt"

	"github.com/compozy/flowlint/engine/core"
)

// Well-known node types. PARALLEL and COMPOSITE are synthesized by the optimizer.
const (
	NodeTypeStart     = "START"
	NodeTypeEnd       = "END"
	NodeTypeParallel  = "PARALLEL"
	NodeTypeComposite = "COMPOSITE"
)

// Node is a single typed step of a workflow definition.
type Node struct {
	ID     string         `json:"node_id"          yaml:"node_id"`
	Type   string         `json:"node_type"        yaml:"node_type"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// Edge is a directed data-flow connection between two node ports.
type Edge struct {
	ID           string `json:"id,omitempty"          yaml:"id,omitempty"`
	SourceNodeID string `json:"source_node_id"        yaml:"source_node_id"`
	SourcePort   string `json:"source_port,omitempty" yaml:"source_port,omitempty"`
	TargetNodeID string `json:"target_node_id"        yaml:"target_node_id"`
	TargetPort   string `json:"target_port,omitempty" yaml:"target_port,omitempty"`
}

// Location returns the identifier used to anchor findings on the edge.
func (e Edge) Location() string {
	if e.ID != "" {
		return e.ID
	}
	return e.SourceNodeID + "->" + e.TargetNodeID
}

// Definition is an immutable snapshot of a workflow graph. Passes never modify
// a Definition in place; they build a new one.
type Definition struct {
	ID    string `json:"id,omitempty"   yaml:"id,omitempty"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes []Node `json:"nodes"          yaml:"nodes"`
	Edges []Edge `json:"edges"          yaml:"edges"`
}

// Node returns the node with the given id.
func (d *Definition) Node(id string) (*Node, bool) {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i], true
		}
	}
	return nil, false
}

// NodeIDs returns node ids in definition order.
func (d *Definition) NodeIDs() []string {
	ids := make([]string, len(d.Nodes))
	for i := range d.Nodes {
		ids[i] = d.Nodes[i].ID
	}
	return ids
}

// Clone returns a deep copy of the definition.
func (d *Definition) Clone() (*Definition, error) {
	nodes := make([]Node, len(d.Nodes))
	for i := range d.Nodes {
		n, err := d.Nodes[i].Clone()
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	edges := make([]Edge, len(d.Edges))
	copy(edges, d.Edges)
	return &Definition{ID: d.ID, Name: d.Name, Nodes: nodes, Edges: edges}, nil
}

// WithGraph returns a new definition carrying d's identity and the given nodes and edges.
func (d *Definition) WithGraph(nodes []Node, edges []Edge) *Definition {
	return &Definition{ID: d.ID, Name: d.Name, Nodes: nodes, Edges: edges}
}

// Clone returns a copy of the node with a deep-copied config.
func (n Node) Clone() (Node, error) {
	cfg, err := core.CloneConfig(n.Config)
	if err != nil {
		return Node{}, fmt.Errorf("node %q: %w", n.ID, err)
	}
	return Node{ID: n.ID, Type: n.Type, Config: cfg}, nil
}

// ConfigString returns the string stored under key, if any.
func (n Node) ConfigString(key string) (string, bool) {
	v, ok := n.Config[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ConfigBool returns the boolean stored under key; absent or non-bool values are false.
func (n Node) ConfigBool(key string) bool {
	v, ok := n.Config[key].(bool)
	return ok && v
}
