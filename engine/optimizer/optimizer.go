// Package optimizer rewrites workflow graphs into structurally cheaper
// equivalents: independent siblings become one PARALLEL coordinator and
// chains of stateless nodes collapse into one COMPOSITE node.
package optimizer

import (
	"fmt"

	"github.com/compozy/flowlint/engine/core"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/engine/schema"
)

type Optimizer struct {
	registry      schema.Registry
	startNodeType string
}

type Option func(*Optimizer)

func WithStartNodeType(nodeType string) Option {
	return func(o *Optimizer) {
		if nodeType != "" {
			o.startNodeType = nodeType
		}
	}
}

// New creates an optimizer. A nil registry disables node merging because no
// node type can be proven stateless.
func New(registry schema.Registry, opts ...Option) *Optimizer {
	o := &Optimizer{registry: registry, startNodeType: graph.NodeTypeStart}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// structural reports whether a node takes part in rewrites. Entry, exit and
// synthesized nodes never do.
func (o *Optimizer) structural(node *graph.Node) bool {
	switch node.Type {
	case o.startNodeType, graph.NodeTypeStart, graph.NodeTypeEnd, graph.NodeTypeParallel, graph.NodeTypeComposite:
		return false
	}
	return true
}

// embeddedNode is the config form of a node folded into a synthesized node.
func embeddedNode(node *graph.Node) (map[string]any, error) {
	cfg, err := core.CloneConfig(node.Config)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", node.ID, err)
	}
	out := map[string]any{"node_id": node.ID, "node_type": node.Type}
	if cfg != nil {
		out["config"] = cfg
	}
	return out, nil
}

// synthesizedID derives a stable id from the member ids, suffixed when taken.
func synthesizedID(prefix string, members []string, taken map[string]struct{}) string {
	base := fmt.Sprintf("%s-%s", prefix, core.Fingerprint(members)[:10])
	id := base
	for i := 2; ; i++ {
		if _, exists := taken[id]; !exists {
			taken[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s-%d", base, i)
	}
}

func takenIDs(def *graph.Definition) map[string]struct{} {
	taken := make(map[string]struct{}, len(def.Nodes))
	for i := range def.Nodes {
		taken[def.Nodes[i].ID] = struct{}{}
	}
	return taken
}
