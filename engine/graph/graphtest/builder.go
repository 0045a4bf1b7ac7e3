// Package graphtest provides fluent builders for workflow definitions used in tests.
package graphtest

import (
	"fmt"

	"github.com/compozy/flowlint/engine/graph"
)

const (
	DefaultSourcePort = "out"
	DefaultTargetPort = "in"
)

type Builder struct {
	def *graph.Definition
}

func NewBuilder(workflowID string) *Builder {
	return &Builder{def: &graph.Definition{ID: workflowID, Name: workflowID}}
}

// Node appends a node without config.
func (b *Builder) Node(id, nodeType string) *Builder {
	return b.NodeWithConfig(id, nodeType, nil)
}

// Nodes appends several nodes sharing one type.
func (b *Builder) Nodes(nodeType string, ids ...string) *Builder {
	for _, id := range ids {
		b.Node(id, nodeType)
	}
	return b
}

func (b *Builder) NodeWithConfig(id, nodeType string, cfg map[string]any) *Builder {
	b.def.Nodes = append(b.def.Nodes, graph.Node{ID: id, Type: nodeType, Config: cfg})
	return b
}

// Edge connects source to target through the default ports.
func (b *Builder) Edge(source, target string) *Builder {
	return b.PortEdge(source, DefaultSourcePort, target, DefaultTargetPort)
}

func (b *Builder) PortEdge(source, sourcePort, target, targetPort string) *Builder {
	b.def.Edges = append(b.def.Edges, graph.Edge{
		ID:           fmt.Sprintf("e%d", len(b.def.Edges)+1),
		SourceNodeID: source,
		SourcePort:   sourcePort,
		TargetNodeID: target,
		TargetPort:   targetPort,
	})
	return b
}

// Chain connects consecutive ids with default-port edges.
func (b *Builder) Chain(ids ...string) *Builder {
	for i := 1; i < len(ids); i++ {
		b.Edge(ids[i-1], ids[i])
	}
	return b
}

func (b *Builder) Build() *graph.Definition {
	return b.def
}
