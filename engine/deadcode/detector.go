// Package deadcode finds and removes nodes that no START node can reach.
package deadcode

import (
	"context"
	"fmt"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/pkg/logger"
)

const Recommendation = "remove this node or fix connections"

type Detector struct {
	startNodeType string
}

type Option func(*Detector)

// WithStartNodeType changes the node type used as traversal root.
func WithStartNodeType(nodeType string) Option {
	return func(d *Detector) {
		if nodeType != "" {
			d.startNodeType = nodeType
		}
	}
}

func New(opts ...Option) *Detector {
	d := &Detector{startNodeType: graph.NodeTypeStart}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect reports one WARNING/DEAD_CODE issue per unreachable node, in definition order.
// A graph without start nodes has every node flagged.
func (d *Detector) Detect(ctx context.Context, def *graph.Definition) ([]analysis.Issue, error) {
	if err := graph.Validate(def); err != nil {
		return nil, err
	}
	reachable, noStart, err := d.reachable(ctx, graph.NewIndex(def))
	if err != nil {
		return nil, err
	}
	var issues []analysis.Issue
	for i := range def.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node := def.Nodes[i]
		if _, ok := reachable[node.ID]; ok {
			continue
		}
		metadata := map[string]any{"node_type": node.Type}
		if noStart {
			metadata["no_start_node"] = true
		}
		issues = append(issues, analysis.Issue{
			Severity:       analysis.SeverityWarning,
			Category:       analysis.CategoryDeadCode,
			Message:        fmt.Sprintf("node %q is unreachable from any %s node", node.ID, d.startNodeType),
			Location:       node.ID,
			Recommendation: Recommendation,
			Metadata:       metadata,
		})
	}
	logger.FromContext(ctx).Debug("Dead code detection finished", "workflow_id", def.ID, "issues", len(issues))
	return issues, nil
}

// RemoveDeadNodes drops unreachable nodes and every edge touching them.
// Kept nodes and edges preserve their original order.
func (d *Detector) RemoveDeadNodes(ctx context.Context, def *graph.Definition) (*graph.OptimizedGraph, error) {
	if err := graph.Validate(def); err != nil {
		return nil, err
	}
	reachable, _, err := d.reachable(ctx, graph.NewIndex(def))
	if err != nil {
		return nil, err
	}
	nodes := make([]graph.Node, 0, len(reachable))
	for i := range def.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, ok := reachable[def.Nodes[i].ID]; !ok {
			continue
		}
		node, err := def.Nodes[i].Clone()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	edges := make([]graph.Edge, 0, len(def.Edges))
	for _, e := range def.Edges {
		_, src := reachable[e.SourceNodeID]
		_, dst := reachable[e.TargetNodeID]
		if src && dst {
			edges = append(edges, e)
		}
	}
	removed := len(def.Nodes) - len(nodes)
	logger.FromContext(ctx).Debug("Dead code removal finished", "workflow_id", def.ID, "removed", removed)
	return &graph.OptimizedGraph{
		Definition:       def.WithGraph(nodes, edges),
		Modified:         removed > 0,
		RemovedNodeCount: removed,
	}, nil
}

func (d *Detector) reachable(ctx context.Context, idx *graph.Index) (map[string]struct{}, bool, error) {
	roots := idx.NodesOfType(d.startNodeType)
	reachable, err := idx.ReachableFrom(ctx, roots)
	if err != nil {
		return nil, false, err
	}
	return reachable, len(roots) == 0, nil
}
