package optimizer

import (
	"context"

	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/pkg/logger"
)

// MergeConsecutiveNodes collapses each maximal chain of mergeable pairs into
// one COMPOSITE node whose config lists the original steps in order.
func (o *Optimizer) MergeConsecutiveNodes(ctx context.Context, def *graph.Definition) (*graph.OptimizedGraph, error) {
	if err := graph.Validate(def); err != nil {
		return nil, err
	}
	idx := graph.NewIndex(def)
	runs, err := o.mergeRuns(ctx, idx)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		clone, err := def.Clone()
		if err != nil {
			return nil, err
		}
		return graph.Unchanged(clone), nil
	}
	taken := takenIDs(def)
	owner := map[string]int{}
	step := map[string]int{}
	composites := make([]graph.Node, len(runs))
	merged := 0
	for i, run := range runs {
		node, err := o.compositeNode(def, run, taken)
		if err != nil {
			return nil, err
		}
		composites[i] = node
		for j, id := range run {
			owner[id] = i
			step[id] = j
		}
		merged += len(run) - 1
	}
	nodes := make([]graph.Node, 0, len(def.Nodes)-merged)
	for i := range def.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := def.Nodes[i].ID
		if r, ok := owner[id]; ok {
			if runs[r][0] == id {
				nodes = append(nodes, composites[r])
			}
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
		srcRun, srcIn := owner[e.SourceNodeID]
		dstRun, dstIn := owner[e.TargetNodeID]
		// Links between consecutive steps become internal to the composite.
		// Any other edge inside a run, such as a back edge from the tail, stays as a self-loop.
		if srcIn && dstIn && srcRun == dstRun && step[e.TargetNodeID] == step[e.SourceNodeID]+1 {
			continue
		}
		if srcIn {
			e.SourceNodeID = composites[srcRun].ID
		}
		if dstIn {
			e.TargetNodeID = composites[dstRun].ID
		}
		edges = append(edges, e)
	}
	logger.FromContext(ctx).Debug("Node merge finished", "workflow_id", def.ID, "merged_pairs", merged)
	return &graph.OptimizedGraph{
		Definition:  def.WithGraph(nodes, edges),
		Modified:    true,
		MergedCount: merged,
	}, nil
}

// mergeablePair reports whether source's only outgoing edge feeds target's only
// incoming edge and both node types may be fused.
func (o *Optimizer) mergeablePair(idx *graph.Index, source, target *graph.Node) bool {
	if o.registry == nil || source.ID == target.ID {
		return false
	}
	if !o.structural(source) || !o.structural(target) {
		return false
	}
	out := idx.OutEdges(source.ID)
	in := idx.InEdges(target.ID)
	if len(out) != 1 || len(in) != 1 || out[0].TargetNodeID != target.ID {
		return false
	}
	sourceType, ok := o.registry.NodeType(source.Type)
	if !ok {
		return false
	}
	targetType, ok := o.registry.NodeType(target.Type)
	if !ok {
		return false
	}
	return sourceType.Mergeable(targetType)
}

// mergeRuns returns maximal chains of mergeable pairs ordered by the position
// of their head. Closed cycles have no head and are left alone.
func (o *Optimizer) mergeRuns(ctx context.Context, idx *graph.Index) ([][]string, error) {
	def := idx.Definition()
	next := map[string]string{}
	hasPrev := map[string]bool{}
	for i := range def.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		source := &def.Nodes[i]
		out := idx.OutEdges(source.ID)
		if len(out) != 1 {
			continue
		}
		target, ok := def.Node(out[0].TargetNodeID)
		if !ok || !o.mergeablePair(idx, source, target) {
			continue
		}
		next[source.ID] = target.ID
		hasPrev[target.ID] = true
	}
	var runs [][]string
	for i := range def.Nodes {
		id := def.Nodes[i].ID
		if _, ok := next[id]; !ok || hasPrev[id] {
			continue
		}
		run := []string{id}
		for current := id; ; {
			following, ok := next[current]
			if !ok {
				break
			}
			run = append(run, following)
			current = following
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (o *Optimizer) compositeNode(def *graph.Definition, run []string, taken map[string]struct{}) (graph.Node, error) {
	steps := make([]any, 0, len(run))
	family := ""
	for _, id := range run {
		node, _ := def.Node(id)
		if family == "" {
			if nt, ok := o.registry.NodeType(node.Type); ok {
				family = nt.ExecutorFamily
			}
		}
		embedded, err := embeddedNode(node)
		if err != nil {
			return graph.Node{}, err
		}
		steps = append(steps, embedded)
	}
	return graph.Node{
		ID:   synthesizedID("composite", run, taken),
		Type: graph.NodeTypeComposite,
		Config: map[string]any{
			"steps":           steps,
			"executor_family": family,
		},
	}, nil
}
