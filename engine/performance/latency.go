package performance

import (
	"context"
	"time"

	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/engine/history"
)

// EstimateLatency returns the duration of the longest path from the start
// nodes. Back edges found during traversal are ignored. A node costs its
// historical average when stats has one and its type's default latency
// otherwise; PARALLEL costs its slowest member and COMPOSITE the sum of its steps.
func (a *Analyzer) EstimateLatency(
	ctx context.Context,
	def *graph.Definition,
	stats *history.ExecutionStats,
) (time.Duration, error) {
	if err := graph.Validate(def); err != nil {
		return 0, err
	}
	idx := graph.NewIndex(def)
	roots := idx.NodesOfType(a.startNodeType)
	if len(roots) == 0 {
		for i := range def.Nodes {
			if len(idx.InEdges(def.Nodes[i].ID)) == 0 {
				roots = append(roots, def.Nodes[i].ID)
			}
		}
	}
	e := &latencyEstimator{
		analyzer: a,
		idx:      idx,
		stats:    stats,
		memo:     make(map[string]time.Duration),
		onStack:  make(map[string]bool),
	}
	var longest time.Duration
	for _, root := range roots {
		d, err := e.longest(ctx, root)
		if err != nil {
			return 0, err
		}
		longest = max(longest, d)
	}
	return longest, nil
}

type latencyEstimator struct {
	analyzer *Analyzer
	idx      *graph.Index
	stats    *history.ExecutionStats
	memo     map[string]time.Duration
	onStack  map[string]bool
}

func (e *latencyEstimator) longest(ctx context.Context, id string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if d, ok := e.memo[id]; ok {
		return d, nil
	}
	e.onStack[id] = true
	var tail time.Duration
	for _, succ := range e.idx.Successors(id) {
		if e.onStack[succ] {
			continue
		}
		d, err := e.longest(ctx, succ)
		if err != nil {
			return 0, err
		}
		tail = max(tail, d)
	}
	e.onStack[id] = false
	node, _ := e.idx.Definition().Node(id)
	total := e.nodeCost(node.ID, node.Type, node.Config) + tail
	e.memo[id] = total
	return total, nil
}

func (e *latencyEstimator) nodeCost(id, nodeType string, cfg map[string]any) time.Duration {
	switch nodeType {
	case graph.NodeTypeParallel:
		var slowest time.Duration
		for _, m := range graph.EmbeddedNodes(cfg, "nodes") {
			slowest = max(slowest, e.nodeCost(m.ID, m.Type, m.Config))
		}
		return slowest
	case graph.NodeTypeComposite:
		var sum time.Duration
		for _, m := range graph.EmbeddedNodes(cfg, "steps") {
			sum += e.nodeCost(m.ID, m.Type, m.Config)
		}
		return sum
	}
	if ns, ok := e.stats.Node(id); ok {
		return ns.AverageDuration()
	}
	if nt, ok := e.analyzer.nodeType(nodeType); ok {
		return nt.DefaultLatency
	}
	return 0
}
