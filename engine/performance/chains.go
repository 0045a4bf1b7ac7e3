package performance

import (
	"context"
	"fmt"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/graph"
)

// isLink reports whether the node has exactly one incoming and one outgoing edge.
func isLink(idx *graph.Index, id string) bool {
	return len(idx.InEdges(id)) == 1 && len(idx.OutEdges(id)) == 1
}

// sequentialChains finds maximal runs of link nodes. A run starts at a link
// whose predecessor is not a link; links left over afterwards form pure
// cycles and are reported once from their first node in definition order.
func (a *Analyzer) sequentialChains(ctx context.Context, idx *graph.Index) ([]analysis.Issue, error) {
	def := idx.Definition()
	visited := make(map[string]struct{})
	var chains [][]string
	walk := func(start string) {
		var chain []string
		for id := start; ; {
			if _, seen := visited[id]; seen || !isLink(idx, id) {
				break
			}
			visited[id] = struct{}{}
			chain = append(chain, id)
			id = idx.OutEdges(id)[0].TargetNodeID
		}
		chains = append(chains, chain)
	}
	for i := range def.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := def.Nodes[i].ID
		if !isLink(idx, id) {
			continue
		}
		if pred := idx.InEdges(id)[0].SourceNodeID; isLink(idx, pred) {
			continue
		}
		walk(id)
	}
	for i := range def.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := def.Nodes[i].ID
		if _, seen := visited[id]; seen || !isLink(idx, id) {
			continue
		}
		walk(id)
	}
	var issues []analysis.Issue
	for _, chain := range chains {
		if len(chain) < a.minChainLength {
			continue
		}
		issues = append(issues, analysis.Issue{
			Severity: analysis.SeverityInfo,
			Category: analysis.CategoryPerformance,
			Message: fmt.Sprintf(
				"%d nodes starting at %q run strictly in sequence",
				len(chain), chain[0],
			),
			Location:       chain[0],
			Recommendation: "check whether some of these steps can run in parallel or be merged",
			Metadata:       map[string]any{"chain": chain, "length": len(chain)},
		})
	}
	return issues, nil
}
