package performance

import (
	"context"
	"fmt"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/graph"
)

// SuggestImprovements proposes faster models for nodes whose historical
// average exceeds the slow threshold and caching for repeated expensive work.
func (a *Analyzer) SuggestImprovements(ctx context.Context, def *graph.Definition) ([]analysis.Suggestion, error) {
	if err := graph.Validate(def); err != nil {
		return nil, err
	}
	var suggestions []analysis.Suggestion
	stats, found, err := a.history.GetStats(ctx, def.ID)
	if err != nil {
		return nil, fmt.Errorf("loading execution stats: %w", err)
	}
	if found {
		thresholdMs := float64(a.slowThreshold.Milliseconds())
		for i := range def.Nodes {
			node := def.Nodes[i]
			ns, ok := stats.Node(node.ID)
			if !ok || ns.AverageDurationMs <= thresholdMs {
				continue
			}
			suggestions = append(suggestions, analysis.Suggestion{
				Type:  analysis.SuggestionChangeModel,
				Title: fmt.Sprintf("Use a faster model for %s", node.ID),
				Description: fmt.Sprintf(
					"Node %q averages %.0fms per execution, above the %.0fms threshold",
					node.ID, ns.AverageDurationMs, thresholdMs,
				),
				Impact:     analysis.ImpactHigh,
				Difficulty: analysis.DifficultyMedium,
				NodeID:     node.ID,
				Parameters: map[string]any{
					"average_duration_ms": ns.AverageDurationMs,
					"threshold_ms":        thresholdMs,
					"executions":          ns.Executions,
				},
			})
		}
	}
	groups, err := a.uncachedGroups(ctx, def)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		suggestions = append(suggestions, analysis.Suggestion{
			Type:        analysis.SuggestionAddCache,
			Title:       fmt.Sprintf("Cache repeated %s calls", g.nodeType),
			Description: fmt.Sprintf("Nodes %v perform identical %s work; caching avoids repeating it", g.nodes, g.nodeType),
			Impact:      analysis.ImpactMedium,
			Difficulty:  analysis.DifficultyEasy,
			NodeID:      g.nodes[0],
			Parameters:  map[string]any{"nodes": g.nodes},
		})
	}
	return suggestions, nil
}
