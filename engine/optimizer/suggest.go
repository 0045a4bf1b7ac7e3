package optimizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/graph"
)

// SuggestImprovements lists the merges and parallelizations the rewrite passes
// would apply, without applying them.
func (o *Optimizer) SuggestImprovements(ctx context.Context, def *graph.Definition) ([]analysis.Suggestion, error) {
	if err := graph.Validate(def); err != nil {
		return nil, err
	}
	idx := graph.NewIndex(def)
	runs, err := o.mergeRuns(ctx, idx)
	if err != nil {
		return nil, err
	}
	var suggestions []analysis.Suggestion
	for _, run := range runs {
		for i := 1; i < len(run); i++ {
			suggestions = append(suggestions, analysis.Suggestion{
				Type:  analysis.SuggestionMergeNodes,
				Title: fmt.Sprintf("Merge %s into %s", run[i], run[i-1]),
				Description: fmt.Sprintf(
					"Nodes %q and %q form a linear chain of stateless steps and can run as one composite node",
					run[i-1], run[i],
				),
				Impact:     analysis.ImpactMedium,
				Difficulty: analysis.DifficultyEasy,
				NodeID:     run[i-1],
				Parameters: map[string]any{
					"source_node_id": run[i-1],
					"target_node_id": run[i],
				},
			})
		}
	}
	groups, err := o.parallelGroups(ctx, idx)
	if err != nil {
		return nil, err
	}
	for _, group := range groups {
		suggestions = append(suggestions, analysis.Suggestion{
			Type:  analysis.SuggestionParallelize,
			Title: fmt.Sprintf("Run %s in parallel", strings.Join(group.Members, ", ")),
			Description: fmt.Sprintf(
				"Nodes %s share inputs and outputs and do not depend on each other",
				strings.Join(group.Members, ", "),
			),
			Impact:     analysis.ImpactMedium,
			Difficulty: analysis.DifficultyMedium,
			NodeID:     group.Members[0],
			Parameters: map[string]any{
				"node_ids":     group.Members,
				"predecessors": group.Predecessors,
				"successors":   group.Successors,
			},
		})
	}
	return suggestions, nil
}
