package lint

import (
	"context"
	"time"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/pkg/logger"
)

// Suggest collects advisory improvements from the cost estimator, the
// performance analyzer and the optimizer, in that order. Nothing is applied.
func (l *Linter) Suggest(ctx context.Context, def *graph.Definition) (*analysis.SuggestionSet, error) {
	start := time.Now()
	if err := graph.Validate(def); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sources := []struct {
		name     string
		external bool
		run      func(context.Context, *graph.Definition) ([]analysis.Suggestion, error)
	}{
		{StageCostEstimator, true, l.cost.SuggestOptimizations},
		{StagePerformance, true, l.performance.SuggestImprovements},
		{StageOptimizer, false, l.optimizer.SuggestImprovements},
	}
	set := &analysis.SuggestionSet{WorkflowID: def.ID, Suggestions: []analysis.Suggestion{}}
	for _, src := range sources {
		found, err := callStage(ctx, l, src.name, src.external, func(c context.Context) ([]analysis.Suggestion, error) {
			return src.run(c, def)
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			set.Issues = append(set.Issues, analysis.InternalError(src.name, err))
			continue
		}
		set.Suggestions = append(set.Suggestions, found...)
	}
	l.metrics.recordRun(ctx, operationSuggest, time.Since(start), set.Issues)
	logger.FromContext(ctx).Debug("Suggest finished", "workflow_id", def.ID, "suggestions", len(set.Suggestions))
	return set, nil
}
