package lint

import (
	"context"
	"time"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/engine/schema"
	"github.com/compozy/flowlint/pkg/logger"
	"golang.org/x/sync/errgroup"
)

type lintStage struct {
	name     string
	external bool
	run      func(context.Context, *graph.Definition) ([]analysis.Issue, error)
}

func (l *Linter) lintStages() []lintStage {
	return []lintStage{
		{StageRuleEngine, true, l.rules.Check},
		{StagePerformance, false, l.performance.Analyze},
		{StageDeadCode, false, l.deadcode.Detect},
		{StageTypeCheck, false, l.checkTypes},
		{StageSecurity, false, l.checkSecurity},
	}
}

// Lint runs every stage concurrently and concatenates their issues in stage
// order, so the result does not depend on scheduling.
func (l *Linter) Lint(ctx context.Context, def *graph.Definition) (*analysis.Result, error) {
	start := time.Now()
	if err := graph.Validate(def); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stages := l.lintStages()
	slots := make([][]analysis.Issue, len(stages))
	g, gctx := errgroup.WithContext(schema.ContextWithMetrics(ctx, l.schemaStats))
	for i, st := range stages {
		g.Go(func() error {
			issues, err := callStage(gctx, l, st.name, st.external, func(c context.Context) ([]analysis.Issue, error) {
				return st.run(c, def)
			})
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slots[i] = []analysis.Issue{analysis.InternalError(st.name, err)}
				return nil
			}
			slots[i] = issues
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var issues []analysis.Issue
	for _, slot := range slots {
		issues = append(issues, slot...)
	}
	result := analysis.NewResult(def.ID, issues)
	l.metrics.recordLint(ctx, result, time.Since(start))
	logger.FromContext(ctx).Debug("Lint finished", "workflow_id", def.ID, "issues", len(result.Issues))
	return result, nil
}
