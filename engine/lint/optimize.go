package lint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/engine/history"
	"github.com/compozy/flowlint/pkg/logger"
	"github.com/shopspring/decimal"
)

type rewritePass struct {
	opt      analysis.OptimizationType
	stage    string
	external bool
	run      func(context.Context, *graph.Definition) (*graph.OptimizedGraph, error)
	describe func(*graph.OptimizedGraph) string
}

func (l *Linter) rewritePasses() []rewritePass {
	return []rewritePass{
		{
			opt:   analysis.OptimizationDeadCodeElimination,
			stage: StageDeadCode,
			run:   l.deadcode.RemoveDeadNodes,
			describe: func(g *graph.OptimizedGraph) string {
				return fmt.Sprintf("removed %d unreachable node(s)", g.RemovedNodeCount)
			},
		},
		{
			opt:   analysis.OptimizationParallelization,
			stage: StageOptimizer,
			run:   l.optimizer.ParallelizeIndependentNodes,
			describe: func(g *graph.OptimizedGraph) string {
				return fmt.Sprintf("grouped independent siblings into %d parallel coordinator(s)", g.ParallelizedCount)
			},
		},
		{
			opt:   analysis.OptimizationNodeMerge,
			stage: StageOptimizer,
			run:   l.optimizer.MergeConsecutiveNodes,
			describe: func(g *graph.OptimizedGraph) string {
				return fmt.Sprintf("merged %d consecutive node pair(s)", g.MergedCount)
			},
		},
		{
			opt:      analysis.OptimizationModelSelection,
			stage:    StageCostEstimator,
			external: true,
			run:      l.cost.OptimizeModelSelection,
			describe: func(g *graph.OptimizedGraph) string {
				return fmt.Sprintf("switched %d node(s) to cheaper models", g.ModelChangedCount)
			},
		},
	}
}

// Optimize applies dead-code elimination, parallelization, node merging and
// model selection once, in that order. Built-in passes must keep the graph
// valid; a failing or invalid cost pass is skipped and reported in Issues.
func (l *Linter) Optimize(ctx context.Context, def *graph.Definition) (*analysis.OptimizationResult, error) {
	start := time.Now()
	if err := graph.Validate(def); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	original, err := def.Clone()
	if err != nil {
		return nil, err
	}
	result := &analysis.OptimizationResult{Original: original, Applied: []analysis.Optimization{}}
	current := original
	log := logger.FromContext(ctx)
	for _, pass := range l.rewritePasses() {
		out, err := callStage(ctx, l, pass.stage, pass.external, func(c context.Context) (*graph.OptimizedGraph, error) {
			return pass.run(c, current)
		})
		if err == nil && out == nil {
			err = errors.New("pass returned no graph")
		}
		if err == nil {
			if vErr := graph.Validate(out.Definition); vErr != nil {
				err = fmt.Errorf("pass %s produced an invalid graph: %w", pass.opt, vErr)
			}
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if !pass.external {
				return nil, err
			}
			result.Issues = append(result.Issues, analysis.InternalError(pass.stage, err))
			continue
		}
		current = out.Definition
		if !out.Modified {
			continue
		}
		result.Applied = append(result.Applied, analysis.Optimization{Type: pass.opt, Description: pass.describe(out)})
		l.metrics.recordPass(ctx, pass.opt)
		log.Debug("Optimization pass applied", "workflow_id", def.ID, "pass", pass.opt)
	}
	result.Optimized = current
	metrics, issues, err := l.improvement(ctx, original, current)
	if err != nil {
		return nil, err
	}
	result.Metrics = metrics
	result.Issues = append(result.Issues, issues...)
	l.metrics.recordRun(ctx, operationOptimize, time.Since(start), result.Issues)
	return result, nil
}

func (l *Linter) improvement(
	ctx context.Context,
	before, after *graph.Definition,
) (analysis.ImprovementMetrics, []analysis.Issue, error) {
	m := analysis.ImprovementMetrics{
		NodesReduced: len(before.Nodes) - len(after.Nodes),
		EdgesReduced: len(before.Edges) - len(after.Edges),
	}
	var issues []analysis.Issue
	costs, err := callStage(ctx, l, StageCostEstimator, true, func(c context.Context) ([2]decimal.Decimal, error) {
		b, err := l.cost.EstimateCost(c, before)
		if err != nil {
			return [2]decimal.Decimal{}, err
		}
		a, err := l.cost.EstimateCost(c, after)
		return [2]decimal.Decimal{b, a}, err
	})
	switch {
	case err == nil:
		m.CostReductionPercent = analysis.ReductionPercent(costs[0].InexactFloat64(), costs[1].InexactFloat64())
	case ctx.Err() != nil:
		return m, nil, ctx.Err()
	default:
		issues = append(issues, analysis.InternalError(StageCostEstimator, err))
	}
	stats, err := callStage(ctx, l, StageHistory, true, func(c context.Context) (*history.ExecutionStats, error) {
		s, _, err := l.history.GetStats(c, before.ID)
		return s, err
	})
	if err != nil {
		if ctx.Err() != nil {
			return m, nil, ctx.Err()
		}
		issues = append(issues, analysis.InternalError(StageHistory, err))
		stats = nil
	}
	latBefore, err := l.performance.EstimateLatency(ctx, before, stats)
	if err != nil {
		return m, nil, err
	}
	latAfter, err := l.performance.EstimateLatency(ctx, after, stats)
	if err != nil {
		return m, nil, err
	}
	m.LatencyReductionPercent = analysis.ReductionPercent(float64(latBefore), float64(latAfter))
	return m, issues, nil
}
