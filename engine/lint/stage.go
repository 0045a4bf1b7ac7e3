package lint

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/compozy/flowlint/pkg/logger"
)

// Stage names double as the location of INTERNAL_ERROR issues.
const (
	StageRuleEngine    = "rule_engine"
	StagePerformance   = "performance_analyzer"
	StageDeadCode      = "dead_code_detector"
	StageTypeCheck     = "type_checker"
	StageSecurity      = "security_checker"
	StageCostEstimator = "cost_estimator"
	StageOptimizer     = "graph_optimizer"
	StageHistory       = "execution_history"
)

// callStage runs fn with panic recovery. External stages get the configured
// timeout. A failure caused by cancellation of ctx itself is reported as
// ctx.Err() so that callers can abort instead of recording an issue.
func callStage[T any](
	ctx context.Context,
	l *Linter,
	name string,
	external bool,
	fn func(context.Context) (T, error),
) (result T, err error) {
	stageCtx := ctx
	if external && l.stageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, l.stageTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Debug("Stage panicked", "stage", name, "stack", string(debug.Stack()))
			var zero T
			result = zero
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil && ctx.Err() != nil {
			err = ctx.Err()
		}
	}()
	start := time.Now()
	result, err = fn(stageCtx)
	logger.FromContext(ctx).Debug("Stage finished", "stage", name, "duration", time.Since(start), "error", err)
	return result, err
}
