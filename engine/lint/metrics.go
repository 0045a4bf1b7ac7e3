package lint

import (
	"context"
	"sync"
	"time"

	"github.com/compozy/flowlint/engine/analysis"
	monitoringmetrics "github.com/compozy/flowlint/engine/infra/monitoring/metrics"
	"github.com/compozy/flowlint/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	lintMeterName       = "flowlint.lint"
	lintMetricSubsystem = "lint"
	optimizeSubsystem   = "optimize"

	operationLint     = "lint"
	operationSuggest  = "suggest"
	operationOptimize = "optimize"
)

type lintMetrics struct {
	runs     metric.Int64Counter
	issues   metric.Int64Counter
	passes   metric.Int64Counter
	duration metric.Float64Histogram
}

var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *lintMetrics
)

// newLintMetrics builds instruments on meter. A nil meter shares one set of
// instruments on the global provider.
func newLintMetrics(meter metric.Meter) *lintMetrics {
	if meter == nil {
		defaultMetricsOnce.Do(func() {
			defaultMetrics = buildLintMetrics(otel.GetMeterProvider().Meter(lintMeterName))
		})
		return defaultMetrics
	}
	return buildLintMetrics(meter)
}

func buildLintMetrics(meter metric.Meter) *lintMetrics {
	m, err := initLintMetrics(meter)
	if err != nil {
		logger.FromContext(context.Background()).Warn("Lint metrics not initialized", "error", err)
		return &lintMetrics{}
	}
	return m
}

func initLintMetrics(meter metric.Meter) (*lintMetrics, error) {
	runs, err := meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem(lintMetricSubsystem, "runs_total"),
		metric.WithDescription("Analysis runs by operation"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	issues, err := meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem(lintMetricSubsystem, "issues_total"),
		metric.WithDescription("Issues reported by severity"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	passes, err := meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem(optimizeSubsystem, "passes_total"),
		metric.WithDescription("Optimization passes that modified the graph"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(
		monitoringmetrics.MetricNameWithSubsystem(lintMetricSubsystem, "duration_seconds"),
		metric.WithDescription("Analysis run duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(monitoringmetrics.AnalysisDurationBuckets...),
	)
	if err != nil {
		return nil, err
	}
	return &lintMetrics{runs: runs, issues: issues, passes: passes, duration: duration}, nil
}

func (m *lintMetrics) recordRun(ctx context.Context, operation string, elapsed time.Duration, issues []analysis.Issue) {
	if m == nil || m.runs == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	op := metric.WithAttributes(attribute.String("operation", operation))
	m.runs.Add(ctx, 1, op)
	m.duration.Record(ctx, elapsed.Seconds(), op)
	counts := make(map[analysis.Severity]int64)
	for _, issue := range issues {
		counts[issue.Severity]++
	}
	for _, sev := range analysis.Severities {
		if n := counts[sev]; n > 0 {
			m.issues.Add(ctx, n, metric.WithAttributes(attribute.String("severity", string(sev))))
		}
	}
}

func (m *lintMetrics) recordLint(ctx context.Context, result *analysis.Result, elapsed time.Duration) {
	m.recordRun(ctx, operationLint, elapsed, result.Issues)
}

func (m *lintMetrics) recordPass(ctx context.Context, opt analysis.OptimizationType) {
	if m == nil || m.passes == nil {
		return
	}
	m.passes.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.String("pass", string(opt))))
}
