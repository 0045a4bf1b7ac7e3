package schema

import (
	"context"
	"sync"
	"time"

	monitoringmetrics "github.com/compozy/flowlint/engine/infra/monitoring/metrics"
	"github.com/compozy/flowlint/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	schemaMeterName       = "flowlint.schema"
	schemaMetricSubsystem = "schema"
)

var schemaValidateBuckets = []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01}

// Metrics records config schema compiles and node config validations.
type Metrics struct {
	compiles    metric.Int64Counter
	validations metric.Int64Counter
	violations  metric.Int64Counter
	duration    metric.Float64Histogram
}

var (
	defaultSchemaMetricsOnce sync.Once
	defaultSchemaMetrics     *Metrics
)

type metricsKey struct{}

// NewMetrics builds instruments on meter. A nil meter shares one set of
// instruments on the global provider.
func NewMetrics(meter metric.Meter) *Metrics {
	if meter == nil {
		defaultSchemaMetricsOnce.Do(func() {
			defaultSchemaMetrics = buildSchemaMetrics(otel.GetMeterProvider().Meter(schemaMeterName))
		})
		return defaultSchemaMetrics
	}
	return buildSchemaMetrics(meter)
}

// ContextWithMetrics makes schema operations under ctx record on m.
func ContextWithMetrics(ctx context.Context, m *Metrics) context.Context {
	return context.WithValue(ctx, metricsKey{}, m)
}

func metricsFromContext(ctx context.Context) *Metrics {
	if ctx != nil {
		if m, ok := ctx.Value(metricsKey{}).(*Metrics); ok && m != nil {
			return m
		}
	}
	return NewMetrics(nil)
}

func buildSchemaMetrics(meter metric.Meter) *Metrics {
	m, err := initSchemaMetrics(meter)
	if err != nil {
		logger.FromContext(context.Background()).Warn("Schema metrics not initialized", "error", err)
		return &Metrics{}
	}
	return m
}

func initSchemaMetrics(meter metric.Meter) (*Metrics, error) {
	compiles, err := meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem(schemaMetricSubsystem, "compiles_total"),
		metric.WithDescription("Config schema compilations by cache outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	validations, err := meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem(schemaMetricSubsystem, "validations_total"),
		metric.WithDescription("Node config validations by node type and outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	violations, err := meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem(schemaMetricSubsystem, "violations_total"),
		metric.WithDescription("Config schema violations by node type"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(
		monitoringmetrics.MetricNameWithSubsystem(schemaMetricSubsystem, "validate_duration_seconds"),
		metric.WithDescription("Node config validation duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(schemaValidateBuckets...),
	)
	if err != nil {
		return nil, err
	}
	return &Metrics{compiles: compiles, validations: validations, violations: violations, duration: duration}, nil
}

func (m *Metrics) recordCompile(ctx context.Context, cacheHit bool) {
	if m == nil || m.compiles == nil {
		return
	}
	m.compiles.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.Bool("cache_hit", cacheHit)))
}

// recordValidation counts one validation. An empty nodeType is recorded
// without the node_type attribute.
func (m *Metrics) recordValidation(ctx context.Context, nodeType string, elapsed time.Duration, violations int) {
	if m == nil || m.validations == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	var attrs []attribute.KeyValue
	if nodeType != "" {
		attrs = append(attrs, attribute.String("node_type", nodeType))
	}
	outcome := "valid"
	if violations > 0 {
		outcome = "invalid"
		m.violations.Add(ctx, int64(violations), metric.WithAttributes(attrs...))
	}
	m.validations.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("outcome", outcome))...))
	m.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
}
