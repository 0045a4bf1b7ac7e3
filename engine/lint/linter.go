// Package lint combines the dead-code detector, the graph optimizer, the
// performance analyzer and the external collaborators into one linter with
// three entry points: Lint, Suggest and Optimize.
package lint

import (
	"time"

	"github.com/compozy/flowlint/engine/cost"
	"github.com/compozy/flowlint/engine/deadcode"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/engine/history"
	"github.com/compozy/flowlint/engine/optimizer"
	"github.com/compozy/flowlint/engine/performance"
	"github.com/compozy/flowlint/engine/rules"
	"github.com/compozy/flowlint/engine/schema"
	"github.com/compozy/flowlint/pkg/config"
	"go.opentelemetry.io/otel/metric"
)

// Linter is safe for concurrent use; it holds only immutable collaborators.
type Linter struct {
	registry     schema.Registry
	rules        rules.Engine
	cost         cost.Estimator
	history      history.Store
	config       *config.Config
	meter        metric.Meter
	stageTimeout time.Duration

	deadcode    *deadcode.Detector
	optimizer   *optimizer.Optimizer
	performance *performance.Analyzer
	metrics     *lintMetrics
	schemaStats *schema.Metrics
}

type Option func(*Linter)

func WithRuleEngine(engine rules.Engine) Option {
	return func(l *Linter) {
		if engine != nil {
			l.rules = engine
		}
	}
}

func WithCostEstimator(estimator cost.Estimator) Option {
	return func(l *Linter) {
		if estimator != nil {
			l.cost = estimator
		}
	}
}

func WithHistoryStore(store history.Store) Option {
	return func(l *Linter) {
		if store != nil {
			l.history = store
		}
	}
}

// WithConfig applies the lint and performance sections of cfg.
func WithConfig(cfg *config.Config) Option {
	return func(l *Linter) {
		if cfg != nil {
			l.config = cfg
		}
	}
}

// WithMeter records run and schema metrics on meter instead of the global provider.
func WithMeter(meter metric.Meter) Option {
	return func(l *Linter) {
		if meter != nil {
			l.meter = meter
		}
	}
}

// New builds a linter. Collaborators that are not supplied default to no-op
// implementations; registry may be nil, in which case every port is ANY.
func New(registry schema.Registry, opts ...Option) *Linter {
	l := &Linter{
		registry: registry,
		rules:    rules.NoopEngine{},
		cost:     cost.NoopEstimator{},
		history:  history.NoopStore{},
		config:   config.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	startType := l.config.Lint.StartNodeType
	if startType == "" {
		startType = graph.NodeTypeStart
	}
	l.stageTimeout = l.config.Lint.StageTimeout
	l.deadcode = deadcode.New(deadcode.WithStartNodeType(startType))
	l.optimizer = optimizer.New(registry, optimizer.WithStartNodeType(startType))
	l.performance = performance.New(registry,
		performance.WithHistoryStore(l.history),
		performance.WithMinChainLength(l.config.Performance.MinChainLength),
		performance.WithSlowThreshold(l.config.Performance.SlowNodeThreshold),
		performance.WithStartNodeType(startType),
	)
	l.metrics = newLintMetrics(l.meter)
	l.schemaStats = schema.NewMetrics(l.meter)
	return l
}
