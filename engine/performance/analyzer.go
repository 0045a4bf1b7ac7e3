// Package performance reports structural performance smells and estimates
// workflow latency from execution history.
package performance

import (
	"context"
	"time"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/engine/history"
	"github.com/compozy/flowlint/engine/schema"
	"github.com/compozy/flowlint/pkg/logger"
)

const (
	DefaultMinChainLength = 3
	DefaultSlowThreshold  = 5 * time.Second
)

type Analyzer struct {
	registry       schema.Registry
	history        history.Store
	minChainLength int
	slowThreshold  time.Duration
	startNodeType  string
}

type Option func(*Analyzer)

func WithHistoryStore(store history.Store) Option {
	return func(a *Analyzer) {
		if store != nil {
			a.history = store
		}
	}
}

// WithMinChainLength sets the shortest sequential run reported as a bottleneck.
func WithMinChainLength(n int) Option {
	return func(a *Analyzer) {
		if n >= 2 {
			a.minChainLength = n
		}
	}
}

// WithSlowThreshold sets the average duration above which a node is considered slow.
func WithSlowThreshold(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.slowThreshold = d
		}
	}
}

func WithStartNodeType(nodeType string) Option {
	return func(a *Analyzer) {
		if nodeType != "" {
			a.startNodeType = nodeType
		}
	}
}

func New(registry schema.Registry, opts ...Option) *Analyzer {
	a := &Analyzer{
		registry:       registry,
		history:        history.NoopStore{},
		minChainLength: DefaultMinChainLength,
		slowThreshold:  DefaultSlowThreshold,
		startNodeType:  graph.NodeTypeStart,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze reports sequential bottlenecks, unbounded expensive nodes and
// repeated expensive work without caching, in that order.
func (a *Analyzer) Analyze(ctx context.Context, def *graph.Definition) ([]analysis.Issue, error) {
	if err := graph.Validate(def); err != nil {
		return nil, err
	}
	idx := graph.NewIndex(def)
	var issues []analysis.Issue
	chains, err := a.sequentialChains(ctx, idx)
	if err != nil {
		return nil, err
	}
	issues = append(issues, chains...)
	expensive, err := a.unboundedExpensiveNodes(ctx, def)
	if err != nil {
		return nil, err
	}
	issues = append(issues, expensive...)
	groups, err := a.uncachedGroups(ctx, def)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		issues = append(issues, g.issue())
	}
	logger.FromContext(ctx).Debug("Performance analysis finished", "workflow_id", def.ID, "issues", len(issues))
	return issues, nil
}

func (a *Analyzer) nodeType(name string) (*schema.NodeType, bool) {
	if a.registry == nil {
		return nil, false
	}
	return a.registry.NodeType(name)
}
