// Package cost prices LLM-backed nodes and proposes cheaper model choices.
package cost

import (
	"context"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/cost/pricing"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/engine/schema"
	"github.com/shopspring/decimal"
)

// Estimator prices workflows and rewrites model choices.
type Estimator interface {
	SuggestOptimizations(ctx context.Context, def *graph.Definition) ([]analysis.Suggestion, error)
	OptimizeModelSelection(ctx context.Context, def *graph.Definition) (*graph.OptimizedGraph, error)
	EstimateCost(ctx context.Context, def *graph.Definition) (decimal.Decimal, error)
}

// NoopEstimator prices everything at zero and never rewrites.
type NoopEstimator struct{}

func (NoopEstimator) SuggestOptimizations(context.Context, *graph.Definition) ([]analysis.Suggestion, error) {
	return nil, nil
}

func (NoopEstimator) OptimizeModelSelection(_ context.Context, def *graph.Definition) (*graph.OptimizedGraph, error) {
	clone, err := def.Clone()
	if err != nil {
		return nil, err
	}
	return graph.Unchanged(clone), nil
}

func (NoopEstimator) EstimateCost(context.Context, *graph.Definition) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

const (
	// AllowDowngradeKey opts a single node into automatic model downgrades.
	AllowDowngradeKey = "allow_model_downgrade"

	defaultPromptTokens     = 1000
	defaultCompletionTokens = 500
)

type CatalogEstimator struct {
	registry       schema.Registry
	catalog        *pricing.Catalog
	allowDowngrade bool
	usage          pricing.Usage
}

type Option func(*CatalogEstimator)

func WithCatalog(c *pricing.Catalog) Option {
	return func(e *CatalogEstimator) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithAllowDowngrade enables downgrades on every node, not only on nodes
// setting allow_model_downgrade.
func WithAllowDowngrade(allow bool) Option {
	return func(e *CatalogEstimator) { e.allowDowngrade = allow }
}

// WithDefaultUsage sets the token usage assumed per call.
func WithDefaultUsage(u pricing.Usage) Option {
	return func(e *CatalogEstimator) {
		if u.Total() > 0 {
			e.usage = u
		}
	}
}

func New(registry schema.Registry, opts ...Option) *CatalogEstimator {
	e := &CatalogEstimator{
		registry: registry,
		catalog:  pricing.Default(),
		usage:    pricing.Usage{PromptTokens: defaultPromptTokens, CompletionTokens: defaultCompletionTokens},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
