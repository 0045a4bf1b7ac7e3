package cost

import (
	"context"
	"fmt"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/pkg/logger"
	"github.com/shopspring/decimal"
)

// EstimateCost sums the per-call cost of every priced node.
func (e *CatalogEstimator) EstimateCost(ctx context.Context, def *graph.Definition) (decimal.Decimal, error) {
	if err := graph.Validate(def); err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for i := range def.Nodes {
		if err := ctx.Err(); err != nil {
			return decimal.Zero, err
		}
		c, err := e.nodeCost(def.Nodes[i].Type, def.Nodes[i].Config)
		if err != nil {
			return decimal.Zero, fmt.Errorf("node %q: %w", def.Nodes[i].ID, err)
		}
		total = total.Add(c)
	}
	return total, nil
}

var (
	highSavings   = decimal.NewFromInt(50)
	mediumSavings = decimal.NewFromInt(20)
	hundred       = decimal.NewFromInt(100)
)

// SuggestOptimizations proposes the catalog downgrade for every priced node
// that has one, whether or not the node opted into automatic downgrades.
func (e *CatalogEstimator) SuggestOptimizations(ctx context.Context, def *graph.Definition) ([]analysis.Suggestion, error) {
	if err := graph.Validate(def); err != nil {
		return nil, err
	}
	var suggestions []analysis.Suggestion
	for i := range def.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node := def.Nodes[i]
		current, ok, err := e.priced(node.Type, node.Config)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", node.ID, err)
		}
		if !ok {
			continue
		}
		target, ok := e.catalog.Downgrade(current.price.Model)
		if !ok {
			continue
		}
		cheaper, ok := e.catalog.LookupModel(target)
		if !ok {
			continue
		}
		before := current.price.Cost(current.usage)
		after := cheaper.Cost(current.usage)
		if !after.LessThan(before) {
			continue
		}
		savings := before.Sub(after).Div(before).Mul(hundred).Round(1)
		suggestions = append(suggestions, analysis.Suggestion{
			Type:  analysis.SuggestionChangeModel,
			Title: fmt.Sprintf("Switch %s to %s", node.ID, target),
			Description: fmt.Sprintf(
				"Node %q uses %s; %s would cut its estimated cost per call by %s%%",
				node.ID, current.price.Model, target, savings.String(),
			),
			Impact:     savingsImpact(savings),
			Difficulty: analysis.DifficultyEasy,
			NodeID:     node.ID,
			Parameters: map[string]any{
				"current_model":      current.price.Model,
				"suggested_model":    target,
				"current_cost_usd":   before.String(),
				"suggested_cost_usd": after.String(),
				"savings_percent":    savings.InexactFloat64(),
			},
		})
	}
	return suggestions, nil
}

func savingsImpact(percent decimal.Decimal) analysis.Impact {
	switch {
	case percent.GreaterThanOrEqual(highSavings):
		return analysis.ImpactHigh
	case percent.GreaterThanOrEqual(mediumSavings):
		return analysis.ImpactMedium
	default:
		return analysis.ImpactLow
	}
}

// OptimizeModelSelection replaces models with their catalog downgrade on
// nodes that allow it, including members of PARALLEL and COMPOSITE nodes.
// Downgrade targets are never downgraded again, so a second run is a no-op.
func (e *CatalogEstimator) OptimizeModelSelection(ctx context.Context, def *graph.Definition) (*graph.OptimizedGraph, error) {
	if err := graph.Validate(def); err != nil {
		return nil, err
	}
	out, err := def.Clone()
	if err != nil {
		return nil, err
	}
	changed := 0
	for i := range out.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cfg := out.Nodes[i].Config
		if cfg == nil {
			cfg = map[string]any{}
		}
		n, err := e.downgradeNode(out.Nodes[i].Type, cfg)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", out.Nodes[i].ID, err)
		}
		if n > 0 {
			out.Nodes[i].Config = cfg
		}
		changed += n
	}
	logger.FromContext(ctx).Debug("Model selection finished", "workflow_id", def.ID, "changed", changed)
	if changed == 0 {
		return graph.Unchanged(out), nil
	}
	return &graph.OptimizedGraph{Definition: out, Modified: true, ModelChangedCount: changed}, nil
}

// downgradeNode rewrites the non-nil cfg in place and returns the number of
// changed nodes.
func (e *CatalogEstimator) downgradeNode(nodeType string, cfg map[string]any) (int, error) {
	if nodeType == graph.NodeTypeParallel || nodeType == graph.NodeTypeComposite {
		return e.downgradeMembers(cfg[embeddedKey(nodeType)])
	}
	if allowed, _ := cfg[AllowDowngradeKey].(bool); !allowed && !e.allowDowngrade {
		return 0, nil
	}
	current, ok, err := e.priced(nodeType, cfg)
	if err != nil || !ok {
		return 0, err
	}
	target, ok := e.catalog.Downgrade(current.price.Model)
	if !ok {
		return 0, nil
	}
	cfg["model"] = target
	return 1, nil
}

func (e *CatalogEstimator) downgradeMembers(members any) (int, error) {
	var items []map[string]any
	switch v := members.(type) {
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				items = append(items, m)
			}
		}
	case []map[string]any:
		items = v
	}
	changed := 0
	for _, m := range items {
		nodeType, _ := m["node_type"].(string)
		cfg, _ := m["config"].(map[string]any)
		if cfg == nil {
			cfg = map[string]any{}
		}
		n, err := e.downgradeNode(nodeType, cfg)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			m["config"] = cfg
		}
		changed += n
	}
	return changed, nil
}
