package cost

import (
	"github.com/compozy/flowlint/engine/cost/pricing"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/shopspring/decimal"
)

// pricedNode is a node whose effective config names a priced model.
type pricedNode struct {
	price pricing.Price
	usage pricing.Usage
}

func intValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), n == float64(int64(n))
	}
	return 0, false
}

func (e *CatalogEstimator) effectiveConfig(nodeType string, cfg map[string]any) (map[string]any, error) {
	if e.registry == nil {
		return cfg, nil
	}
	nt, _ := e.registry.NodeType(nodeType)
	return nt.EffectiveConfig(cfg)
}

// priced resolves the model price of a plain node. Nodes without a priced
// model report false.
func (e *CatalogEstimator) priced(nodeType string, cfg map[string]any) (pricedNode, bool, error) {
	eff, err := e.effectiveConfig(nodeType, cfg)
	if err != nil {
		return pricedNode{}, false, err
	}
	model, _ := eff["model"].(string)
	if model == "" {
		return pricedNode{}, false, nil
	}
	var (
		price pricing.Price
		ok    bool
	)
	if provider, _ := eff["provider"].(string); provider != "" {
		price, ok = e.catalog.Lookup(pricing.Provider(provider), model)
	} else {
		price, ok = e.catalog.LookupModel(model)
	}
	if !ok {
		return pricedNode{}, false, nil
	}
	usage := e.usage
	if n, ok := intValue(eff["max_tokens"]); ok && n > 0 {
		usage.CompletionTokens = n
	}
	return pricedNode{price: price, usage: usage}, true, nil
}

// nodeCost prices one node; synthesized nodes cost the sum of their members.
func (e *CatalogEstimator) nodeCost(nodeType string, cfg map[string]any) (decimal.Decimal, error) {
	switch nodeType {
	case graph.NodeTypeParallel, graph.NodeTypeComposite:
		total := decimal.Zero
		for _, m := range embeddedMembers(nodeType, cfg) {
			c, err := e.nodeCost(m.Type, m.Config)
			if err != nil {
				return decimal.Zero, err
			}
			total = total.Add(c)
		}
		return total, nil
	}
	p, ok, err := e.priced(nodeType, cfg)
	if err != nil || !ok {
		return decimal.Zero, err
	}
	return p.price.Cost(p.usage), nil
}

func embeddedKey(nodeType string) string {
	if nodeType == graph.NodeTypeParallel {
		return "nodes"
	}
	return "steps"
}

func embeddedMembers(nodeType string, cfg map[string]any) []graph.Node {
	return graph.EmbeddedNodes(cfg, embeddedKey(nodeType))
}
