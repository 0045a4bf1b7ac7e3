package performance

import (
	"context"
	"fmt"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/core"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/engine/schema"
)

// bookkeepingKeys do not change what an expensive node computes.
var bookkeepingKeys = map[string]struct{}{
	"cache":       {},
	"cache_ttl":   {},
	"name":        {},
	"description": {},
	"label":       {},
	"metadata":    {},
	"position":    {},
}

func effectiveConfig(nt *schema.NodeType, node *graph.Node) (map[string]any, error) {
	cfg, err := nt.EffectiveConfig(node.Config)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", node.ID, err)
	}
	return cfg, nil
}

func (a *Analyzer) unboundedExpensiveNodes(ctx context.Context, def *graph.Definition) ([]analysis.Issue, error) {
	var issues []analysis.Issue
	for i := range def.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node := &def.Nodes[i]
		nt, ok := a.nodeType(node.Type)
		if !ok || !nt.Expensive {
			continue
		}
		cfg, err := effectiveConfig(nt, node)
		if err != nil {
			return nil, err
		}
		_, hasTimeout := cfg["timeout"]
		_, hasResources := cfg["resources"]
		if hasTimeout || hasResources {
			continue
		}
		issues = append(issues, analysis.Issue{
			Severity:       analysis.SeverityWarning,
			Category:       analysis.CategoryPerformance,
			Message:        fmt.Sprintf("expensive node %q (%s) has no timeout or resource limits", node.ID, node.Type),
			Location:       node.ID,
			Recommendation: "set a timeout or resource limits on this node",
			Metadata:       map[string]any{"node_type": node.Type},
		})
	}
	return issues, nil
}

type cacheGroup struct {
	nodeType string
	nodes    []string
}

func (g cacheGroup) issue() analysis.Issue {
	return analysis.Issue{
		Severity: analysis.SeverityInfo,
		Category: analysis.CategoryPerformance,
		Message: fmt.Sprintf(
			"%d %s nodes perform the same expensive work without caching",
			len(g.nodes), g.nodeType,
		),
		Location:       g.nodes[0],
		Recommendation: "enable caching on these nodes",
		Metadata:       map[string]any{"nodes": g.nodes, "node_type": g.nodeType},
	}
}

func cacheEnabled(cfg map[string]any) bool {
	switch v := cfg["cache"].(type) {
	case bool:
		return v
	case map[string]any:
		enabled, ok := v["enabled"].(bool)
		return ok && enabled
	}
	return false
}

// uncachedGroups groups expensive nodes computing the same thing and returns,
// ordered by first member, the groups of two or more where none caches.
func (a *Analyzer) uncachedGroups(ctx context.Context, def *graph.Definition) ([]cacheGroup, error) {
	type bucket struct {
		group  cacheGroup
		cached bool
	}
	var order []string
	buckets := make(map[string]*bucket)
	for i := range def.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node := &def.Nodes[i]
		nt, ok := a.nodeType(node.Type)
		if !ok || !nt.Expensive {
			continue
		}
		cfg, err := effectiveConfig(nt, node)
		if err != nil {
			return nil, err
		}
		work := make(map[string]any, len(cfg))
		for k, v := range cfg {
			if _, skip := bookkeepingKeys[k]; !skip {
				work[k] = v
			}
		}
		key := node.Type + "/" + core.Fingerprint(work)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{group: cacheGroup{nodeType: node.Type}}
			buckets[key] = b
			order = append(order, key)
		}
		b.group.nodes = append(b.group.nodes, node.ID)
		b.cached = b.cached || cacheEnabled(cfg)
	}
	var groups []cacheGroup
	for _, key := range order {
		b := buckets[key]
		if len(b.group.nodes) >= 2 && !b.cached {
			groups = append(groups, b.group)
		}
	}
	return groups, nil
}
