package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/engine/schema"
)

const ConfigSchemaRuleName = "config-schema"

// ConfigSchemaRule validates each node's effective config against the JSON
// schema declared by its node type.
type ConfigSchemaRule struct {
	registry schema.Registry
}

func NewConfigSchemaRule(registry schema.Registry) *ConfigSchemaRule {
	return &ConfigSchemaRule{registry: registry}
}

func (r *ConfigSchemaRule) Name() string { return ConfigSchemaRuleName }

func (r *ConfigSchemaRule) Check(ctx context.Context, def *graph.Definition) ([]analysis.Issue, error) {
	if r.registry == nil {
		return nil, nil
	}
	var issues []analysis.Issue
	for i := range def.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node := def.Nodes[i]
		nt, ok := r.registry.NodeType(node.Type)
		if !ok || nt.ConfigSchema == nil {
			continue
		}
		violations, err := nt.ValidateConfig(ctx, node.Config)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", node.ID, err)
		}
		if len(violations) == 0 {
			continue
		}
		issues = append(issues, analysis.Issue{
			Severity: analysis.SeverityError,
			Category: analysis.CategoryConfiguration,
			Message: fmt.Sprintf(
				"node %q config does not match the %s schema: %s",
				node.ID, nt.Name, strings.Join(violations, "; "),
			),
			Location:       node.ID,
			Recommendation: "fix the node configuration",
			Metadata:       map[string]any{"rule": ConfigSchemaRuleName, "violations": violations},
		})
	}
	return issues, nil
}
