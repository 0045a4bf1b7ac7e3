package schema

import (
	"context"
	"fmt"

	"dario.cat/mergo"
	"github.com/compozy/flowlint/engine/core"
)

// EffectiveConfig returns cfg merged over the node type defaults. Neither
// input is modified. A nil node type yields a copy of cfg.
func (t *NodeType) EffectiveConfig(cfg map[string]any) (map[string]any, error) {
	out := map[string]any{}
	if t != nil && len(t.Defaults) > 0 {
		defaults, err := core.CloneConfig(t.Defaults)
		if err != nil {
			return nil, err
		}
		out = defaults
	}
	override, err := core.CloneConfig(cfg)
	if err != nil {
		return nil, err
	}
	if override == nil {
		return out, nil
	}
	if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merging %s defaults: %w", t.nameOrUnknown(), err)
	}
	return out, nil
}

// ValidateConfig checks the effective config of a node against the type's
// config schema and returns the sorted violations.
func (t *NodeType) ValidateConfig(ctx context.Context, cfg map[string]any) ([]string, error) {
	if t == nil || t.ConfigSchema == nil {
		return nil, nil
	}
	effective, err := t.EffectiveConfig(cfg)
	if err != nil {
		return nil, err
	}
	violations, err := t.ConfigSchema.validate(ctx, t.Name, effective)
	if err != nil {
		return nil, fmt.Errorf("node type %s: %w", t.Name, err)
	}
	return violations, nil
}

func (t *NodeType) nameOrUnknown() string {
	if t == nil || t.Name == "" {
		return "node type"
	}
	return t.Name
}
