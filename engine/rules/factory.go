package rules

import (
	"errors"

	"github.com/compozy/flowlint/engine/schema"
	"github.com/compozy/flowlint/pkg/config"
)

// FromConfig builds the default engine: the config-schema rule followed by
// one CEL rule per configured entry. All compile errors are reported together.
func FromConfig(registry schema.Registry, cfgs []config.RuleConfig) (*RuleEngine, error) {
	rules := []Rule{NewConfigSchemaRule(registry)}
	var errs []error
	for _, cfg := range cfgs {
		rule, err := NewCELRule(cfg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rules = append(rules, rule)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return NewEngine(rules...), nil
}
