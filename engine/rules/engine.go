// Package rules runs user-defined and schema-driven lint rules against a
// workflow definition. Each rule is isolated: a failing or panicking rule
// becomes one INTERNAL_ERROR issue and the remaining rules still run.
package rules

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/pkg/logger"
)

// Engine checks a definition and returns its findings.
type Engine interface {
	Check(ctx context.Context, def *graph.Definition) ([]analysis.Issue, error)
}

// Rule is a single named check.
type Rule interface {
	Name() string
	Check(ctx context.Context, def *graph.Definition) ([]analysis.Issue, error)
}

// NoopEngine reports nothing.
type NoopEngine struct{}

func (NoopEngine) Check(context.Context, *graph.Definition) ([]analysis.Issue, error) {
	return nil, nil
}

type RuleEngine struct {
	rules []Rule
}

func NewEngine(rules ...Rule) *RuleEngine {
	return &RuleEngine{rules: rules}
}

// Rules returns the registered rules in evaluation order.
func (e *RuleEngine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Check runs every rule in registration order and concatenates the findings.
func (e *RuleEngine) Check(ctx context.Context, def *graph.Definition) ([]analysis.Issue, error) {
	if err := graph.Validate(def); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	var issues []analysis.Issue
	for _, rule := range e.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := runRule(ctx, rule, def)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Debug("Rule failed", "rule", rule.Name(), "error", err)
			issues = append(issues, analysis.InternalError("rule:"+rule.Name(), err))
			continue
		}
		issues = append(issues, found...)
	}
	return issues, nil
}

func runRule(ctx context.Context, rule Rule, def *graph.Definition) (issues []analysis.Issue, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Debug("Rule panicked", "rule", rule.Name(), "stack", string(debug.Stack()))
			issues = nil
			err = fmt.Errorf("rule panicked: %v", r)
		}
	}()
	return rule.Check(ctx, def)
}
