package rules

import (
	"context"
	"fmt"
	"slices"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/pkg/config"
	"github.com/google/cel-go/cel"
)

const celInterruptCheckFrequency = 100

// CELRule evaluates a boolean CEL expression once per node. A node for which
// the expression yields true produces one finding.
//
// The expression sees two variables:
//
//	node:     {id, type, config, in_degree, out_degree}
//	workflow: {id, name, node_count, edge_count}
type CELRule struct {
	name      string
	severity  analysis.Severity
	category  analysis.Category
	message   string
	nodeTypes []string
	program   cel.Program
}

func newCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("node", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("workflow", cel.MapType(cel.StringType, cel.DynType)),
	)
}

// NewCELRule compiles the rule expression. Compilation errors are returned
// here so that misconfigured rules fail at load time.
func NewCELRule(cfg config.RuleConfig) (*CELRule, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("rule name is required")
	}
	env, err := newCELEnv()
	if err != nil {
		return nil, fmt.Errorf("rule %q: creating CEL environment: %w", cfg.Name, err)
	}
	ast, iss := env.Compile(cfg.Expression)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("rule %q: compiling expression: %w", cfg.Name, iss.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("rule %q: expression must evaluate to bool, got %v", cfg.Name, out)
	}
	prg, err := env.Program(ast, cel.InterruptCheckFrequency(celInterruptCheckFrequency))
	if err != nil {
		return nil, fmt.Errorf("rule %q: building program: %w", cfg.Name, err)
	}
	severity := analysis.SeverityWarning
	if cfg.Severity != "" {
		severity, err = analysis.ParseSeverity(cfg.Severity)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", cfg.Name, err)
		}
	}
	category := analysis.CategoryRule
	if cfg.Category != "" {
		category = analysis.Category(cfg.Category)
	}
	message := cfg.Message
	if message == "" {
		message = fmt.Sprintf("rule %s matched", cfg.Name)
	}
	return &CELRule{
		name:      cfg.Name,
		severity:  severity,
		category:  category,
		message:   message,
		nodeTypes: cfg.NodeTypes,
		program:   prg,
	}, nil
}

func (r *CELRule) Name() string { return r.name }

func (r *CELRule) Check(ctx context.Context, def *graph.Definition) ([]analysis.Issue, error) {
	idx := graph.NewIndex(def)
	workflow := map[string]any{
		"id":         def.ID,
		"name":       def.Name,
		"node_count": len(def.Nodes),
		"edge_count": len(def.Edges),
	}
	var issues []analysis.Issue
	for i := range def.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node := def.Nodes[i]
		if len(r.nodeTypes) > 0 && !slices.Contains(r.nodeTypes, node.Type) {
			continue
		}
		cfg := node.Config
		if cfg == nil {
			cfg = map[string]any{}
		}
		out, _, err := r.program.ContextEval(ctx, map[string]any{
			"node": map[string]any{
				"id":         node.ID,
				"type":       node.Type,
				"config":     cfg,
				"in_degree":  len(idx.InEdges(node.ID)),
				"out_degree": len(idx.OutEdges(node.ID)),
			},
			"workflow": workflow,
		})
		if err != nil {
			return nil, fmt.Errorf("evaluating on node %q: %w", node.ID, err)
		}
		matched, ok := out.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("evaluating on node %q: expression returned %v, not bool", node.ID, out.Type())
		}
		if !matched {
			continue
		}
		issues = append(issues, analysis.Issue{
			Severity: r.severity,
			Category: r.category,
			Message:  fmt.Sprintf("%s (node %q)", r.message, node.ID),
			Location: node.ID,
			Metadata: map[string]any{"rule": r.name, "node_type": node.Type},
		})
	}
	return issues, nil
}
