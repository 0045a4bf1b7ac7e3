package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/engine/graph/graphtest"
	"github.com/compozy/flowlint/engine/schema"
	"github.com/compozy/flowlint/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcRule struct {
	name string
	fn   func(ctx context.Context, def *graph.Definition) ([]analysis.Issue, error)
}

func (r funcRule) Name() string { return r.name }

func (r funcRule) Check(ctx context.Context, def *graph.Definition) ([]analysis.Issue, error) {
	return r.fn(ctx, def)
}

func sampleDefinition() *graph.Definition {
	return graphtest.NewBuilder("wf").
		Node("start", graph.NodeTypeStart).
		NodeWithConfig("llm", "LLM", map[string]any{"model": "gpt-4o", "debug": true}).
		NodeWithConfig("http", "HTTP_REQUEST", map[string]any{"method": "GET"}).
		Node("end", graph.NodeTypeEnd).
		Chain("start", "llm", "http", "end").
		Build()
}

func TestRuleEngine(t *testing.T) {
	ctx := context.Background()
	finding := analysis.Issue{Severity: analysis.SeverityInfo, Category: analysis.CategoryRule, Location: "llm"}
	t.Run("Should concatenate findings in registration order", func(t *testing.T) {
		e := NewEngine(
			funcRule{"first", func(context.Context, *graph.Definition) ([]analysis.Issue, error) {
				return []analysis.Issue{finding}, nil
			}},
			funcRule{"second", func(context.Context, *graph.Definition) ([]analysis.Issue, error) {
				return []analysis.Issue{{Severity: analysis.SeverityWarning, Location: "http"}}, nil
			}},
		)
		issues, err := e.Check(ctx, sampleDefinition())
		require.NoError(t, err)
		require.Len(t, issues, 2)
		assert.Equal(t, "llm", issues[0].Location)
		assert.Equal(t, "http", issues[1].Location)
	})
	t.Run("Should isolate failing and panicking rules", func(t *testing.T) {
		e := NewEngine(
			funcRule{"broken", func(context.Context, *graph.Definition) ([]analysis.Issue, error) {
				return nil, errors.New("boom")
			}},
			funcRule{"panics", func(context.Context, *graph.Definition) ([]analysis.Issue, error) {
				panic("unexpected")
			}},
			funcRule{"healthy", func(context.Context, *graph.Definition) ([]analysis.Issue, error) {
				return []analysis.Issue{finding}, nil
			}},
		)
		issues, err := e.Check(ctx, sampleDefinition())
		require.NoError(t, err)
		require.Len(t, issues, 3)
		assert.Equal(t, analysis.CategoryInternalError, issues[0].Category)
		assert.Equal(t, "rule:broken", issues[0].Location)
		assert.Contains(t, issues[0].Message, "boom")
		assert.Equal(t, analysis.CategoryInternalError, issues[1].Category)
		assert.Contains(t, issues[1].Message, "unexpected")
		assert.Equal(t, finding, issues[2])
	})
	t.Run("Should abort on cancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		e := NewEngine(funcRule{"cancels", func(context.Context, *graph.Definition) ([]analysis.Issue, error) {
			cancel()
			return nil, context.Canceled
		}})
		_, err := e.Check(cctx, sampleDefinition())
		assert.ErrorIs(t, err, context.Canceled)
	})
	t.Run("Should reject invalid definitions", func(t *testing.T) {
		def := &graph.Definition{Nodes: []graph.Node{{ID: "a"}, {ID: "a"}}}
		_, err := NewEngine().Check(ctx, def)
		assert.ErrorIs(t, err, graph.ErrInvalidDefinition)
	})
}

func TestCELRule(t *testing.T) {
	ctx := context.Background()
	t.Run("Should flag nodes matching the expression", func(t *testing.T) {
		rule, err := NewCELRule(config.RuleConfig{
			Name:       "no-debug",
			Expression: "has(node.config.debug) && node.config.debug == true",
			Severity:   "ERROR",
			Message:    "debug mode enabled",
		})
		require.NoError(t, err)
		issues, err := rule.Check(ctx, sampleDefinition())
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, analysis.SeverityError, issues[0].Severity)
		assert.Equal(t, analysis.CategoryRule, issues[0].Category)
		assert.Equal(t, "llm", issues[0].Location)
		assert.Contains(t, issues[0].Message, "debug mode enabled")
		assert.Equal(t, "no-debug", issues[0].Metadata["rule"])
	})
	t.Run("Should restrict evaluation to listed node types", func(t *testing.T) {
		rule, err := NewCELRule(config.RuleConfig{
			Name:       "single-successor",
			Expression: "node.out_degree == 1",
			NodeTypes:  []string{"HTTP_REQUEST"},
			Category:   string(analysis.CategoryPerformance),
		})
		require.NoError(t, err)
		issues, err := rule.Check(ctx, sampleDefinition())
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, "http", issues[0].Location)
		assert.Equal(t, analysis.SeverityWarning, issues[0].Severity)
		assert.Equal(t, analysis.CategoryPerformance, issues[0].Category)
	})
	t.Run("Should expose workflow attributes", func(t *testing.T) {
		rule, err := NewCELRule(config.RuleConfig{
			Name:       "big",
			Expression: "workflow.node_count > 3 && node.type == 'START'",
		})
		require.NoError(t, err)
		issues, err := rule.Check(ctx, sampleDefinition())
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, "start", issues[0].Location)
	})
	t.Run("Should fail to compile invalid expressions", func(t *testing.T) {
		_, err := NewCELRule(config.RuleConfig{Name: "bad", Expression: "node.type =="})
		assert.ErrorContains(t, err, "compiling expression")
	})
	t.Run("Should reject non-boolean expressions", func(t *testing.T) {
		_, err := NewCELRule(config.RuleConfig{Name: "num", Expression: "1 + 2"})
		assert.ErrorContains(t, err, "must evaluate to bool")
	})
	t.Run("Should surface evaluation errors through the engine", func(t *testing.T) {
		rule, err := NewCELRule(config.RuleConfig{Name: "missing-key", Expression: "node.config.debug == true"})
		require.NoError(t, err)
		issues, err := NewEngine(rule).Check(ctx, sampleDefinition())
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, analysis.CategoryInternalError, issues[0].Category)
		assert.Equal(t, "rule:missing-key", issues[0].Location)
	})
}

func TestConfigSchemaRule(t *testing.T) {
	ctx := context.Background()
	registry, err := schema.DefaultRegistry()
	require.NoError(t, err)
	t.Run("Should report configs violating the node type schema", func(t *testing.T) {
		issues, err := NewConfigSchemaRule(registry).Check(ctx, sampleDefinition())
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, "http", issues[0].Location)
		assert.Equal(t, analysis.SeverityError, issues[0].Severity)
		assert.Equal(t, analysis.CategoryConfiguration, issues[0].Category)
		assert.NotEmpty(t, issues[0].Metadata["violations"])
	})
	t.Run("Should accept valid configs merged with defaults", func(t *testing.T) {
		def := graphtest.NewBuilder("wf").
			NodeWithConfig("http", "HTTP_REQUEST", map[string]any{"url": "https://example.com"}).
			NodeWithConfig("llm", "LLM", map[string]any{"temperature": 1.2}).
			Build()
		issues, err := NewConfigSchemaRule(registry).Check(ctx, def)
		require.NoError(t, err)
		assert.Empty(t, issues)
	})
	t.Run("Should skip without a registry", func(t *testing.T) {
		issues, err := NewConfigSchemaRule(nil).Check(ctx, sampleDefinition())
		require.NoError(t, err)
		assert.Empty(t, issues)
	})
}

func TestFromConfig(t *testing.T) {
	registry, err := schema.DefaultRegistry()
	require.NoError(t, err)
	t.Run("Should put the schema rule first", func(t *testing.T) {
		e, err := FromConfig(registry, []config.RuleConfig{{Name: "r1", Expression: "false"}})
		require.NoError(t, err)
		rules := e.Rules()
		require.Len(t, rules, 2)
		assert.Equal(t, ConfigSchemaRuleName, rules[0].Name())
		assert.Equal(t, "r1", rules[1].Name())
	})
	t.Run("Should report every broken rule", func(t *testing.T) {
		_, err := FromConfig(registry, []config.RuleConfig{
			{Name: "a", Expression: "(("},
			{Name: "b", Expression: "1"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `rule "a"`)
		assert.Contains(t, err.Error(), `rule "b"`)
	})
}
