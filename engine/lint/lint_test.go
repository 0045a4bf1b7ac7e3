package lint_test

import (
	"context"
	"errors"
	"testing"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/cost"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/engine/graph/graphtest"
	"github.com/compozy/flowlint/engine/history"
	"github.com/compozy/flowlint/engine/infra/monitoring"
	"github.com/compozy/flowlint/engine/lint"
	"github.com/compozy/flowlint/engine/rules"
	"github.com/compozy/flowlint/engine/schema"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingEngine struct{ err error }

func (f failingEngine) Check(context.Context, *graph.Definition) ([]analysis.Issue, error) {
	return nil, f.err
}

type panickingEngine struct{}

func (panickingEngine) Check(context.Context, *graph.Definition) ([]analysis.Issue, error) {
	panic("rule exploded")
}

type failingEstimator struct {
	cost.NoopEstimator
}

func (failingEstimator) SuggestOptimizations(context.Context, *graph.Definition) ([]analysis.Suggestion, error) {
	return nil, errors.New("pricing unavailable")
}

func (failingEstimator) OptimizeModelSelection(context.Context, *graph.Definition) (*graph.OptimizedGraph, error) {
	return nil, errors.New("pricing unavailable")
}

func (failingEstimator) EstimateCost(context.Context, *graph.Definition) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("pricing unavailable")
}

type failingStore struct{}

func (failingStore) GetStats(context.Context, string) (*history.ExecutionStats, bool, error) {
	return nil, false, errors.New("history offline")
}

func registry(t *testing.T) schema.Registry {
	t.Helper()
	r, err := schema.DefaultRegistry()
	require.NoError(t, err)
	return r
}

func withOrphan() *graph.Definition {
	return graphtest.NewBuilder("orphan").
		Node("START", graph.NodeTypeStart).
		Nodes("TRANSFORM", "A", "B", "C").
		Node("END", graph.NodeTypeEnd).
		Node("D", "TRANSFORM").
		Chain("START", "A", "B", "C", "END").
		Build()
}

func siblings() *graph.Definition {
	return graphtest.NewBuilder("siblings").
		Node("START", graph.NodeTypeStart).
		NodeWithConfig("X", "LLM", map[string]any{"model": "gpt-4o", "timeout": "30s"}).
		NodeWithConfig("Y", "LLM", map[string]any{"model": "gpt-4o-mini", "timeout": "30s"}).
		Node("END", graph.NodeTypeEnd).
		Chain("START", "X", "END").
		Chain("START", "Y", "END").
		Build()
}

func invalid() *graph.Definition {
	return graphtest.NewBuilder("bad").
		Node("A", "TRANSFORM").
		Node("A", "TRANSFORM").
		Build()
}

func byCategory(issues []analysis.Issue, category analysis.Category) []analysis.Issue {
	var out []analysis.Issue
	for _, issue := range issues {
		if issue.Category == category {
			out = append(out, issue)
		}
	}
	return out
}

func TestLinter_Lint(t *testing.T) {
	ctx := context.Background()
	t.Run("Should report the disconnected node as dead code", func(t *testing.T) {
		result, err := lint.New(registry(t)).Lint(ctx, withOrphan())
		require.NoError(t, err)
		dead := byCategory(result.Issues, analysis.CategoryDeadCode)
		require.Len(t, dead, 1)
		assert.Equal(t, "D", dead[0].Location)
		assert.Equal(t, "orphan", result.WorkflowID)
	})
	t.Run("Should return identical results across runs", func(t *testing.T) {
		linter := lint.New(registry(t))
		first, err := linter.Lint(ctx, withOrphan())
		require.NoError(t, err)
		for range 5 {
			again, err := linter.Lint(ctx, withOrphan())
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})
	t.Run("Should report exactly one type mismatch", func(t *testing.T) {
		def := graphtest.NewBuilder("types").
			Node("START", graph.NodeTypeStart).
			Node("L", "LLM").
			Node("Q", "DB_QUERY").
			Node("END", graph.NodeTypeEnd).
			Chain("START", "L", "Q", "END").
			Build()
		result, err := lint.New(registry(t)).Lint(ctx, def)
		require.NoError(t, err)
		mismatches := byCategory(result.Issues, analysis.CategoryTypeMismatch)
		require.Len(t, mismatches, 1)
		assert.Equal(t, analysis.SeverityError, mismatches[0].Severity)
		assert.Equal(t, "e2", mismatches[0].Location)
		assert.Equal(t, "STRING", mismatches[0].Metadata["source_type"])
		assert.Equal(t, "OBJECT", mismatches[0].Metadata["target_type"])
	})
	t.Run("Should report a literal api key as critical", func(t *testing.T) {
		def := graphtest.NewBuilder("secrets").
			Node("START", graph.NodeTypeStart).
			NodeWithConfig("H", "HTTP_REQUEST", map[string]any{
				"url":    "https://api.example.com",
				"apiKey": "plain-value-123",
			}).
			Chain("START", "H").
			Build()
		result, err := lint.New(registry(t)).Lint(ctx, def)
		require.NoError(t, err)
		critical := result.ByCategoryAndSeverity(analysis.CategorySecurity, analysis.SeverityCritical)
		require.Len(t, critical, 1)
		assert.Equal(t, "H", critical[0].Location)
		assert.Equal(t, lint.SecretRecommendation, critical[0].Recommendation)
		assert.Equal(t, "config.apiKey", critical[0].Metadata["path"])
		assert.NotContains(t, critical[0].Metadata["value"], "plain-value-123")
	})
	t.Run("Should report a numeric password as critical", func(t *testing.T) {
		def := graphtest.NewBuilder("secrets").
			Node("START", graph.NodeTypeStart).
			NodeWithConfig("Q", "DB_QUERY", map[string]any{
				"password":   123456,
				"max_tokens": 100,
			}).
			Chain("START", "Q").
			Build()
		result, err := lint.New(registry(t)).Lint(ctx, def)
		require.NoError(t, err)
		critical := result.ByCategoryAndSeverity(analysis.CategorySecurity, analysis.SeverityCritical)
		require.Len(t, critical, 1)
		assert.Equal(t, "Q", critical[0].Location)
		assert.Equal(t, "config.password", critical[0].Metadata["path"])
		assert.Equal(t, "****", critical[0].Metadata["value"])
	})
	t.Run("Should ignore secret references", func(t *testing.T) {
		def := graphtest.NewBuilder("secrets").
			Node("START", graph.NodeTypeStart).
			NodeWithConfig("H", "HTTP_REQUEST", map[string]any{
				"url":    "https://api.example.com",
				"apiKey": "{{ .env.API_KEY }}",
			}).
			Chain("START", "H").
			Build()
		result, err := lint.New(registry(t)).Lint(ctx, def)
		require.NoError(t, err)
		assert.Empty(t, byCategory(result.Issues, analysis.CategorySecurity))
	})
	t.Run("Should warn about scopes beyond the node type", func(t *testing.T) {
		def := graphtest.NewBuilder("scopes").
			Node("START", graph.NodeTypeStart).
			NodeWithConfig("Q", "DB_QUERY", map[string]any{"scopes": []any{"db:read", "db:write"}}).
			Chain("START", "Q").
			Build()
		result, err := lint.New(registry(t)).Lint(ctx, def)
		require.NoError(t, err)
		security := byCategory(result.Issues, analysis.CategorySecurity)
		require.Len(t, security, 1)
		assert.Equal(t, analysis.SeverityWarning, security[0].Severity)
		assert.Equal(t, []string{"db:write"}, security[0].Metadata["excess_scopes"])
	})
	t.Run("Should turn a failing rule engine into an internal error", func(t *testing.T) {
		linter := lint.New(registry(t), lint.WithRuleEngine(failingEngine{err: errors.New("boom")}))
		result, err := linter.Lint(ctx, withOrphan())
		require.NoError(t, err)
		internal := byCategory(result.Issues, analysis.CategoryInternalError)
		require.Len(t, internal, 1)
		assert.Equal(t, lint.StageRuleEngine, internal[0].Location)
		assert.Contains(t, internal[0].Message, "boom")
		assert.Len(t, byCategory(result.Issues, analysis.CategoryDeadCode), 1)
	})
	t.Run("Should recover from a panicking rule engine", func(t *testing.T) {
		linter := lint.New(registry(t), lint.WithRuleEngine(panickingEngine{}))
		result, err := linter.Lint(ctx, withOrphan())
		require.NoError(t, err)
		internal := byCategory(result.Issues, analysis.CategoryInternalError)
		require.Len(t, internal, 1)
		assert.Contains(t, internal[0].Message, "rule exploded")
	})
	t.Run("Should stop on cancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := lint.New(registry(t)).Lint(cctx, withOrphan())
		assert.ErrorIs(t, err, context.Canceled)
	})
	t.Run("Should reject an invalid definition", func(t *testing.T) {
		_, err := lint.New(registry(t)).Lint(ctx, invalid())
		assert.ErrorIs(t, err, graph.ErrInvalidDefinition)
	})
	t.Run("Should work without a registry", func(t *testing.T) {
		result, err := lint.New(nil).Lint(ctx, withOrphan())
		require.NoError(t, err)
		assert.Empty(t, byCategory(result.Issues, analysis.CategoryTypeMismatch))
		assert.Len(t, byCategory(result.Issues, analysis.CategoryDeadCode), 1)
	})
}

func TestLinter_Suggest(t *testing.T) {
	ctx := context.Background()
	t.Run("Should collect suggestions from every source", func(t *testing.T) {
		r := registry(t)
		linter := lint.New(r, lint.WithCostEstimator(cost.New(r)))
		set, err := linter.Suggest(ctx, siblings())
		require.NoError(t, err)
		assert.Equal(t, "siblings", set.WorkflowID)
		assert.Empty(t, set.Issues)
		var types []analysis.SuggestionType
		for _, s := range set.Suggestions {
			types = append(types, s.Type)
		}
		assert.Contains(t, types, analysis.SuggestionChangeModel)
		assert.Contains(t, types, analysis.SuggestionParallelize)
	})
	t.Run("Should report a failing estimator and keep other suggestions", func(t *testing.T) {
		linter := lint.New(registry(t), lint.WithCostEstimator(failingEstimator{}))
		set, err := linter.Suggest(ctx, siblings())
		require.NoError(t, err)
		require.Len(t, set.Issues, 1)
		assert.Equal(t, lint.StageCostEstimator, set.Issues[0].Location)
		assert.NotEmpty(t, set.Suggestions)
	})
	t.Run("Should return an empty list for a minimal graph", func(t *testing.T) {
		def := graphtest.NewBuilder("min").Node("START", graph.NodeTypeStart).Build()
		set, err := lint.New(registry(t)).Suggest(ctx, def)
		require.NoError(t, err)
		assert.NotNil(t, set.Suggestions)
		assert.Empty(t, set.Suggestions)
	})
}

func TestLinter_Optimize(t *testing.T) {
	ctx := context.Background()
	t.Run("Should remove dead code and merge the chain", func(t *testing.T) {
		def := withOrphan()
		result, err := lint.New(registry(t)).Optimize(ctx, def)
		require.NoError(t, err)
		require.Len(t, result.Applied, 2)
		assert.Equal(t, analysis.OptimizationDeadCodeElimination, result.Applied[0].Type)
		assert.Equal(t, analysis.OptimizationNodeMerge, result.Applied[1].Type)
		_, hasOrphan := result.Optimized.Node("D")
		assert.False(t, hasOrphan)
		assert.Len(t, result.Optimized.Nodes, 3)
		assert.Equal(t, 3, result.Metrics.NodesReduced)
		assert.Equal(t, 2, result.Metrics.EdgesReduced)
		assert.Len(t, result.Original.Nodes, 6)
		assert.Len(t, def.Nodes, 6)
		require.NoError(t, graph.Validate(result.Optimized))
	})
	t.Run("Should parallelize siblings and downgrade models", func(t *testing.T) {
		r := registry(t)
		linter := lint.New(r, lint.WithCostEstimator(cost.New(r, cost.WithAllowDowngrade(true))))
		result, err := linter.Optimize(ctx, siblings())
		require.NoError(t, err)
		var applied []analysis.OptimizationType
		for _, o := range result.Applied {
			applied = append(applied, o.Type)
		}
		assert.Equal(t, []analysis.OptimizationType{
			analysis.OptimizationParallelization,
			analysis.OptimizationModelSelection,
		}, applied)
		assert.LessOrEqual(t, len(result.Optimized.Nodes), len(result.Original.Nodes))
		assert.Positive(t, result.Metrics.CostReductionPercent)
		assert.Empty(t, result.Issues)
	})
	t.Run("Should be idempotent", func(t *testing.T) {
		linter := lint.New(registry(t))
		first, err := linter.Optimize(ctx, withOrphan())
		require.NoError(t, err)
		second, err := linter.Optimize(ctx, first.Optimized)
		require.NoError(t, err)
		assert.Empty(t, second.Applied)
		assert.Equal(t, first.Optimized, second.Optimized)
	})
	t.Run("Should skip a failing cost pass and report it", func(t *testing.T) {
		linter := lint.New(registry(t), lint.WithCostEstimator(failingEstimator{}))
		result, err := linter.Optimize(ctx, withOrphan())
		require.NoError(t, err)
		require.NotEmpty(t, result.Issues)
		for _, issue := range result.Issues {
			assert.Equal(t, analysis.CategoryInternalError, issue.Category)
			assert.Equal(t, lint.StageCostEstimator, issue.Location)
		}
		assert.Zero(t, result.Metrics.CostReductionPercent)
		assert.Len(t, result.Applied, 2)
	})
	t.Run("Should report an unavailable history store", func(t *testing.T) {
		linter := lint.New(registry(t), lint.WithHistoryStore(failingStore{}))
		result, err := linter.Optimize(ctx, withOrphan())
		require.NoError(t, err)
		require.Len(t, result.Issues, 1)
		assert.Equal(t, lint.StageHistory, result.Issues[0].Location)
	})
	t.Run("Should reject an invalid definition", func(t *testing.T) {
		_, err := lint.New(registry(t)).Optimize(ctx, invalid())
		assert.ErrorIs(t, err, graph.ErrInvalidDefinition)
	})
	t.Run("Should stop on cancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := lint.New(registry(t)).Optimize(cctx, withOrphan())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLinter_Metrics(t *testing.T) {
	t.Run("Should record runs and issues by severity", func(t *testing.T) {
		ctx := context.Background()
		service, err := monitoring.NewMonitoringService(ctx, &monitoring.Config{Enabled: true, Scope: "test"})
		require.NoError(t, err)
		defer func() { _ = service.Shutdown(ctx) }()
		linter := lint.New(registry(t), lint.WithMeter(service.Meter()))
		_, err = linter.Lint(ctx, withOrphan())
		require.NoError(t, err)
		_, err = linter.Optimize(ctx, withOrphan())
		require.NoError(t, err)

		samples, err := service.Collect(ctx)
		require.NoError(t, err)
		values := make(map[string]float64)
		for _, s := range samples {
			values[s.Name+"|"+s.Attributes] = s.Value
		}
		assert.Equal(t, float64(1), values["flowlint_lint_runs_total|operation=lint"])
		assert.Equal(t, float64(1), values["flowlint_lint_runs_total|operation=optimize"])
		assert.Equal(t, float64(1), values["flowlint_lint_issues_total|severity=WARNING"])
		assert.Equal(t, float64(1), values["flowlint_optimize_passes_total|pass=DEAD_CODE_ELIMINATION"])
		assert.Equal(t, float64(1), values["flowlint_optimize_passes_total|pass=NODE_MERGE"])
		assert.Equal(t, float64(1), values["flowlint_lint_duration_seconds|operation=lint"])
	})
	t.Run("Should record config validations on the linter meter", func(t *testing.T) {
		ctx := context.Background()
		service, err := monitoring.NewMonitoringService(ctx, &monitoring.Config{Enabled: true, Scope: "test"})
		require.NoError(t, err)
		defer func() { _ = service.Shutdown(ctx) }()
		r := registry(t)
		linter := lint.New(r,
			lint.WithMeter(service.Meter()),
			lint.WithRuleEngine(rules.NewEngine(rules.NewConfigSchemaRule(r))),
		)
		def := graphtest.NewBuilder("schema").
			Node("START", graph.NodeTypeStart).
			NodeWithConfig("H", "HTTP_REQUEST", map[string]any{"method": "GET"}).
			Chain("START", "H").
			Build()
		result, err := linter.Lint(ctx, def)
		require.NoError(t, err)
		require.Len(t, byCategory(result.Issues, analysis.CategoryConfiguration), 1)

		samples, err := service.Collect(ctx)
		require.NoError(t, err)
		values := make(map[string]float64)
		for _, s := range samples {
			values[s.Name+"|"+s.Attributes] = s.Value
		}
		assert.Equal(t, float64(1), values["flowlint_schema_validations_total|node_type=HTTP_REQUEST,outcome=invalid"])
	})
}
