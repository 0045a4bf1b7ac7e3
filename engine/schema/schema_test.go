package schema_test

import (
	"context"
	"testing"
	"time"

	"github.com/compozy/flowlint/engine/infra/monitoring"
	"github.com/compozy/flowlint/engine/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistry(t *testing.T) {
	registry, err := schema.DefaultRegistry()
	require.NoError(t, err)

	t.Run("Should resolve declared port types", func(t *testing.T) {
		assert.Equal(t, schema.TypeString, registry.OutputType("LLM", "out"))
		assert.Equal(t, schema.TypeObject, registry.InputType("TRANSFORM", "in"))
	})
	t.Run("Should resolve unknown types and ports to ANY", func(t *testing.T) {
		assert.Equal(t, schema.TypeAny, registry.OutputType("UNKNOWN", "out"))
		assert.Equal(t, schema.TypeAny, registry.InputType("LLM", "missing"))
		assert.Equal(t, schema.TypeAny, registry.OutputType("START", "out"))
	})
	t.Run("Should treat ANY as compatible with everything", func(t *testing.T) {
		assert.True(t, registry.IsCompatible(schema.TypeAny, schema.TypeNumber))
		assert.True(t, registry.IsCompatible(schema.TypeObject, schema.TypeAny))
		assert.True(t, registry.IsCompatible(schema.TypeString, schema.TypeString))
		assert.False(t, registry.IsCompatible(schema.TypeString, schema.TypeObject))
	})
	t.Run("Should include builtin node types", func(t *testing.T) {
		for _, name := range []string{"START", "END", "PARALLEL", "COMPOSITE"} {
			_, ok := registry.NodeType(name)
			assert.True(t, ok, name)
		}
		assert.Contains(t, registry.Names(), "LLM")
	})
	t.Run("Should reject duplicate registrations", func(t *testing.T) {
		err := registry.Register(&schema.NodeType{Name: "LLM"})
		assert.ErrorIs(t, err, schema.ErrDuplicateNodeType)
	})
	t.Run("Should reject node types without a name", func(t *testing.T) {
		err := registry.Register(&schema.NodeType{})
		assert.Error(t, err)
	})
	t.Run("Should reject unknown port data types", func(t *testing.T) {
		err := registry.Register(&schema.NodeType{
			Name:   "BROKEN",
			Inputs: map[string]schema.DataType{"in": "DATE"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown data type")
	})
}

func TestNodeType(t *testing.T) {
	t.Run("Should merge only stateless types of the same family", func(t *testing.T) {
		transform := &schema.NodeType{Name: "A", Stateless: true, ExecutorFamily: "transform"}
		filter := &schema.NodeType{Name: "B", Stateless: true, ExecutorFamily: "transform"}
		template := &schema.NodeType{Name: "C", Stateless: true, ExecutorFamily: "template"}
		stateful := &schema.NodeType{Name: "D", ExecutorFamily: "transform"}
		noFamily := &schema.NodeType{Name: "E", Stateless: true}
		assert.True(t, transform.Mergeable(filter))
		assert.False(t, transform.Mergeable(template))
		assert.False(t, transform.Mergeable(stateful))
		assert.False(t, noFamily.Mergeable(noFamily))
		assert.False(t, transform.Mergeable(nil))
	})
	t.Run("Should report scopes beyond the required ones", func(t *testing.T) {
		nt := &schema.NodeType{Name: "HTTP", RequiredScopes: []string{"network"}}
		assert.Equal(t, []string{"fs:write", "admin"}, nt.ExcessScopes([]string{"network", "fs:write", "admin", "fs:write"}))
		assert.Empty(t, nt.ExcessScopes([]string{"network"}))
	})
}

func TestSchema_Validate(t *testing.T) {
	ctx := context.Background()
	s := &schema.Schema{
		"type":     "object",
		"required": []any{"url"},
		"properties": map[string]any{
			"url": map[string]any{"type": "string"},
		},
	}
	t.Run("Should accept a valid value", func(t *testing.T) {
		violations, err := s.Validate(ctx, map[string]any{"url": "https://example.com"})
		require.NoError(t, err)
		assert.Empty(t, violations)
	})
	t.Run("Should report violations for an invalid value", func(t *testing.T) {
		violations, err := s.Validate(ctx, map[string]any{"method": "GET"})
		require.NoError(t, err)
		assert.NotEmpty(t, violations)
	})
	t.Run("Should accept anything when schema is nil", func(t *testing.T) {
		var empty *schema.Schema
		violations, err := empty.Validate(ctx, map[string]any{"x": 1})
		require.NoError(t, err)
		assert.Empty(t, violations)
	})
	t.Run("Should reuse the compiled schema", func(t *testing.T) {
		first, err := s.Compile(ctx)
		require.NoError(t, err)
		second, err := s.Compile(ctx)
		require.NoError(t, err)
		assert.Same(t, first, second)
	})
}

func TestNodeType_ValidateConfig(t *testing.T) {
	ctx := context.Background()
	registry, err := schema.DefaultRegistry()
	require.NoError(t, err)
	httpType, ok := registry.NodeType("HTTP_REQUEST")
	require.True(t, ok)

	t.Run("Should validate the config merged over defaults", func(t *testing.T) {
		violations, err := httpType.ValidateConfig(ctx, map[string]any{"url": "https://example.com"})
		require.NoError(t, err)
		assert.Empty(t, violations)
	})
	t.Run("Should accept anything without a config schema", func(t *testing.T) {
		violations, err := (&schema.NodeType{Name: "FREE"}).ValidateConfig(ctx, map[string]any{"x": 1})
		require.NoError(t, err)
		assert.Empty(t, violations)
	})
	t.Run("Should record validations by node type", func(t *testing.T) {
		service, err := monitoring.NewMonitoringService(ctx, &monitoring.Config{Enabled: true, Scope: "schema"})
		require.NoError(t, err)
		defer func() { _ = service.Shutdown(ctx) }()
		mctx := schema.ContextWithMetrics(ctx, schema.NewMetrics(service.Meter()))

		violations, err := httpType.ValidateConfig(mctx, map[string]any{"method": "GET"})
		require.NoError(t, err)
		require.NotEmpty(t, violations)
		_, err = httpType.ValidateConfig(mctx, map[string]any{"url": "https://example.com"})
		require.NoError(t, err)

		samples, err := service.Collect(ctx)
		require.NoError(t, err)
		values := make(map[string]float64)
		for _, s := range samples {
			values[s.Name+"|"+s.Attributes] = s.Value
		}
		assert.Equal(t, float64(1), values["flowlint_schema_validations_total|node_type=HTTP_REQUEST,outcome=invalid"])
		assert.Equal(t, float64(1), values["flowlint_schema_validations_total|node_type=HTTP_REQUEST,outcome=valid"])
		assert.Equal(t, float64(len(violations)), values["flowlint_schema_violations_total|node_type=HTTP_REQUEST"])
		assert.Equal(t, float64(2), values["flowlint_schema_validate_duration_seconds|node_type=HTTP_REQUEST"])
	})
}

func TestParseNodeTypes(t *testing.T) {
	t.Run("Should decode a YAML catalog", func(t *testing.T) {
		types, err := schema.ParseNodeTypes([]byte(`
node_types:
  - name: SUMMARIZE
    inputs: {in: STRING}
    outputs: {out: STRING}
    expensive: true
    required_scopes: [llm:invoke]
    default_latency: 2s
    defaults:
      model: gpt-4o-mini
`))
		require.NoError(t, err)
		require.Len(t, types, 1)
		assert.Equal(t, "SUMMARIZE", types[0].Name)
		assert.Equal(t, schema.TypeString, types[0].OutputType("out"))
		assert.Equal(t, 2*time.Second, types[0].DefaultLatency)
		assert.Equal(t, "gpt-4o-mini", types[0].Defaults["model"])
		registry, err := schema.NewMemoryRegistry(types...)
		require.NoError(t, err)
		nt, ok := registry.NodeType("SUMMARIZE")
		require.True(t, ok)
		assert.True(t, nt.Expensive)
	})
	t.Run("Should fail on malformed YAML", func(t *testing.T) {
		_, err := schema.ParseNodeTypes([]byte("node_types: ["))
		assert.Error(t, err)
	})
}

func TestNodeType_EffectiveConfig(t *testing.T) {
	t.Run("Should merge node config over defaults without aliasing", func(t *testing.T) {
		nt := &schema.NodeType{Name: "LLM", Defaults: map[string]any{"model": "gpt-4o", "temperature": 0.7}}
		cfg, err := nt.EffectiveConfig(map[string]any{"model": "gpt-4o-mini"})
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o-mini", cfg["model"])
		assert.Equal(t, 0.7, cfg["temperature"])
		cfg["temperature"] = 1.0
		assert.Equal(t, 0.7, nt.Defaults["temperature"])
	})
	t.Run("Should let explicit false values override defaults", func(t *testing.T) {
		nt := &schema.NodeType{Name: "X", Defaults: map[string]any{"cache": true}}
		cfg, err := nt.EffectiveConfig(map[string]any{"cache": false})
		require.NoError(t, err)
		assert.Equal(t, false, cfg["cache"])
	})
	t.Run("Should copy the config when the type is unknown", func(t *testing.T) {
		var nt *schema.NodeType
		src := map[string]any{"a": 1}
		cfg, err := nt.EffectiveConfig(src)
		require.NoError(t, err)
		cfg["a"] = 2
		assert.Equal(t, 1, src["a"])
	})
}
