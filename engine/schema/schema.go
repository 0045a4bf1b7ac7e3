package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/compozy/flowlint/engine/core"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/kaptinlin/jsonschema"
)

// -----------------------------------------------------------------------------
// Schema
// -----------------------------------------------------------------------------

type Schema map[string]any
type Result = jsonschema.EvaluationResult

const compiledSchemaCacheSize = 256

// compiledSchemaCache maps a schema fingerprint to its compiled form.
var compiledSchemaCache = mustSchemaCache(compiledSchemaCacheSize)

func mustSchemaCache(size int) *lru.Cache[string, *jsonschema.Schema] {
	cache, err := lru.New[string, *jsonschema.Schema](size)
	if err != nil {
		panic(fmt.Sprintf("schema: cannot create compiled schema cache: %v", err))
	}
	return cache
}

func (s *Schema) String() string {
	bytes, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(bytes)
}

func (s *Schema) Compile(ctx context.Context) (*jsonschema.Schema, error) {
	if s == nil || len(*s) == 0 {
		return nil, nil
	}
	key := core.Fingerprint(map[string]any(*s))
	if compiled, ok := compiledSchemaCache.Get(key); ok {
		metricsFromContext(ctx).recordCompile(ctx, true)
		return compiled, nil
	}
	bytes, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiled, err := compiler.Compile(bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	compiledSchemaCache.Add(key, compiled)
	metricsFromContext(ctx).recordCompile(ctx, false)
	return compiled, nil
}

// Validate checks value against the schema and returns the sorted violation
// messages. A nil or empty schema accepts everything.
func (s *Schema) Validate(ctx context.Context, value any) ([]string, error) {
	return s.validate(ctx, "", value)
}

func (s *Schema) validate(ctx context.Context, nodeType string, value any) ([]string, error) {
	compiled, err := s.Compile(ctx)
	if err != nil {
		return nil, err
	}
	if compiled == nil {
		return nil, nil
	}
	start := time.Now()
	result := compiled.Validate(value)
	violations := make([]string, 0, len(result.Errors))
	if !result.Valid {
		for field, evalErr := range result.Errors {
			violations = append(violations, fmt.Sprintf("%s: %s", field, evalErr.Error()))
		}
		sort.Strings(violations)
	}
	metricsFromContext(ctx).recordValidation(ctx, nodeType, time.Since(start), len(violations))
	if len(violations) == 0 {
		return nil, nil
	}
	return violations, nil
}
