package schema

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultNodeTypes returns the standard node catalog shipped with flowlint.
func DefaultNodeTypes() []*NodeType {
	return []*NodeType{
		{
			Name:           "LLM",
			Inputs:         map[string]DataType{"in": TypeString},
			Outputs:        map[string]DataType{"out": TypeString},
			ExecutorFamily: "llm",
			Expensive:      true,
			RequiredScopes: []string{"llm:invoke"},
			Defaults:       map[string]any{"model": "gpt-4o", "temperature": 0.7},
			DefaultLatency: 3 * time.Second,
			ConfigSchema: &Schema{
				"type": "object",
				"properties": map[string]any{
					"model":       map[string]any{"type": "string"},
					"temperature": map[string]any{"type": "number", "minimum": 0, "maximum": 2},
					"max_tokens":  map[string]any{"type": "integer", "minimum": 1},
				},
			},
		},
		{
			Name:           "EMBEDDING",
			Inputs:         map[string]DataType{"in": TypeString},
			Outputs:        map[string]DataType{"out": TypeArray},
			ExecutorFamily: "llm",
			Expensive:      true,
			RequiredScopes: []string{"llm:invoke"},
			Defaults:       map[string]any{"model": "text-embedding-3-small"},
			DefaultLatency: 400 * time.Millisecond,
		},
		{
			Name:           "HTTP_REQUEST",
			Inputs:         map[string]DataType{"in": TypeObject},
			Outputs:        map[string]DataType{"out": TypeObject},
			Expensive:      true,
			RequiredScopes: []string{"network"},
			Defaults:       map[string]any{"method": "GET"},
			DefaultLatency: 500 * time.Millisecond,
			ConfigSchema: &Schema{
				"type":     "object",
				"required": []any{"url"},
				"properties": map[string]any{
					"url":    map[string]any{"type": "string"},
					"method": map[string]any{"enum": []any{"GET", "POST", "PUT", "PATCH", "DELETE"}},
				},
			},
		},
		{
			Name:           "DB_QUERY",
			Inputs:         map[string]DataType{"in": TypeObject},
			Outputs:        map[string]DataType{"out": TypeArray},
			Expensive:      true,
			RequiredScopes: []string{"db:read"},
			DefaultLatency: 200 * time.Millisecond,
		},
		{
			Name:           "CODE",
			RequiredScopes: []string{"exec"},
			DefaultLatency: 50 * time.Millisecond,
		},
		{
			Name:           "TRANSFORM",
			Inputs:         map[string]DataType{"in": TypeObject},
			Outputs:        map[string]DataType{"out": TypeObject},
			Stateless:      true,
			ExecutorFamily: "transform",
			DefaultLatency: 5 * time.Millisecond,
		},
		{
			Name:           "FILTER",
			Inputs:         map[string]DataType{"in": TypeObject},
			Outputs:        map[string]DataType{"out": TypeObject},
			Stateless:      true,
			ExecutorFamily: "transform",
			DefaultLatency: 2 * time.Millisecond,
		},
		{
			Name:           "JSON_PARSE",
			Inputs:         map[string]DataType{"in": TypeString},
			Outputs:        map[string]DataType{"out": TypeObject},
			Stateless:      true,
			ExecutorFamily: "transform",
			DefaultLatency: 2 * time.Millisecond,
		},
		{
			Name:           "TEMPLATE",
			Inputs:         map[string]DataType{"in": TypeObject},
			Outputs:        map[string]DataType{"out": TypeString},
			Stateless:      true,
			ExecutorFamily: "template",
			DefaultLatency: 1 * time.Millisecond,
		},
	}
}

// DefaultRegistry returns a registry holding the builtin and default node types.
func DefaultRegistry() (*MemoryRegistry, error) {
	return NewMemoryRegistry(DefaultNodeTypes()...)
}

type catalogFile struct {
	NodeTypes []*NodeType `yaml:"node_types"`
}

// ParseNodeTypes decodes a YAML catalog of the form `node_types: [...]`.
func ParseNodeTypes(data []byte) ([]*NodeType, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse node type catalog: %w", err)
	}
	return file.NodeTypes, nil
}

// LoadRegistry builds a registry from the default catalog extended by the node
// types declared in path. An empty path yields the default registry.
func LoadRegistry(path string) (*MemoryRegistry, error) {
	if path == "" {
		return DefaultRegistry()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read node type catalog: %w", err)
	}
	types, err := ParseNodeTypes(data)
	if err != nil {
		return nil, err
	}
	return NewMemoryRegistry(append(DefaultNodeTypes(), types...)...)
}
