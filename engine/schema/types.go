package schema

import (
	"slices"
	"time"
)

// DataType names the kind of value flowing through a port.
type DataType string

const (
	TypeAny     DataType = "ANY"
	TypeString  DataType = "STRING"
	TypeNumber  DataType = "NUMBER"
	TypeBoolean DataType = "BOOLEAN"
	TypeObject  DataType = "OBJECT"
	TypeArray   DataType = "ARRAY"
	TypeBinary  DataType = "BINARY"
)

// Compatible reports whether a value of type out may feed an input of type in.
// ANY on either side matches everything.
func Compatible(out, in DataType) bool {
	if out == "" || in == "" || out == TypeAny || in == TypeAny {
		return true
	}
	return out == in
}

// NodeType describes a kind of node: its ports, execution traits and defaults.
type NodeType struct {
	Name    string              `json:"name"              yaml:"name"              validate:"required"`
	Inputs  map[string]DataType `json:"inputs,omitempty"  yaml:"inputs,omitempty"`
	Outputs map[string]DataType `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	// Stateless node types carry no state between invocations and may be fused
	// with neighbours sharing the same ExecutorFamily.
	Stateless      bool           `json:"stateless,omitempty"       yaml:"stateless,omitempty"`
	ExecutorFamily string         `json:"executor_family,omitempty" yaml:"executor_family,omitempty"`
	Expensive      bool           `json:"expensive,omitempty"       yaml:"expensive,omitempty"`
	RequiredScopes []string       `json:"required_scopes,omitempty" yaml:"required_scopes,omitempty"`
	Defaults       map[string]any `json:"defaults,omitempty"        yaml:"defaults,omitempty"`
	ConfigSchema   *Schema        `json:"config_schema,omitempty"   yaml:"config_schema,omitempty"`
	// DefaultLatency is used for latency estimates when no history exists.
	DefaultLatency time.Duration `json:"default_latency,omitempty" yaml:"default_latency,omitempty"`
}

func (t *NodeType) OutputType(port string) DataType {
	if dt, ok := t.Outputs[port]; ok && dt != "" {
		return dt
	}
	return TypeAny
}

func (t *NodeType) InputType(port string) DataType {
	if dt, ok := t.Inputs[port]; ok && dt != "" {
		return dt
	}
	return TypeAny
}

// Mergeable reports whether two node types may be fused into one composite step chain.
func (t *NodeType) Mergeable(other *NodeType) bool {
	if t == nil || other == nil {
		return false
	}
	return t.Stateless && other.Stateless && t.ExecutorFamily != "" && t.ExecutorFamily == other.ExecutorFamily
}

// ExcessScopes returns the declared scopes not required by the node type, in declaration order.
func (t *NodeType) ExcessScopes(declared []string) []string {
	var excess []string
	for _, scope := range declared {
		if !slices.Contains(t.RequiredScopes, scope) && !slices.Contains(excess, scope) {
			excess = append(excess, scope)
		}
	}
	return excess
}
