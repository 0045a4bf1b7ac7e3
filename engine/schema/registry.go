package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/compozy/flowlint/engine/graph"
)

var ErrDuplicateNodeType = errors.New("node type already registered")

// Registry resolves node types and port data types.
type Registry interface {
	OutputType(nodeType, port string) DataType
	InputType(nodeType, port string) DataType
	IsCompatible(out, in DataType) bool
	NodeType(name string) (*NodeType, bool)
}

// MemoryRegistry is a concurrency-safe in-memory Registry. Unknown node types
// and ports resolve to ANY.
type MemoryRegistry struct {
	mu    sync.RWMutex
	types map[string]*NodeType
}

// NewMemoryRegistry creates a registry holding the builtin graph node types plus the given ones.
func NewMemoryRegistry(types ...*NodeType) (*MemoryRegistry, error) {
	r := &MemoryRegistry{types: make(map[string]*NodeType)}
	for _, nt := range BuiltinNodeTypes() {
		r.types[nt.Name] = nt
	}
	for _, nt := range types {
		if err := r.Register(nt); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *MemoryRegistry) Register(nt *NodeType) error {
	if nt == nil {
		return fmt.Errorf("node type cannot be nil")
	}
	validator := NewCompositeValidator(NewStructValidator(nt), NewNodeTypeValidator(nt))
	if err := validator.Validate(context.Background()); err != nil {
		return fmt.Errorf("invalid node type %q: %w", nt.Name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[nt.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeType, nt.Name)
	}
	r.types[nt.Name] = nt
	return nil
}

func (r *MemoryRegistry) NodeType(name string) (*NodeType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nt, ok := r.types[name]
	return nt, ok
}

func (r *MemoryRegistry) OutputType(nodeType, port string) DataType {
	if nt, ok := r.NodeType(nodeType); ok {
		return nt.OutputType(port)
	}
	return TypeAny
}

func (r *MemoryRegistry) InputType(nodeType, port string) DataType {
	if nt, ok := r.NodeType(nodeType); ok {
		return nt.InputType(port)
	}
	return TypeAny
}

func (r *MemoryRegistry) IsCompatible(out, in DataType) bool {
	return Compatible(out, in)
}

// Names returns the registered node type names in sorted order.
func (r *MemoryRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuiltinNodeTypes returns the structural node types every graph may contain.
// Their ports accept and emit ANY.
func BuiltinNodeTypes() []*NodeType {
	return []*NodeType{
		{Name: graph.NodeTypeStart},
		{Name: graph.NodeTypeEnd},
		{Name: graph.NodeTypeParallel},
		{Name: graph.NodeTypeComposite},
	}
}
