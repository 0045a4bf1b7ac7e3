package core

import (
	"fmt"

	"github.com/mohae/deepcopy"
)

// DeepCopy returns a deep copy of v.
func DeepCopy[T any](v T) (T, error) {
	var zero T
	copied, ok := deepcopy.Copy(v).(T)
	if !ok {
		return zero, fmt.Errorf("failed to cast copied value to type %T", zero)
	}
	return copied, nil
}

// CloneConfig deep-copies a node configuration map. A nil map stays nil.
func CloneConfig(m map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	copied, err := DeepCopy(m)
	if err != nil {
		return nil, fmt.Errorf("failed to copy config: %w", err)
	}
	return copied, nil
}
