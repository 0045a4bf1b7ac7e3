package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDefinition is the sentinel matched by every IR invariant violation.
var ErrInvalidDefinition = errors.New("invalid workflow definition")

// Violation describes a single broken IR invariant.
type Violation struct {
	Code    string
	Subject string
	Message string
}

const (
	ViolationEmptyNodeID   = "empty_node_id"
	ViolationDuplicateNode = "duplicate_node_id"
	ViolationDuplicateEdge = "duplicate_edge_id"
	ViolationDanglingEdge  = "dangling_edge"
	ViolationNilDefinition = "nil_definition"
)

// InvariantError is returned when a definition cannot be analyzed at all.
type InvariantError struct {
	WorkflowID string
	Violations []Violation
}

func (e *InvariantError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, fmt.Sprintf("%s: %s", v.Code, v.Message))
	}
	prefix := "invalid workflow definition"
	if e.WorkflowID != "" {
		prefix = fmt.Sprintf("invalid workflow definition %q", e.WorkflowID)
	}
	return fmt.Sprintf("%s: %s", prefix, strings.Join(msgs, "; "))
}

func (e *InvariantError) Is(target error) bool {
	return target == ErrInvalidDefinition
}
