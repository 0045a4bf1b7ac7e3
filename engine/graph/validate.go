package graph

import "fmt"

// Validate checks the IR invariants: node ids are non-empty and unique, edge ids are
// unique when present, and every edge endpoint references an existing node.
func Validate(d *Definition) error {
	if d == nil {
		return &InvariantError{Violations: []Violation{{
			Code:    ViolationNilDefinition,
			Message: "definition is nil",
		}}}
	}
	var violations []Violation
	seen := make(map[string]struct{}, len(d.Nodes))
	for i := range d.Nodes {
		id := d.Nodes[i].ID
		if id == "" {
			violations = append(violations, Violation{
				Code:    ViolationEmptyNodeID,
				Subject: fmt.Sprintf("nodes[%d]", i),
				Message: fmt.Sprintf("node at index %d has an empty id", i),
			})
			continue
		}
		if _, dup := seen[id]; dup {
			violations = append(violations, Violation{
				Code:    ViolationDuplicateNode,
				Subject: id,
				Message: fmt.Sprintf("node id %q is declared more than once", id),
			})
			continue
		}
		seen[id] = struct{}{}
	}
	edgeIDs := make(map[string]struct{}, len(d.Edges))
	for i := range d.Edges {
		e := d.Edges[i]
		if e.ID != "" {
			if _, dup := edgeIDs[e.ID]; dup {
				violations = append(violations, Violation{
					Code:    ViolationDuplicateEdge,
					Subject: e.ID,
					Message: fmt.Sprintf("edge id %q is declared more than once", e.ID),
				})
			}
			edgeIDs[e.ID] = struct{}{}
		}
		for _, endpoint := range []string{e.SourceNodeID, e.TargetNodeID} {
			if _, ok := seen[endpoint]; !ok {
				violations = append(violations, Violation{
					Code:    ViolationDanglingEdge,
					Subject: e.Location(),
					Message: fmt.Sprintf("edge %s references unknown node %q", e.Location(), endpoint),
				})
			}
		}
	}
	if len(violations) > 0 {
		return &InvariantError{WorkflowID: d.ID, Violations: violations}
	}
	return nil
}
