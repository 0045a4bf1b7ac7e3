package optimizer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/pkg/logger"
)

// parallelGroup is a set of sibling nodes sharing predecessors, successors and
// port wiring, none of which depends on another.
type parallelGroup struct {
	Members      []string
	Predecessors []string
	Successors   []string
	// inbound and outbound hold the first member's edges; every member has the same ports.
	inbound  []graph.Edge
	outbound []graph.Edge
}

// ParallelizeIndependentNodes replaces every group of independent siblings by one
// PARALLEL coordinator. Rewriting repeats until no group remains, so the output
// is a fixed point of the pass.
func (o *Optimizer) ParallelizeIndependentNodes(
	ctx context.Context,
	def *graph.Definition,
) (*graph.OptimizedGraph, error) {
	if err := graph.Validate(def); err != nil {
		return nil, err
	}
	current, err := def.Clone()
	if err != nil {
		return nil, err
	}
	total := 0
	for {
		groups, err := o.parallelGroups(ctx, graph.NewIndex(current))
		if err != nil {
			return nil, err
		}
		if len(groups) == 0 {
			break
		}
		current, err = applyParallelGroups(ctx, current, groups)
		if err != nil {
			return nil, err
		}
		total += len(groups)
	}
	logger.FromContext(ctx).Debug("Parallelization finished", "workflow_id", def.ID, "groups", total)
	return &graph.OptimizedGraph{
		Definition:        current,
		Modified:          total > 0,
		ParallelizedCount: total,
	}, nil
}

func (o *Optimizer) parallelGroups(ctx context.Context, idx *graph.Index) ([]parallelGroup, error) {
	def := idx.Definition()
	byKey := map[string]*parallelGroup{}
	var order []string
	for i := range def.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node := &def.Nodes[i]
		key, ok := o.siblingKey(idx, node)
		if !ok {
			continue
		}
		group, exists := byKey[key]
		if !exists {
			group = &parallelGroup{
				Predecessors: sortedCopy(idx.Predecessors(node.ID)),
				Successors:   sortedCopy(idx.Successors(node.ID)),
				inbound:      idx.InEdges(node.ID),
				outbound:     idx.OutEdges(node.ID),
			}
			byKey[key] = group
			order = append(order, key)
		}
		group.Members = append(group.Members, node.ID)
	}
	members := map[string]struct{}{}
	boundary := map[string]struct{}{}
	var groups []parallelGroup
	for _, key := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		group := byKey[key]
		group.Members = independentMembers(idx, group.Members)
		if len(group.Members) < 2 || group.conflicts(members, boundary) {
			continue
		}
		for _, id := range group.Members {
			members[id] = struct{}{}
		}
		for _, id := range append(append([]string{}, group.Predecessors...), group.Successors...) {
			boundary[id] = struct{}{}
		}
		groups = append(groups, *group)
	}
	return groups, nil
}

// siblingKey identifies nodes that may run side by side: same predecessor and
// successor sets and the same port on every edge, one edge per neighbour.
func (o *Optimizer) siblingKey(idx *graph.Index, node *graph.Node) (string, bool) {
	if !o.structural(node) {
		return "", false
	}
	preds := idx.Predecessors(node.ID)
	succs := idx.Successors(node.ID)
	if len(preds) == 0 || len(succs) == 0 {
		return "", false
	}
	in := idx.InEdges(node.ID)
	out := idx.OutEdges(node.ID)
	if len(in) != len(preds) || len(out) != len(succs) {
		return "", false
	}
	parts := make([]string, 0, len(in)+len(out))
	for _, e := range in {
		if e.SourceNodeID == node.ID {
			return "", false
		}
		parts = append(parts, fmt.Sprintf("in:%s:%s:%s", e.SourceNodeID, e.SourcePort, e.TargetPort))
	}
	for _, e := range out {
		parts = append(parts, fmt.Sprintf("out:%s:%s:%s", e.TargetNodeID, e.SourcePort, e.TargetPort))
	}
	sort.Strings(parts)
	return strings.Join(parts, "|"), true
}

// independentMembers keeps, in order, each member that neither reaches nor is
// reached by a member kept before it.
func independentMembers(idx *graph.Index, candidates []string) []string {
	var kept []string
	for _, id := range candidates {
		independent := true
		for _, other := range kept {
			if idx.Reaches(id, other) || idx.Reaches(other, id) {
				independent = false
				break
			}
		}
		if independent {
			kept = append(kept, id)
		}
	}
	return kept
}

// conflicts reports whether rewriting g would touch a node already claimed by
// another group in the same round.
func (g *parallelGroup) conflicts(members, boundary map[string]struct{}) bool {
	for _, id := range g.Predecessors {
		if _, ok := members[id]; ok {
			return true
		}
	}
	for _, id := range g.Successors {
		if _, ok := members[id]; ok {
			return true
		}
	}
	for _, id := range g.Members {
		if _, ok := boundary[id]; ok {
			return true
		}
	}
	return false
}

func applyParallelGroups(ctx context.Context, def *graph.Definition, groups []parallelGroup) (*graph.Definition, error) {
	taken := takenIDs(def)
	head := map[string]int{}
	absorbed := map[string]struct{}{}
	for i := range groups {
		head[groups[i].Members[0]] = i
		for _, id := range groups[i].Members {
			absorbed[id] = struct{}{}
		}
	}
	coordinators := make([]graph.Node, len(groups))
	for i := range groups {
		node, err := coordinatorNode(def, &groups[i], taken)
		if err != nil {
			return nil, err
		}
		coordinators[i] = node
	}
	nodes := make([]graph.Node, 0, len(def.Nodes))
	for i := range def.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := def.Nodes[i].ID
		if g, ok := head[id]; ok {
			nodes = append(nodes, coordinators[g])
			continue
		}
		if _, ok := absorbed[id]; ok {
			continue
		}
		node, err := def.Nodes[i].Clone()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	edges := make([]graph.Edge, 0, len(def.Edges))
	for _, e := range def.Edges {
		if g, ok := head[e.TargetNodeID]; ok {
			e.TargetNodeID = coordinators[g].ID
			edges = append(edges, e)
			continue
		}
		if g, ok := head[e.SourceNodeID]; ok {
			e.SourceNodeID = coordinators[g].ID
			edges = append(edges, e)
			continue
		}
		_, src := absorbed[e.SourceNodeID]
		_, dst := absorbed[e.TargetNodeID]
		if src || dst {
			continue
		}
		edges = append(edges, e)
	}
	return def.WithGraph(nodes, edges), nil
}

func coordinatorNode(def *graph.Definition, group *parallelGroup, taken map[string]struct{}) (graph.Node, error) {
	members := make([]any, 0, len(group.Members))
	for _, id := range group.Members {
		node, _ := def.Node(id)
		embedded, err := embeddedNode(node)
		if err != nil {
			return graph.Node{}, err
		}
		members = append(members, embedded)
	}
	inputs := make([]any, 0, len(group.inbound))
	for _, e := range group.inbound {
		inputs = append(inputs, map[string]any{
			"source_node_id": e.SourceNodeID,
			"source_port":    e.SourcePort,
			"target_port":    e.TargetPort,
		})
	}
	outputs := make([]any, 0, len(group.outbound))
	for _, e := range group.outbound {
		outputs = append(outputs, map[string]any{
			"target_node_id": e.TargetNodeID,
			"source_port":    e.SourcePort,
			"target_port":    e.TargetPort,
		})
	}
	return graph.Node{
		ID:   synthesizedID("parallel", group.Members, taken),
		Type: graph.NodeTypeParallel,
		Config: map[string]any{
			"nodes":  members,
			"wiring": map[string]any{"inputs": inputs, "outputs": outputs},
		},
	}, nil
}

func sortedCopy(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}
