package graph

import "context"

// Index is a read-only adjacency view over a Definition. Edge and neighbor lists
// keep definition order so every traversal is deterministic.
type Index struct {
	def      *Definition
	position map[string]int
	out      map[string][]Edge
	in       map[string][]Edge
	succ     map[string][]string
	pred     map[string][]string
}

// NewIndex builds the adjacency maps from the edge set.
func NewIndex(d *Definition) *Index {
	idx := &Index{
		def:      d,
		position: make(map[string]int, len(d.Nodes)),
		out:      make(map[string][]Edge, len(d.Nodes)),
		in:       make(map[string][]Edge, len(d.Nodes)),
		succ:     make(map[string][]string, len(d.Nodes)),
		pred:     make(map[string][]string, len(d.Nodes)),
	}
	for i := range d.Nodes {
		idx.position[d.Nodes[i].ID] = i
	}
	for _, e := range d.Edges {
		idx.out[e.SourceNodeID] = append(idx.out[e.SourceNodeID], e)
		idx.in[e.TargetNodeID] = append(idx.in[e.TargetNodeID], e)
		idx.succ[e.SourceNodeID] = appendUnique(idx.succ[e.SourceNodeID], e.TargetNodeID)
		idx.pred[e.TargetNodeID] = appendUnique(idx.pred[e.TargetNodeID], e.SourceNodeID)
	}
	return idx
}

func appendUnique(list []string, id string) []string {
	for _, existing := range list {
		if existing == id {
			return list
		}
	}
	return append(list, id)
}

// Definition returns the indexed definition.
func (x *Index) Definition() *Definition { return x.def }

// Position returns the index of the node in definition order, or -1.
func (x *Index) Position(id string) int {
	if p, ok := x.position[id]; ok {
		return p
	}
	return -1
}

func (x *Index) OutEdges(id string) []Edge       { return x.out[id] }
func (x *Index) InEdges(id string) []Edge        { return x.in[id] }
func (x *Index) Successors(id string) []string   { return x.succ[id] }
func (x *Index) Predecessors(id string) []string { return x.pred[id] }

// NodesOfType returns the ids of all nodes whose type equals nodeType, in definition order.
func (x *Index) NodesOfType(nodeType string) []string {
	var ids []string
	for i := range x.def.Nodes {
		if x.def.Nodes[i].Type == nodeType {
			ids = append(ids, x.def.Nodes[i].ID)
		}
	}
	return ids
}

// ReachableFrom returns every node reachable from roots by forward traversal,
// roots included. The visited set makes cycles terminate.
func (x *Index) ReachableFrom(ctx context.Context, roots []string) (map[string]struct{}, error) {
	visited := make(map[string]struct{}, len(x.def.Nodes))
	queue := make([]string, 0, len(roots))
	for _, r := range roots {
		if _, ok := visited[r]; ok {
			continue
		}
		visited[r] = struct{}{}
		queue = append(queue, r)
	}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]
		for _, next := range x.succ[current] {
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return visited, nil
}

// Reaches reports whether a directed path of at least one edge leads from one node to another.
func (x *Index) Reaches(from, to string) bool {
	visited := map[string]struct{}{}
	stack := append([]string(nil), x.succ[from]...)
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == to {
			return true
		}
		if _, ok := visited[current]; ok {
			continue
		}
		visited[current] = struct{}{}
		stack = append(stack, x.succ[current]...)
	}
	return false
}
