package graph

// OptimizedGraph is the output of one rewrite pass. Modified reports whether the
// pass changed the structure; the counters are pass specific.
type OptimizedGraph struct {
	Definition        *Definition `json:"definition"`
	Modified          bool        `json:"modified"`
	RemovedNodeCount  int         `json:"removed_node_count,omitempty"`
	ParallelizedCount int         `json:"parallelized_count,omitempty"`
	MergedCount       int         `json:"merged_count,omitempty"`
	ModelChangedCount int         `json:"model_changed_count,omitempty"`
}

// Unchanged wraps a definition for a pass that found nothing to rewrite.
func Unchanged(d *Definition) *OptimizedGraph {
	return &OptimizedGraph{Definition: d}
}
