package analysis

import "github.com/compozy/flowlint/engine/graph"

type OptimizationType string

const (
	OptimizationDeadCodeElimination OptimizationType = "DEAD_CODE_ELIMINATION"
	OptimizationParallelization     OptimizationType = "PARALLELIZATION"
	OptimizationNodeMerge           OptimizationType = "NODE_MERGE"
	OptimizationModelSelection      OptimizationType = "MODEL_OPTIMIZATION"
)

// Optimization records one applied pass of the optimize pipeline.
type Optimization struct {
	Type        OptimizationType `json:"type"`
	Description string           `json:"description"`
}

// ImprovementMetrics estimates what the optimized definition gains over the original.
type ImprovementMetrics struct {
	CostReductionPercent    float64 `json:"cost_reduction_percent"`
	LatencyReductionPercent float64 `json:"latency_reduction_percent"`
	NodesReduced            int     `json:"nodes_reduced"`
	EdgesReduced            int     `json:"edges_reduced"`
}

type OptimizationResult struct {
	Original  *graph.Definition  `json:"original"`
	Optimized *graph.Definition  `json:"optimized"`
	Applied   []Optimization     `json:"applied"`
	Metrics   ImprovementMetrics `json:"metrics"`
	Issues    []Issue            `json:"issues,omitempty"`
}

// ReductionPercent returns the relative reduction from before to after, 0 when before is not positive.
func ReductionPercent(before, after float64) float64 {
	if before <= 0 {
		return 0
	}
	return (before - after) / before * 100
}
