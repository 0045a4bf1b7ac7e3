// Package history reads per-node execution statistics recorded by the
// workflow runtime. The analyzers only ever read from it.
package history

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// NodeStats aggregates past executions of one node.
type NodeStats struct {
	NodeID            string    `json:"node_id"             yaml:"node_id"             db:"node_id"`
	Executions        int64     `json:"executions"          yaml:"executions"          db:"executions"`
	AverageDurationMs float64   `json:"average_duration_ms" yaml:"average_duration_ms" db:"avg_duration_ms"`
	UpdatedAt         time.Time `json:"updated_at"          yaml:"updated_at,omitempty" db:"updated_at"`
}

// AverageDuration returns the mean execution time.
func (n NodeStats) AverageDuration() time.Duration {
	return time.Duration(n.AverageDurationMs * float64(time.Millisecond))
}

// ExecutionStats holds the node statistics of one workflow keyed by node id.
type ExecutionStats struct {
	WorkflowID string               `json:"workflow_id" yaml:"workflow_id"`
	Nodes      map[string]NodeStats `json:"nodes"       yaml:"nodes"`
}

// Node returns the statistics recorded for nodeID.
func (s *ExecutionStats) Node(nodeID string) (NodeStats, bool) {
	if s == nil {
		return NodeStats{}, false
	}
	n, ok := s.Nodes[nodeID]
	return n, ok
}

// NodeIDs returns the node ids with statistics in sorted order.
func (s *ExecutionStats) NodeIDs() []string {
	ids := make([]string, 0, len(s.Nodes))
	for id := range s.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *ExecutionStats) clone() *ExecutionStats {
	out := &ExecutionStats{WorkflowID: s.WorkflowID, Nodes: make(map[string]NodeStats, len(s.Nodes))}
	for id, n := range s.Nodes {
		out.Nodes[id] = n
	}
	return out
}

func (s *ExecutionStats) normalize() {
	for id, n := range s.Nodes {
		if n.NodeID == "" {
			n.NodeID = id
			s.Nodes[id] = n
		}
	}
}

type statsFile struct {
	Workflows []*ExecutionStats `json:"workflows" yaml:"workflows"`
}

// ParseStats decodes a document of the form `workflows: [{workflow_id, nodes}]`.
// JSON input is accepted since it is valid YAML.
func ParseStats(data []byte) ([]*ExecutionStats, error) {
	var file statsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse execution stats: %w", err)
	}
	for _, s := range file.Workflows {
		if s == nil || s.WorkflowID == "" {
			return nil, fmt.Errorf("execution stats entry without workflow_id")
		}
		s.normalize()
	}
	return file.Workflows, nil
}

// LoadStatsFile reads ParseStats input from path.
func LoadStatsFile(path string) ([]*ExecutionStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read execution stats: %w", err)
	}
	return ParseStats(data)
}
