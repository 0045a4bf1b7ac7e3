package deadcode_test

import (
	"context"
	"testing"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/deadcode"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/engine/graph/graphtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleWithOrphan() *graph.Definition {
	return graphtest.NewBuilder("wf").
		Node("START", graph.NodeTypeStart).
		Nodes("TRANSFORM", "A", "B", "C").
		Node("END", graph.NodeTypeEnd).
		Node("D", "TRANSFORM").
		Chain("START", "A", "B", "C", "END").
		Build()
}

func TestDetector_Detect(t *testing.T) {
	ctx := context.Background()
	t.Run("Should flag only the disconnected node", func(t *testing.T) {
		issues, err := deadcode.New().Detect(ctx, sampleWithOrphan())
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, "D", issues[0].Location)
		assert.Equal(t, analysis.SeverityWarning, issues[0].Severity)
		assert.Equal(t, analysis.CategoryDeadCode, issues[0].Category)
		assert.Equal(t, deadcode.Recommendation, issues[0].Recommendation)
		assert.Equal(t, "TRANSFORM", issues[0].Metadata["node_type"])
	})
	t.Run("Should report nothing when every node is reachable", func(t *testing.T) {
		def := graphtest.NewBuilder("wf").
			Node("START", graph.NodeTypeStart).
			Node("A", "TRANSFORM").
			Node("END", graph.NodeTypeEnd).
			Chain("START", "A", "END").
			Build()
		issues, err := deadcode.New().Detect(ctx, def)
		require.NoError(t, err)
		assert.Empty(t, issues)
	})
	t.Run("Should flag nodes reachable only from a dead cycle", func(t *testing.T) {
		def := graphtest.NewBuilder("wf").
			Node("START", graph.NodeTypeStart).
			Nodes("TRANSFORM", "A", "X", "Y").
			Chain("START", "A").
			Chain("X", "Y", "X").
			Build()
		issues, err := deadcode.New().Detect(ctx, def)
		require.NoError(t, err)
		require.Len(t, issues, 2)
		assert.Equal(t, "X", issues[0].Location)
		assert.Equal(t, "Y", issues[1].Location)
	})
	t.Run("Should flag every node when there is no start node", func(t *testing.T) {
		def := graphtest.NewBuilder("wf").Nodes("TRANSFORM", "A", "B").Chain("A", "B").Build()
		issues, err := deadcode.New().Detect(ctx, def)
		require.NoError(t, err)
		require.Len(t, issues, 2)
		for _, issue := range issues {
			assert.Equal(t, true, issue.Metadata["no_start_node"])
		}
	})
	t.Run("Should honor a custom start node type", func(t *testing.T) {
		def := graphtest.NewBuilder("wf").
			Node("IN", "TRIGGER").
			Node("A", "TRANSFORM").
			Node("B", "TRANSFORM").
			Chain("IN", "A").
			Build()
		issues, err := deadcode.New(deadcode.WithStartNodeType("TRIGGER")).Detect(ctx, def)
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, "B", issues[0].Location)
	})
	t.Run("Should reject definitions with dangling edges", func(t *testing.T) {
		def := graphtest.NewBuilder("wf").Node("START", graph.NodeTypeStart).Edge("START", "missing").Build()
		_, err := deadcode.New().Detect(ctx, def)
		assert.ErrorIs(t, err, graph.ErrInvalidDefinition)
	})
	t.Run("Should stop on a canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := deadcode.New().Detect(canceled, sampleWithOrphan())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDetector_RemoveDeadNodes(t *testing.T) {
	ctx := context.Background()
	t.Run("Should remove the disconnected node and keep order", func(t *testing.T) {
		def := sampleWithOrphan()
		result, err := deadcode.New().RemoveDeadNodes(ctx, def)
		require.NoError(t, err)
		assert.True(t, result.Modified)
		assert.Equal(t, 1, result.RemovedNodeCount)
		assert.Equal(t, []string{"START", "A", "B", "C", "END"}, result.Definition.NodeIDs())
		assert.Len(t, result.Definition.Edges, 4)
		assert.Len(t, def.Nodes, 6, "input must not be modified")
	})
	t.Run("Should drop edges touching removed nodes", func(t *testing.T) {
		def := graphtest.NewBuilder("wf").
			Node("START", graph.NodeTypeStart).
			Nodes("TRANSFORM", "A", "D").
			Chain("START", "A").
			Edge("D", "A").
			Build()
		result, err := deadcode.New().RemoveDeadNodes(ctx, def)
		require.NoError(t, err)
		require.Len(t, result.Definition.Edges, 1)
		assert.Equal(t, "e1", result.Definition.Edges[0].ID)
	})
	t.Run("Should report unchanged graphs", func(t *testing.T) {
		def := graphtest.NewBuilder("wf").Node("START", graph.NodeTypeStart).Build()
		result, err := deadcode.New().RemoveDeadNodes(ctx, def)
		require.NoError(t, err)
		assert.False(t, result.Modified)
		assert.Zero(t, result.RemovedNodeCount)
	})
	t.Run("Should remove exactly the nodes Detect reports", func(t *testing.T) {
		defs := []*graph.Definition{
			sampleWithOrphan(),
			graphtest.NewBuilder("nostart").Nodes("TRANSFORM", "A", "B").Chain("A", "B").Build(),
			graphtest.NewBuilder("cycle").
				Node("START", graph.NodeTypeStart).
				Nodes("TRANSFORM", "A", "B", "C").
				Chain("START", "A", "B", "A").
				Edge("C", "C").
				Build(),
		}
		detector := deadcode.New()
		for _, def := range defs {
			issues, err := detector.Detect(ctx, def)
			require.NoError(t, err)
			result, err := detector.RemoveDeadNodes(ctx, def)
			require.NoError(t, err)
			kept := map[string]bool{}
			for _, id := range result.Definition.NodeIDs() {
				kept[id] = true
			}
			var removed []string
			for _, id := range def.NodeIDs() {
				if !kept[id] {
					removed = append(removed, id)
				}
			}
			var flagged []string
			for _, issue := range issues {
				flagged = append(flagged, issue.Location)
			}
			assert.Equal(t, flagged, removed, def.ID)
			assert.Equal(t, len(flagged), result.RemovedNodeCount, def.ID)
		}
	})
}
