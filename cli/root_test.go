package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/compozy/flowlint/cli/helpers"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orphanWorkflow = `id: orphan
nodes:
  - {node_id: START, node_type: START}
  - {node_id: A, node_type: TRANSFORM}
  - {node_id: B, node_type: TRANSFORM}
  - {node_id: END, node_type: END}
  - {node_id: D, node_type: TRANSFORM}
edges:
  - {id: e1, source_node_id: START, target_node_id: A}
  - {id: e2, source_node_id: A, target_node_id: B}
  - {id: e3, source_node_id: B, target_node_id: END}
`

func writeWorkflow(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "workflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(orphanWorkflow), 0o600))
	return dir, path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := RootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_Lint(t *testing.T) {
	t.Run("Should print issues as JSON", func(t *testing.T) {
		dir, path := writeWorkflow(t)
		out, _, err := run(t, "lint", path, "--format", "json", "--log-level", "disabled",
			"--config", filepath.Join(dir, "missing.yaml"))
		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &payload))
		assert.Equal(t, "orphan", payload["workflow_id"])
		assert.Contains(t, out, `"DEAD_CODE"`)
	})
	t.Run("Should fail when an issue reaches fail-on", func(t *testing.T) {
		dir, path := writeWorkflow(t)
		_, stderr, err := run(t, "lint", path, "--fail-on", "WARNING", "--log-level", "disabled",
			"--config", filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, helpers.ErrFindings)
		assert.Contains(t, stderr, "at or above WARNING")
	})
	t.Run("Should reject a malformed workflow", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("nodes:\n  - {node_id: A, node_type: X}\n  - {node_id: A, node_type: X}\n"), 0o600))
		_, _, err := run(t, "lint", path, "--log-level", "disabled", "--config", filepath.Join(dir, "missing.yaml"))
		assert.ErrorIs(t, err, graph.ErrInvalidDefinition)
	})
}

func TestRootCmd_Optimize(t *testing.T) {
	t.Run("Should write the optimized workflow", func(t *testing.T) {
		dir, path := writeWorkflow(t)
		target := filepath.Join(dir, "out", "optimized.yaml")
		out, _, err := run(t, "optimize", path, "-o", target, "--log-level", "disabled",
			"--config", filepath.Join(dir, "missing.yaml"))
		require.NoError(t, err)
		assert.Contains(t, out, "DEAD_CODE_ELIMINATION")
		def, err := graph.Load(target)
		require.NoError(t, err)
		_, hasOrphan := def.Node("D")
		assert.False(t, hasOrphan)
	})
}

func TestRootCmd_Config(t *testing.T) {
	t.Run("Should apply the config file and flags", func(t *testing.T) {
		dir := t.TempDir()
		cfgPath := filepath.Join(dir, "flowlint.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("lint:\n  fail_on: CRITICAL\n"), 0o600))
		out, _, err := run(t, "config", "show", "--format", "json", "--config", cfgPath,
			"--log-level", "disabled", "--min-chain-length", "4")
		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &payload))
		assert.Equal(t, "CRITICAL", payload["lint"].(map[string]any)["fail_on"])
		assert.Equal(t, float64(4), payload["performance"].(map[string]any)["min_chain_length"])
	})
}

func TestIsPathWithinDirectory(t *testing.T) {
	assert.True(t, isPathWithinDirectory("/a/b/c.env", "/a/b"))
	assert.False(t, isPathWithinDirectory("/a/c.env", "/a/b"))
}
