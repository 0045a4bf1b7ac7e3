package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIProvider_Load(t *testing.T) {
	t.Run("Should map known flags to nested paths", func(t *testing.T) {
		data, err := NewCLIProvider(map[string]any{
			"fail-on":   "WARNING",
			"log-level": "debug",
			"unknown":   true,
		}).Load()
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"lint":    map[string]any{"fail_on": "WARNING"},
			"runtime": map[string]any{"log_level": "debug"},
		}, data)
	})
	t.Run("Should return empty data for nil flags", func(t *testing.T) {
		data, err := NewCLIProvider(nil).Load()
		require.NoError(t, err)
		assert.Empty(t, data)
	})
}

func TestSetNested(t *testing.T) {
	t.Run("Should report path conflicts", func(t *testing.T) {
		m := map[string]any{"lint": "flat"}
		err := setNested(m, "lint.fail_on", "ERROR")
		assert.Error(t, err)
	})
}

func TestYAMLProvider_Load(t *testing.T) {
	t.Run("Should return empty data for missing files", func(t *testing.T) {
		data, err := NewYAMLProvider(filepath.Join(t.TempDir(), "missing.yaml")).Load()
		require.NoError(t, err)
		assert.Empty(t, data)
	})
	t.Run("Should drop nil values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flowlint.yaml")
		require.NoError(t, os.WriteFile(path, []byte("lint:\n  fail_on: WARNING\n  stage_timeout:\nhistory:\n"), 0o600))
		data, err := NewYAMLProvider(path).Load()
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"lint": map[string]any{"fail_on": "WARNING"}}, data)
	})
	t.Run("Should fail on malformed YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flowlint.yaml")
		require.NoError(t, os.WriteFile(path, []byte("lint: [\n"), 0o600))
		_, err := NewYAMLProvider(path).Load()
		assert.Error(t, err)
	})
	t.Run("Should report the YAML source type", func(t *testing.T) {
		assert.Equal(t, SourceYAML, NewYAMLProvider("x.yaml").Type())
	})
}
