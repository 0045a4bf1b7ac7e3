package core_test

import (
	"testing"

	"github.com/compozy/flowlint/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneConfig(t *testing.T) {
	t.Run("Should return nil for nil config", func(t *testing.T) {
		copied, err := core.CloneConfig(nil)
		require.NoError(t, err)
		assert.Nil(t, copied)
	})
	t.Run("Should deep copy nested maps and slices", func(t *testing.T) {
		original := map[string]any{
			"params": map[string]any{"temperature": 0.5},
			"tags":   []any{"a", "b"},
		}
		copied, err := core.CloneConfig(original)
		require.NoError(t, err)
		copied["params"].(map[string]any)["temperature"] = 0.9
		copied["tags"].([]any)[0] = "z"
		assert.Equal(t, 0.5, original["params"].(map[string]any)["temperature"])
		assert.Equal(t, "a", original["tags"].([]any)[0])
	})
}
