package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("Should accept default config", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})
	t.Run("Should reject empty scope", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Scope = ""
		assert.Error(t, cfg.Validate())
	})
}
