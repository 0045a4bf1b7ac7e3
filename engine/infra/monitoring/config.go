package monitoring

import "fmt"

// Config holds configuration for the in-process metrics collector.
type Config struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled" koanf:"enabled"`
	// Scope is the instrumentation scope name used for the meter.
	Scope string `json:"scope"   yaml:"scope"   mapstructure:"scope"   koanf:"scope"`
}

// DefaultConfig returns default monitoring configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled: false,
		Scope:   "flowlint",
	}
}

// Validate validates the monitoring configuration
func (c *Config) Validate() error {
	if c.Scope == "" {
		return fmt.Errorf("monitoring scope cannot be empty")
	}
	return nil
}
