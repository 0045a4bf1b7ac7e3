package helpers

import "fmt"

// ContextKey is a custom type for context keys to avoid string collisions
type ContextKey string

const (
	// ConfigServiceKey stores the config.Service that loaded the active configuration
	ConfigServiceKey ContextKey = "config_service"
)

// OutputFormat represents different output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// ParseOutputFormat validates a --format value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return f, nil
	case "":
		return OutputFormatText, nil
	default:
		return "", NewCliError("INVALID_FORMAT", fmt.Sprintf("unsupported output format %q", s), "use text, json or yaml")
	}
}
