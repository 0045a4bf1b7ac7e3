package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// CliError represents a CLI-specific error with enhanced context
type CliError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   string         `json:"details,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	cause     error
}

func (e *CliError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewCliError creates a new CLI error with context
func NewCliError(code, message string, details ...string) *CliError {
	err := &CliError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Context:   make(map[string]any),
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// WithContext adds context to the error
func (e *CliError) WithContext(key string, value any) *CliError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithCause records the error this CLI error was derived from
func (e *CliError) WithCause(err error) *CliError {
	e.cause = err
	return e
}

func (e *CliError) Unwrap() error {
	return e.cause
}

// IsTimeoutError checks if an error is a timeout error
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrTimeout) ||
		strings.Contains(strings.ToLower(err.Error()), "timed out")
}

// FormatError formats errors for the selected output format
func FormatError(err error, format OutputFormat, color bool) string {
	if err == nil {
		return ""
	}
	switch format {
	case OutputFormatJSON:
		return formatErrorJSON(err)
	default:
		return formatErrorText(err, color)
	}
}

func formatErrorJSON(err error) string {
	message, details := extractErrorInfo(err)
	errorResponse := map[string]any{
		"error":   message,
		"details": details,
	}
	var cliErr *CliError
	if errors.As(err, &cliErr) {
		errorResponse["code"] = cliErr.Code
	}
	jsonBytes, marshalErr := json.MarshalIndent(errorResponse, "", "  ")
	if marshalErr != nil {
		return `{"error": "JSON marshaling failed", "details": ""}`
	}
	return string(jsonBytes)
}

func formatErrorText(err error, color bool) string {
	message, details := extractErrorInfo(err)
	if !color {
		if details != "" {
			return fmt.Sprintf("Error: %s\nDetails: %s", message, details)
		}
		return "Error: " + message
	}
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF6B6B")).
		Bold(true)
	result := style.Render("Error: " + message)
	if details != "" {
		detailStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)
		result += "\n" + detailStyle.Render("Details: "+details)
	}
	return result
}

// extractErrorInfo extracts message and details from error
func extractErrorInfo(err error) (message, details string) {
	var cliErr *CliError
	if errors.As(err, &cliErr) && cliErr != nil {
		return cliErr.Message, cliErr.Details
	}
	return err.Error(), ""
}

// OutputError writes an error to w in the appropriate format
func OutputError(w io.Writer, err error, format OutputFormat) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, FormatError(err, format, ShouldUseColor(w)))
}

// Pluralize returns singular or plural form based on count
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}
