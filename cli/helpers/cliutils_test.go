package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCliError(t *testing.T) {
	t.Run("Should create error with code and message", func(t *testing.T) {
		err := NewCliError("TEST_ERROR", "Test message")
		assert.Equal(t, "TEST_ERROR", err.Code)
		assert.Equal(t, "Test message", err.Message)
		assert.Empty(t, err.Details)
		assert.NotNil(t, err.Context)
	})
	t.Run("Should implement error interface", func(t *testing.T) {
		assert.Equal(t, "TEST_ERROR: Test message", NewCliError("TEST_ERROR", "Test message").Error())
		assert.Equal(t, "TEST_ERROR: Test message (Details)", NewCliError("TEST_ERROR", "Test message", "Details").Error())
	})
	t.Run("Should add context to error", func(t *testing.T) {
		err := NewCliError("TEST_ERROR", "Test message").WithContext("file", "wf.yaml")
		assert.Equal(t, "wf.yaml", err.Context["file"])
	})
}

func TestFindingsError(t *testing.T) {
	t.Run("Should match the sentinel and describe the threshold", func(t *testing.T) {
		err := fmt.Errorf("lint: %w", &FindingsError{Count: 2, Threshold: "ERROR"})
		assert.ErrorIs(t, err, ErrFindings)
		assert.Contains(t, err.Error(), "2 issues at or above ERROR")
	})
}

func TestIsTimeoutError(t *testing.T) {
	t.Run("Should detect timeout errors", func(t *testing.T) {
		assert.True(t, IsTimeoutError(context.DeadlineExceeded))
		assert.True(t, IsTimeoutError(NewTimeoutError("lint", "30s")))
		assert.False(t, IsTimeoutError(nil))
		assert.False(t, IsTimeoutError(errors.New("boom")))
	})
}

func TestFormatError(t *testing.T) {
	t.Run("Should format JSON with code and details", func(t *testing.T) {
		out := FormatError(NewCliError("INVALID_WORKFLOW", "bad graph", "duplicate node"), OutputFormatJSON, false)
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &payload))
		assert.Equal(t, "bad graph", payload["error"])
		assert.Equal(t, "duplicate node", payload["details"])
		assert.Equal(t, "INVALID_WORKFLOW", payload["code"])
	})
	t.Run("Should format plain text without color", func(t *testing.T) {
		assert.Equal(t, "Error: boom", FormatError(errors.New("boom"), OutputFormatText, false))
	})
}

func TestParseOutputFormat(t *testing.T) {
	t.Run("Should default to text", func(t *testing.T) {
		f, err := ParseOutputFormat("")
		require.NoError(t, err)
		assert.Equal(t, OutputFormatText, f)
	})
	t.Run("Should reject unknown formats", func(t *testing.T) {
		_, err := ParseOutputFormat("xml")
		assert.Error(t, err)
	})
}

func TestOutputWriter(t *testing.T) {
	result := analysis.NewResult("wf", []analysis.Issue{{
		Severity: analysis.SeverityWarning,
		Category: analysis.CategoryDeadCode,
		Location: "D",
		Message:  "node \"D\" is unreachable",
	}})
	t.Run("Should render text without styling for a buffer", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewOutputWriter(&buf, OutputFormatText).WriteData(ResultView{result}))
		assert.Contains(t, buf.String(), "wf: 1 issue")
		assert.Contains(t, buf.String(), "WARNING")
		assert.NotContains(t, buf.String(), "\x1b[")
	})
	t.Run("Should write JSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewOutputWriter(&buf, OutputFormatJSON).WriteData(result))
		assert.Contains(t, buf.String(), `"workflow_id": "wf"`)
	})
	t.Run("Should write YAML using JSON field names", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewOutputWriter(&buf, OutputFormatYAML).WriteData(result))
		assert.Contains(t, buf.String(), "workflow_id: wf")
		assert.Contains(t, buf.String(), "severity: WARNING")
	})
}
