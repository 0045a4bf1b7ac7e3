package analysis

import (
	"fmt"

	"github.com/compozy/flowlint/engine/core"
)

// -----------------------------------------------------------------------------
// Severity
// -----------------------------------------------------------------------------

type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// Severities lists every severity from least to most severe.
var Severities = []Severity{SeverityInfo, SeverityWarning, SeverityError, SeverityCritical}

// Rank orders severities; unknown values rank below INFO.
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityError:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

func (s Severity) String() string {
	return string(s)
}

// ParseSeverity accepts the canonical upper-case names.
func ParseSeverity(s string) (Severity, error) {
	for _, sev := range Severities {
		if string(sev) == s {
			return sev, nil
		}
	}
	return "", fmt.Errorf("unknown severity: %q", s)
}

// -----------------------------------------------------------------------------
// Category
// -----------------------------------------------------------------------------

type Category string

const (
	CategoryTypeMismatch  Category = "TYPE_MISMATCH"
	CategoryDeadCode      Category = "DEAD_CODE"
	CategoryPerformance   Category = "PERFORMANCE"
	CategorySecurity      Category = "SECURITY"
	CategoryConfiguration Category = "CONFIGURATION"
	CategoryRule          Category = "RULE"
	CategoryInternalError Category = "INTERNAL_ERROR"
)

func (c Category) String() string {
	return string(c)
}

// -----------------------------------------------------------------------------
// Issue
// -----------------------------------------------------------------------------

// Issue is a single analysis finding anchored on a node or edge id.
type Issue struct {
	Severity       Severity       `json:"severity"`
	Category       Category       `json:"category"`
	Message        string         `json:"message"`
	Location       string         `json:"location"`
	Recommendation string         `json:"recommendation,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

func (i Issue) String() string {
	s := fmt.Sprintf("[%s] %s %s: %s", i.Severity, i.Category, i.Location, i.Message)
	if i.Recommendation != "" {
		s += " (" + i.Recommendation + ")"
	}
	return s
}

// InternalError converts a collaborator failure into an issue so that analysis
// still returns a result. Credentials echoed by err are scrubbed from the message.
func InternalError(source string, err error) Issue {
	return Issue{
		Severity:       SeverityError,
		Category:       CategoryInternalError,
		Message:        fmt.Sprintf("%s failed: %s", source, core.RedactError(err)),
		Location:       source,
		Recommendation: "check the failing extension; its findings are missing from this result",
		Metadata:       map[string]any{"source": source},
	}
}
