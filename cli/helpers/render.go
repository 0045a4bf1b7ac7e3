package helpers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/infra/monitoring"
)

// Styles holds the lipgloss styles of text output. Without color every style
// renders its input unchanged.
type Styles struct {
	Title    lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	severity map[analysis.Severity]lipgloss.Style
}

func NewStyles(color bool) *Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return &Styles{Title: plain, Muted: plain, Success: plain, severity: map[analysis.Severity]lipgloss.Style{}}
	}
	return &Styles{
		Title:   lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4")).Bold(true),
		severity: map[analysis.Severity]lipgloss.Style{
			analysis.SeverityInfo:     lipgloss.NewStyle().Foreground(lipgloss.Color("#6C9EFF")),
			analysis.SeverityWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD93D")),
			analysis.SeverityError:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
			analysis.SeverityCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF3B3B")).Bold(true),
		},
	}
}

func (s *Styles) Severity(sev analysis.Severity) string {
	style, ok := s.severity[sev]
	if !ok {
		return string(sev)
	}
	return style.Render(string(sev))
}

func writeIssues(b *strings.Builder, s *Styles, issues []analysis.Issue) {
	for _, issue := range issues {
		fmt.Fprintf(b, "%-8s %-15s %-18s %s\n", s.Severity(issue.Severity), issue.Category, issue.Location, issue.Message)
		if issue.Recommendation != "" {
			fmt.Fprintf(b, "         %s\n", s.Muted.Render("-> "+issue.Recommendation))
		}
	}
}

// ResultView renders a lint result.
type ResultView struct {
	*analysis.Result
}

func (v ResultView) RenderText(s *Styles) string {
	var b strings.Builder
	if len(v.Issues) == 0 {
		b.WriteString(s.Success.Render(fmt.Sprintf("%s: no issues found", v.WorkflowID)))
		return b.String()
	}
	b.WriteString(s.Title.Render(fmt.Sprintf("%s: %d %s", v.WorkflowID, len(v.Issues), Pluralize(len(v.Issues), "issue", "issues"))))
	b.WriteString("\n")
	writeIssues(&b, s, v.Issues)
	var counts []string
	for i := len(analysis.Severities) - 1; i >= 0; i-- {
		sev := analysis.Severities[i]
		if n := v.BySeverity[sev]; n > 0 {
			counts = append(counts, fmt.Sprintf("%d %s", n, s.Severity(sev)))
		}
	}
	b.WriteString(s.Muted.Render(strings.Join(counts, ", ")))
	return b.String()
}

// SuggestionView renders a suggestion set.
type SuggestionView struct {
	*analysis.SuggestionSet
}

func (v SuggestionView) RenderText(s *Styles) string {
	var b strings.Builder
	if len(v.Suggestions) == 0 {
		b.WriteString(s.Success.Render(fmt.Sprintf("%s: no suggestions", v.WorkflowID)))
	} else {
		b.WriteString(s.Title.Render(fmt.Sprintf("%s: %d %s", v.WorkflowID, len(v.Suggestions),
			Pluralize(len(v.Suggestions), "suggestion", "suggestions"))))
	}
	for i, sg := range v.Suggestions {
		fmt.Fprintf(&b, "\n%2d. [%s] %s\n", i+1, sg.Type, sg.Title)
		fmt.Fprintf(&b, "    %s\n", sg.Description)
		b.WriteString("    " + s.Muted.Render(fmt.Sprintf("impact %s, difficulty %s", sg.Impact, sg.Difficulty)))
	}
	if len(v.Issues) > 0 {
		b.WriteString("\n")
		writeIssues(&b, s, v.Issues)
	}
	return strings.TrimRight(b.String(), "\n")
}

// OptimizationView renders an optimization summary without the graphs.
type OptimizationView struct {
	*analysis.OptimizationResult
	WorkflowID string `json:"workflow_id"`
	Output     string `json:"output,omitempty"`
}

func (v OptimizationView) RenderText(s *Styles) string {
	var b strings.Builder
	if len(v.Applied) == 0 {
		b.WriteString(s.Success.Render(fmt.Sprintf("%s: already optimal", v.WorkflowID)))
	} else {
		b.WriteString(s.Title.Render(fmt.Sprintf("%s: %d %s applied", v.WorkflowID, len(v.Applied),
			Pluralize(len(v.Applied), "optimization", "optimizations"))))
	}
	for _, opt := range v.Applied {
		fmt.Fprintf(&b, "\n  %-22s %s", opt.Type, opt.Description)
	}
	m := v.Metrics
	fmt.Fprintf(&b, "\n%s", s.Muted.Render(fmt.Sprintf(
		"nodes -%d, edges -%d, cost -%.1f%%, latency -%.1f%%",
		m.NodesReduced, m.EdgesReduced, m.CostReductionPercent, m.LatencyReductionPercent,
	)))
	if len(v.Issues) > 0 {
		b.WriteString("\n")
		writeIssues(&b, s, v.Issues)
	}
	if v.Output != "" {
		fmt.Fprintf(&b, "\nwrote %s", v.Output)
	}
	return strings.TrimRight(b.String(), "\n")
}

// SamplesView renders collected metric samples.
type SamplesView []monitoring.Sample

func (v SamplesView) RenderText(s *Styles) string {
	var b strings.Builder
	b.WriteString(s.Title.Render("metrics"))
	for _, sample := range v {
		name := sample.Name
		if sample.Attributes != "" {
			name += "{" + sample.Attributes + "}"
		}
		fmt.Fprintf(&b, "\n  %-60s %g", name, sample.Value)
	}
	return b.String()
}
