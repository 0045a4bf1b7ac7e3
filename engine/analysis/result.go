package analysis

// Result aggregates every issue of one lint run with precomputed histograms.
// It is built once by NewResult and never modified afterwards.
type Result struct {
	WorkflowID string           `json:"workflow_id,omitempty"`
	Issues     []Issue          `json:"issues"`
	BySeverity map[Severity]int `json:"by_severity"`
	ByCategory map[Category]int `json:"by_category"`
}

func NewResult(workflowID string, issues []Issue) *Result {
	if issues == nil {
		issues = []Issue{}
	}
	bySeverity := make(map[Severity]int, len(Severities))
	byCategory := make(map[Category]int)
	for i := range issues {
		bySeverity[issues[i].Severity]++
		byCategory[issues[i].Category]++
	}
	return &Result{
		WorkflowID: workflowID,
		Issues:     issues,
		BySeverity: bySeverity,
		ByCategory: byCategory,
	}
}

// HasAtLeast reports whether any issue is at or above the given severity.
func (r *Result) HasAtLeast(min Severity) bool {
	for i := range r.Issues {
		if r.Issues[i].Severity.Rank() >= min.Rank() {
			return true
		}
	}
	return false
}

// Filter returns the issues matching the predicate, in order.
func (r *Result) Filter(keep func(Issue) bool) []Issue {
	var out []Issue
	for i := range r.Issues {
		if keep(r.Issues[i]) {
			out = append(out, r.Issues[i])
		}
	}
	return out
}

// ByCategoryAndSeverity is a convenience filter used by callers gating on findings.
func (r *Result) ByCategoryAndSeverity(category Category, severity Severity) []Issue {
	return r.Filter(func(i Issue) bool {
		return i.Category == category && i.Severity == severity
	})
}
