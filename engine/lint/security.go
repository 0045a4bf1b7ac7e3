package lint

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/core"
	"github.com/compozy/flowlint/engine/graph"
)

const (
	SecretRecommendation = "store the value in a secret manager"
	ScopesKey            = "scopes"
)

// checkSecurity reports literal secrets in node configs and declared scopes
// beyond what each node type requires.
func (l *Linter) checkSecurity(ctx context.Context, def *graph.Definition) ([]analysis.Issue, error) {
	var issues []analysis.Issue
	for i := range def.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node := &def.Nodes[i]
		issues = append(issues, secretIssues(node)...)
		if issue, ok := l.scopeIssue(node); ok {
			issues = append(issues, issue)
		}
	}
	return issues, nil
}

func secretIssues(node *graph.Node) []analysis.Issue {
	var issues []analysis.Issue
	report := func(path, value string) {
		issues = append(issues, analysis.Issue{
			Severity:       analysis.SeverityCritical,
			Category:       analysis.CategorySecurity,
			Message:        fmt.Sprintf("node %q holds a literal credential at %s", node.ID, path),
			Location:       node.ID,
			Recommendation: SecretRecommendation,
			Metadata:       map[string]any{"path": path, "value": core.MaskValue(value)},
		})
	}
	walkSecrets("config", "", node.Config, report)
	return issues
}

// walkSecrets visits v depth-first with map keys in sorted order. key is the
// map key holding v, empty for list elements.
func walkSecrets(path, key string, v any, report func(path, value string)) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkSecrets(path+"."+k, k, val[k], report)
		}
	case []any:
		for i, item := range val {
			walkSecrets(path+"["+strconv.Itoa(i)+"]", "", item, report)
		}
	case string:
		if val == "" || core.IsSecretReference(val) {
			return
		}
		if (key != "" && core.IsSecretKey(key)) || core.LooksLikeCredential(val) {
			report(path, val)
		}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		// YAML decodes numeric pins and passwords as numbers.
		if key != "" && core.IsSecretKey(key) {
			report(path, fmt.Sprint(val))
		}
	}
}

func declaredScopes(cfg map[string]any) []string {
	switch v := cfg[ScopesKey].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (l *Linter) scopeIssue(node *graph.Node) (analysis.Issue, bool) {
	declared := declaredScopes(node.Config)
	if len(declared) == 0 || l.registry == nil {
		return analysis.Issue{}, false
	}
	nt, ok := l.registry.NodeType(node.Type)
	if !ok {
		return analysis.Issue{}, false
	}
	excess := nt.ExcessScopes(declared)
	if len(excess) == 0 {
		return analysis.Issue{}, false
	}
	return analysis.Issue{
		Severity:       analysis.SeverityWarning,
		Category:       analysis.CategorySecurity,
		Message:        fmt.Sprintf("node %q declares scopes %v beyond what %s requires", node.ID, excess, node.Type),
		Location:       node.ID,
		Recommendation: "drop the scopes this node does not need",
		Metadata:       map[string]any{"excess_scopes": excess, "required_scopes": nt.RequiredScopes},
	}, true
}
