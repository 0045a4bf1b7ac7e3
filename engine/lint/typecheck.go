package lint

import (
	"context"
	"fmt"

	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/engine/schema"
)

// checkTypes reports one TYPE_MISMATCH per edge whose source output type
// cannot feed the target input type. Unknown types and ports count as ANY.
func (l *Linter) checkTypes(ctx context.Context, def *graph.Definition) ([]analysis.Issue, error) {
	if l.registry == nil {
		return nil, nil
	}
	types := make(map[string]string, len(def.Nodes))
	for i := range def.Nodes {
		types[def.Nodes[i].ID] = def.Nodes[i].Type
	}
	var issues []analysis.Issue
	for _, e := range def.Edges {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		srcType, dstType := types[e.SourceNodeID], types[e.TargetNodeID]
		out := orAny(l.registry.OutputType(srcType, e.SourcePort))
		in := orAny(l.registry.InputType(dstType, e.TargetPort))
		if l.registry.IsCompatible(out, in) {
			continue
		}
		issues = append(issues, analysis.Issue{
			Severity: analysis.SeverityError,
			Category: analysis.CategoryTypeMismatch,
			Message: fmt.Sprintf(
				"%s output %q emits %s but %s input %q expects %s",
				e.SourceNodeID, e.SourcePort, out, e.TargetNodeID, e.TargetPort, in,
			),
			Location:       e.Location(),
			Recommendation: "insert a conversion node or connect compatible ports",
			Metadata: map[string]any{
				"source_type": string(out),
				"target_type": string(in),
				"source_port": e.SourcePort,
				"target_port": e.TargetPort,
			},
		})
	}
	return issues, nil
}

func orAny(dt schema.DataType) schema.DataType {
	if dt == "" {
		return schema.TypeAny
	}
	return dt
}
