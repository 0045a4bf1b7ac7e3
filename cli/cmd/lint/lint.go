package lint

import (
	"context"
	"fmt"

	"github.com/compozy/flowlint/cli/cmd"
	"github.com/compozy/flowlint/cli/helpers"
	"github.com/compozy/flowlint/engine/analysis"
	"github.com/compozy/flowlint/pkg/logger"
	"github.com/spf13/cobra"
)

// NewLintCommand creates the lint command
func NewLintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <workflow>",
		Short: "Report issues in a workflow definition",
		Long: `Run every analysis stage over a workflow definition and print the issues found.
The command exits non-zero when an issue reaches the lint.fail_on severity.`,
		Args: cobra.ExactArgs(1),
		RunE: executeLintCommand,
	}
}

func executeLintCommand(cobraCmd *cobra.Command, args []string) error {
	return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{RequireLinter: true}, handleLint, args)
}

func handleLint(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, args []string) error {
	threshold, err := analysis.ParseSeverity(executor.Config().Lint.FailOn)
	if err != nil {
		return helpers.NewCliError("INVALID_CONFIG", "invalid lint.fail_on", err.Error())
	}
	def, err := executor.LoadDefinition(args[0])
	if err != nil {
		return err
	}
	result, err := executor.Linter().Lint(ctx, def)
	if err != nil {
		return fmt.Errorf("lint failed: %w", err)
	}
	logger.FromContext(ctx).Debug("Lint completed", "workflow_id", def.ID, "issues", len(result.Issues))
	if err := executor.Output(cobraCmd, helpers.ResultView{Result: result}); err != nil {
		return err
	}
	failing := len(result.Filter(func(i analysis.Issue) bool {
		return i.Severity.Rank() >= threshold.Rank()
	}))
	if failing > 0 {
		return &helpers.FindingsError{Count: failing, Threshold: string(threshold)}
	}
	return nil
}
