package optimize

import (
	"context"
	"fmt"

	"github.com/compozy/flowlint/cli/cmd"
	"github.com/compozy/flowlint/cli/helpers"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/pkg/logger"
	"github.com/spf13/cobra"
)

// NewOptimizeCommand creates the optimize command
func NewOptimizeCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "optimize <workflow>",
		Short: "Rewrite a workflow into an equivalent, cheaper graph",
		Long: `Apply dead-code elimination, parallelization, node merging and model selection.
The optimized definition is written to --output when given.`,
		Args: cobra.ExactArgs(1),
		RunE: executeOptimizeCommand,
	}
	command.Flags().StringP("output", "o", "", "Write the optimized workflow to this file")
	return command
}

func executeOptimizeCommand(cobraCmd *cobra.Command, args []string) error {
	return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{RequireLinter: true}, handleOptimize, args)
}

func handleOptimize(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, args []string) error {
	output, err := cobraCmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	def, err := executor.LoadDefinition(args[0])
	if err != nil {
		return err
	}
	result, err := executor.Linter().Optimize(ctx, def)
	if err != nil {
		return fmt.Errorf("optimize failed: %w", err)
	}
	if output != "" {
		data, err := graph.Marshal(result.Optimized)
		if err != nil {
			return fmt.Errorf("failed to encode optimized workflow: %w", err)
		}
		if err := helpers.WriteFile(output, data); err != nil {
			return err
		}
		logger.FromContext(ctx).Debug("Optimized workflow written", "path", output)
	}
	return executor.Output(cobraCmd, helpers.OptimizationView{
		OptimizationResult: result,
		WorkflowID:         def.ID,
		Output:             output,
	})
}
