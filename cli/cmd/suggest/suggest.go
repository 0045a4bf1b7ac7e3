package suggest

import (
	"context"
	"fmt"

	"github.com/compozy/flowlint/cli/cmd"
	"github.com/compozy/flowlint/cli/helpers"
	"github.com/spf13/cobra"
)

// NewSuggestCommand creates the suggest command
func NewSuggestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <workflow>",
		Short: "List advisory improvements for a workflow",
		Long:  `Collect cost, performance and structural suggestions. Nothing is changed.`,
		Args:  cobra.ExactArgs(1),
		RunE:  executeSuggestCommand,
	}
}

func executeSuggestCommand(cobraCmd *cobra.Command, args []string) error {
	return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{RequireLinter: true}, handleSuggest, args)
}

func handleSuggest(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, args []string) error {
	def, err := executor.LoadDefinition(args[0])
	if err != nil {
		return err
	}
	set, err := executor.Linter().Suggest(ctx, def)
	if err != nil {
		return fmt.Errorf("suggest failed: %w", err)
	}
	return executor.Output(cobraCmd, helpers.SuggestionView{SuggestionSet: set})
}
