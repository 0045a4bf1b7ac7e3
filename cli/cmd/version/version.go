package version

import (
	"context"

	"github.com/compozy/flowlint/cli/cmd"
	"github.com/compozy/flowlint/cli/helpers"
	pkgversion "github.com/compozy/flowlint/pkg/version"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, handleVersion, args)
		},
	}
}

type infoView struct {
	pkgversion.Info
}

func (v infoView) RenderText(_ *helpers.Styles) string {
	return v.String()
}

func handleVersion(_ context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	return executor.Output(cobraCmd, infoView{Info: pkgversion.Get()})
}
