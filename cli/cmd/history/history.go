package history

import (
	"context"
	"fmt"

	"github.com/compozy/flowlint/cli/cmd"
	"github.com/compozy/flowlint/cli/helpers"
	enginehistory "github.com/compozy/flowlint/engine/history"
	"github.com/compozy/flowlint/engine/infra/postgres"
	"github.com/compozy/flowlint/pkg/logger"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command group
func NewHistoryCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "history",
		Short: "Manage the execution-history store",
		Long:  `Prepare and populate the store that provides node execution statistics.`,
	}
	command.AddCommand(
		NewMigrateCommand(),
		NewImportCommand(),
	)
	return command
}

// NewMigrateCommand creates the history migrate subcommand
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the Postgres history schema",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, handleMigrate, args)
		},
	}
}

// NewImportCommand creates the history import subcommand
func NewImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <stats-file>",
		Short: "Load execution statistics from a YAML or JSON file into the history store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, handleImport, args)
		},
	}
}

type importSummary struct {
	Driver    string `json:"driver"`
	Workflows int    `json:"workflows"`
	Nodes     int    `json:"nodes"`
}

func (s importSummary) RenderText(styles *helpers.Styles) string {
	return styles.Success.Render(fmt.Sprintf("imported %d %s (%d %s) into %s",
		s.Workflows, helpers.Pluralize(s.Workflows, "workflow", "workflows"),
		s.Nodes, helpers.Pluralize(s.Nodes, "node", "nodes"), s.Driver))
}

type migrateSummary struct {
	Driver string `json:"driver"`
	Status string `json:"status"`
}

func (s migrateSummary) RenderText(styles *helpers.Styles) string {
	return styles.Success.Render(fmt.Sprintf("%s history schema is up to date", s.Driver))
}

func handleMigrate(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	cfg := executor.Config().History
	if cfg.Driver != enginehistory.DriverPostgres {
		return helpers.NewCliError("UNSUPPORTED_DRIVER",
			fmt.Sprintf("history driver %q has no schema to migrate", cfg.Driver),
			"set history.driver to postgres")
	}
	if err := postgres.ApplyMigrations(ctx, cfg.DSN.Value()); err != nil {
		return fmt.Errorf("failed to migrate history store: %w", err)
	}
	logger.FromContext(ctx).Info("History schema migrated", "table", cfg.Table)
	return executor.Output(cobraCmd, migrateSummary{Driver: cfg.Driver, Status: "up_to_date"})
}

func handleImport(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, args []string) error {
	data, err := helpers.ReadInput(args[0])
	if err != nil {
		return err
	}
	all, err := enginehistory.ParseStats(data)
	if err != nil {
		return helpers.NewCliError("INVALID_STATS", fmt.Sprintf("failed to parse %s", args[0]), err.Error())
	}
	cfg := executor.Config().History
	handle, err := enginehistory.Open(ctx, &cfg)
	if err != nil {
		return fmt.Errorf("failed to open execution history: %w", err)
	}
	defer func() {
		if closeErr := handle.Close(); closeErr != nil {
			logger.FromContext(ctx).Warn("Failed to close history store", "error", closeErr)
		}
	}()
	writer, ok := handle.Store.(enginehistory.Writer)
	if !ok {
		return enginehistory.ErrReadOnly
	}
	summary := importSummary{Driver: cfg.Driver}
	for _, stats := range all {
		if err := writer.SaveStats(ctx, stats); err != nil {
			return fmt.Errorf("failed to import workflow %q: %w", stats.WorkflowID, err)
		}
		summary.Workflows++
		summary.Nodes += len(stats.Nodes)
	}
	return executor.Output(cobraCmd, summary)
}
