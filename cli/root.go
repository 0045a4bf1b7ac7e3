package cli

import (
	"context"
	"fmt"

	"github.com/compozy/flowlint/cli/cmd/config"
	"github.com/compozy/flowlint/cli/cmd/history"
	"github.com/compozy/flowlint/cli/cmd/lint"
	"github.com/compozy/flowlint/cli/cmd/optimize"
	"github.com/compozy/flowlint/cli/cmd/suggest"
	"github.com/compozy/flowlint/cli/cmd/version"
	"github.com/compozy/flowlint/cli/helpers"
	pkgconfig "github.com/compozy/flowlint/pkg/config"
	"github.com/compozy/flowlint/pkg/logger"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "flowlint.yaml"

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "flowlint",
		Short:         "Lint, analyze and optimize workflow graphs",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupCommand(cmd)
		},
	}
	addGlobalFlags(root)
	root.AddCommand(
		lint.NewLintCommand(),
		suggest.NewSuggestCommand(),
		optimize.NewOptimizeCommand(),
		config.NewConfigCommand(),
		history.NewHistoryCommand(),
		version.NewVersionCommand(),
	)
	return root
}

func addGlobalFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.String("config", defaultConfigFile, "Path to the config file")
	flags.String("env-file", "", "Load environment variables from this file")
	flags.StringP("format", "f", string(helpers.OutputFormatText), "Output format (text, json, yaml)")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error, disabled)")
	flags.Bool("log-json", false, "Emit logs as JSON")
	flags.Bool("log-source", false, "Include source locations in logs")
	flags.String("start-node-type", "", "Node type traversal starts from")
	flags.String("fail-on", "", "Lowest severity that makes lint exit non-zero")
	flags.Duration("stage-timeout", 0, "Timeout for each external analysis stage")
	flags.String("node-types", "", "YAML file with additional node types")
	flags.Int("min-chain-length", 0, "Shortest sequential chain worth reporting")
	flags.Duration("slow-threshold", 0, "Average duration above which a node counts as slow")
	flags.String("history-driver", "", "Execution history driver (memory, postgres, redis)")
	flags.String("history-file", "", "Stats file seeding the memory history driver")
	flags.String("history-dsn", "", "Postgres connection string for the history store")
	flags.String("redis-addr", "", "Redis address for the history store")
	flags.Bool("allow-downgrade", false, "Let optimize switch every node to a cheaper model")
	flags.Bool("metrics", false, "Print collected metrics to stderr after the command")
}

// setupCommand loads configuration with flag > env > file > default precedence
// and installs the logger and config on the command context.
func setupCommand(cmd *cobra.Command) error {
	if _, err := loadEnvFile(cmd); err != nil {
		return err
	}
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	flags := make(map[string]any)
	extractCLIFlags(cmd, flags)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc := pkgconfig.NewService()
	cfg, err := svc.Load(ctx, pkgconfig.NewYAMLProvider(configFile), pkgconfig.NewCLIProvider(flags))
	if err != nil {
		return helpers.NewCliError("INVALID_CONFIG", "failed to load configuration", err.Error())
	}
	log := logger.SetupLogger(cfg.Runtime.LogLevel, cfg.Runtime.LogJSON, cfg.Runtime.LogSource)
	ctx = logger.ContextWithLogger(ctx, log)
	ctx = pkgconfig.ContextWithConfig(ctx, cfg)
	ctx = context.WithValue(ctx, helpers.ConfigServiceKey, svc)
	cmd.SetContext(ctx)
	log.Debug("Configuration loaded", "config_file", configFile)
	return nil
}
