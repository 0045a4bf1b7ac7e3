package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/compozy/flowlint/cli/helpers"
	"github.com/compozy/flowlint/engine/cost"
	"github.com/compozy/flowlint/engine/graph"
	"github.com/compozy/flowlint/engine/history"
	"github.com/compozy/flowlint/engine/infra/monitoring"
	"github.com/compozy/flowlint/engine/lint"
	"github.com/compozy/flowlint/engine/rules"
	"github.com/compozy/flowlint/engine/schema"
	"github.com/compozy/flowlint/pkg/config"
	"github.com/compozy/flowlint/pkg/logger"
	"github.com/spf13/cobra"
)

// CommandExecutor handles common setup and execution patterns for CLI commands.
// It owns the output format and, when requested, the linter together with the
// resources it depends on.
type CommandExecutor struct {
	config     *config.Config
	format     helpers.OutputFormat
	registry   *schema.MemoryRegistry
	linter     *lint.Linter
	history    *history.Handle
	monitoring *monitoring.Service
}

// HandlerFunc defines the signature for command handlers.
type HandlerFunc func(ctx context.Context, cmd *cobra.Command, executor *CommandExecutor, args []string) error

// ExecutorOptions allows customization of the command executor
type ExecutorOptions struct {
	RequireLinter bool
}

// NewCommandExecutor reads the output format and builds the linter when required.
func NewCommandExecutor(cmd *cobra.Command, opts ExecutorOptions) (*CommandExecutor, error) {
	ctx := cmd.Context()
	format, err := outputFormat(cmd)
	if err != nil {
		return nil, err
	}
	executor := &CommandExecutor{
		config: config.FromContext(ctx),
		format: format,
	}
	if opts.RequireLinter {
		if err := executor.buildLinter(ctx); err != nil {
			_ = executor.Close(ctx)
			return nil, err
		}
	}
	return executor, nil
}

func outputFormat(cmd *cobra.Command) (helpers.OutputFormat, error) {
	value, err := cmd.Flags().GetString("format")
	if err != nil {
		return helpers.OutputFormatText, nil
	}
	return helpers.ParseOutputFormat(value)
}

func (e *CommandExecutor) buildLinter(ctx context.Context) error {
	log := logger.FromContext(ctx)
	cfg := e.config
	registry, err := loadRegistry(cfg.Lint.NodeTypesFile)
	if err != nil {
		return err
	}
	e.registry = registry
	engine, err := rules.FromConfig(registry, cfg.Lint.Rules)
	if err != nil {
		return helpers.NewCliError("INVALID_RULES", "failed to compile lint rules", err.Error())
	}
	handle, err := history.Open(ctx, &cfg.History)
	if err != nil {
		return fmt.Errorf("failed to open execution history: %w", err)
	}
	e.history = handle
	service, err := monitoring.NewMonitoringService(ctx, &monitoring.Config{
		Enabled: cfg.Monitoring.Enabled,
		Scope:   "flowlint",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize monitoring: %w", err)
	}
	e.monitoring = service
	e.linter = lint.New(registry,
		lint.WithConfig(cfg),
		lint.WithRuleEngine(engine),
		lint.WithCostEstimator(cost.New(registry, cost.WithAllowDowngrade(cfg.Cost.AllowDowngrade))),
		lint.WithHistoryStore(handle.Store),
		lint.WithMeter(service.Meter()),
	)
	log.Debug("Linter ready", "node_types", len(registry.Names()), "rules", len(engine.Rules()))
	return nil
}

func loadRegistry(path string) (*schema.MemoryRegistry, error) {
	if path == "" {
		return schema.DefaultRegistry()
	}
	registry, err := schema.LoadRegistry(path)
	if err != nil {
		return nil, helpers.NewCliError("INVALID_NODE_TYPES", "failed to load node types", err.Error())
	}
	return registry, nil
}

// Config returns the configuration the command runs with.
func (e *CommandExecutor) Config() *config.Config {
	return e.config
}

// Linter returns the linter built for commands created with RequireLinter.
func (e *CommandExecutor) Linter() *lint.Linter {
	return e.linter
}

// Format returns the selected output format.
func (e *CommandExecutor) Format() helpers.OutputFormat {
	return e.format
}

// Output writes data to the command's stdout in the selected format.
func (e *CommandExecutor) Output(cmd *cobra.Command, data any) error {
	return helpers.NewOutputWriter(cmd.OutOrStdout(), e.format).WriteData(data)
}

// LoadDefinition reads a workflow from path, or stdin for "-".
func (e *CommandExecutor) LoadDefinition(path string) (*graph.Definition, error) {
	data, err := helpers.ReadInput(path)
	if err != nil {
		return nil, err
	}
	def, err := graph.Parse(data)
	if err != nil {
		return nil, helpers.NewCliError("INVALID_WORKFLOW", fmt.Sprintf("failed to parse %s", path), err.Error()).WithCause(err)
	}
	return def, nil
}

// emitMetrics prints the collected samples to stderr when monitoring is enabled.
func (e *CommandExecutor) emitMetrics(ctx context.Context, cmd *cobra.Command) error {
	if e.monitoring == nil || !e.monitoring.IsInitialized() {
		return nil
	}
	samples, err := e.monitoring.Collect(ctx)
	if err != nil {
		return err
	}
	return helpers.NewOutputWriter(cmd.ErrOrStderr(), e.format).WriteData(helpers.SamplesView(samples))
}

// Close releases the history store and the meter provider.
func (e *CommandExecutor) Close(ctx context.Context) error {
	var errs []error
	if e.history != nil {
		errs = append(errs, e.history.Close())
	}
	if e.monitoring != nil {
		errs = append(errs, e.monitoring.Shutdown(context.WithoutCancel(ctx)))
	}
	return errors.Join(errs...)
}

// Execute runs the handler with a cancelable context and emits metrics afterwards.
func (e *CommandExecutor) Execute(ctx context.Context, cmd *cobra.Command, handler HandlerFunc, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	err := handler(ctx, cmd, e, args)
	if metricsErr := e.emitMetrics(ctx, cmd); metricsErr != nil {
		logger.FromContext(ctx).Warn("Failed to collect metrics", "error", metricsErr)
	}
	return err
}

// ExecuteCommand is a convenience function that combines executor creation and execution.
func ExecuteCommand(cmd *cobra.Command, opts ExecutorOptions, handler HandlerFunc, args []string) error {
	ctx := cmd.Context()
	executor, err := NewCommandExecutor(cmd, opts)
	if err != nil {
		return HandleCommonErrors(cmd, err, helpers.OutputFormatText)
	}
	defer func() {
		if closeErr := executor.Close(ctx); closeErr != nil {
			logger.FromContext(ctx).Warn("Failed to release resources", "error", closeErr)
		}
	}()
	return HandleCommonErrors(cmd, executor.Execute(ctx, cmd, handler, args), executor.Format())
}

// HandleCommonErrors provides consistent error handling across all commands.
func HandleCommonErrors(cmd *cobra.Command, err error, format helpers.OutputFormat) error {
	if err == nil {
		return nil
	}
	cliErr := categorizeError(err)
	if cliErr != nil {
		helpers.OutputError(cmd.ErrOrStderr(), cliErr, format)
		return cliErr
	}
	helpers.OutputError(cmd.ErrOrStderr(), err, format)
	return err
}

// categorizeError converts errors to structured CLI errors
func categorizeError(err error) *helpers.CliError {
	var cliErr *helpers.CliError
	switch {
	case errors.As(err, &cliErr):
		return cliErr
	case errors.Is(err, helpers.ErrFindings):
		return helpers.NewCliError("LINT_FAILED", err.Error()).WithCause(err)
	case errors.Is(err, context.Canceled):
		return helpers.NewCliError("OPERATION_CANCELED", "Operation was canceled by user")
	case helpers.IsTimeoutError(err):
		return helpers.NewCliError("OPERATION_TIMEOUT", "Operation timed out", err.Error())
	case errors.Is(err, graph.ErrInvalidDefinition):
		return helpers.NewCliError("INVALID_WORKFLOW", "Workflow definition is invalid", err.Error()).WithCause(err)
	case errors.Is(err, history.ErrReadOnly):
		return helpers.NewCliError("HISTORY_READ_ONLY", "The configured history store does not accept writes")
	default:
		return nil
	}
}
