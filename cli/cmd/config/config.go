package config

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/compozy/flowlint/cli/cmd"
	"github.com/compozy/flowlint/cli/helpers"
	pkgconfig "github.com/compozy/flowlint/pkg/config"
	"github.com/compozy/flowlint/pkg/logger"
	"github.com/spf13/cobra"
)

// NewConfigCommand creates the config command using the unified command pattern
func NewConfigCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "config",
		Short: "Configuration management and diagnostics",
		Long:  `Inspect and validate the effective flowlint configuration.`,
	}
	command.AddCommand(
		NewConfigShowCommand(),
		NewConfigValidateCommand(),
	)
	return command
}

// NewConfigShowCommand creates the config show subcommand
func NewConfigShowCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration values",
		Long: `Display the effective configuration after defaults, the config file,
environment variables and flags are applied. Sensitive values are redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, handleConfigShow, args)
		},
	}
	command.Flags().Bool("sources", false, "Show which source provided each value")
	return command
}

// NewConfigValidateCommand creates the config validate subcommand
func NewConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(cobraCmd, cmd.ExecutorOptions{}, handleConfigValidate, args)
		},
	}
}

// sourceEntry is one flattened configuration key with the source that set it
type sourceEntry struct {
	Key    string               `json:"key"`
	Value  string               `json:"value"`
	Source pkgconfig.SourceType `json:"source"`
}

type sourcesView []sourceEntry

func (v sourcesView) RenderText(styles *helpers.Styles) string {
	var b strings.Builder
	b.WriteString(styles.Title.Render("configuration sources"))
	for _, e := range v {
		fmt.Fprintf(&b, "\n  %-34s %-28s %s", e.Key, e.Value, styles.Muted.Render(string(e.Source)))
	}
	return b.String()
}

func serviceFromContext(ctx context.Context) pkgconfig.Service {
	if svc, ok := ctx.Value(helpers.ConfigServiceKey).(pkgconfig.Service); ok {
		return svc
	}
	return nil
}

func handleConfigShow(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	log := logger.FromContext(ctx)
	log.Debug("executing config show command")
	showSources, err := cobraCmd.Flags().GetBool("sources")
	if err != nil {
		return fmt.Errorf("failed to get sources flag: %w", err)
	}
	cfg := executor.Config()
	if !showSources {
		return executor.Output(cobraCmd, cfg)
	}
	entries, err := collectSources(cfg, serviceFromContext(ctx))
	if err != nil {
		return err
	}
	return executor.Output(cobraCmd, entries)
}

// collectSources flattens cfg through its JSON form, so sensitive values stay redacted
func collectSources(cfg *pkgconfig.Config, svc pkgconfig.Service) (sourcesView, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	flat := make(map[string]string)
	flatten("", tree, flat)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make(sourcesView, 0, len(keys))
	for _, k := range keys {
		source := pkgconfig.SourceDefault
		if svc != nil {
			if s := svc.GetSource(k); s != "" {
				source = s
			}
		}
		entries = append(entries, sourceEntry{Key: k, Value: flat[k], Source: source})
	}
	return entries, nil
}

func flatten(prefix string, m map[string]any, out map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = fmt.Sprint(v)
	}
}

type validationView struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

func (v validationView) RenderText(styles *helpers.Styles) string {
	return styles.Success.Render(v.Message)
}

func handleConfigValidate(ctx context.Context, cobraCmd *cobra.Command, executor *cmd.CommandExecutor, _ []string) error {
	svc := serviceFromContext(ctx)
	if svc == nil {
		svc = pkgconfig.NewService()
	}
	if err := svc.Validate(executor.Config()); err != nil {
		return helpers.NewCliError("INVALID_CONFIG", "configuration validation failed", err.Error())
	}
	return executor.Output(cobraCmd, validationView{Valid: true, Message: "Configuration is valid"})
}
