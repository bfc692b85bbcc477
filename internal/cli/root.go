package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"ContentCurator/internal/app"
	"ContentCurator/internal/config"
	"ContentCurator/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the curator CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "curator",
		Short: "Content aggregation and curation pipeline",
		Long: `curator ingests news, forum posts and regulator notices, deduplicates and scores
them, and serves the items curators approved.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config (defaults to $CONTENT_CURATOR_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level override (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewRefreshCommand(opts))
	cmd.AddCommand(NewModerationCommand(opts, "approve"))
	cmd.AddCommand(NewModerationCommand(opts, "reject"))
	cmd.AddCommand(NewDeactivateCommand(opts))
	cmd.AddCommand(NewPriorityCommand(opts))
	cmd.AddCommand(NewFeatureCommand(opts))
	cmd.AddCommand(NewPendingCommand(opts))
	cmd.AddCommand(NewApprovedCommand(opts))
	cmd.AddCommand(NewLatestCommand(opts))
	cmd.AddCommand(NewPicksCommand(opts))
	cmd.AddCommand(NewBannerCommand(opts))

	return cmd
}

// withApp loads config, builds the application for the duration of fn and closes it.
func (o *RootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.Application) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.Load(o.ConfigPath)
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	logger := logging.NewWithFormat(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize", err)
	}
	defer func() {
		if closeErr := application.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	return fn(ctx, application)
}
