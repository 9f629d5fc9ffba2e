// Package cli wires configuration, storage and the HTTP server into cobra
// commands.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"secretsanta/internal/config"
	"secretsanta/internal/logger"
)

type app struct {
	configPath string
	logLevel   string

	cfg config.Config
	log *slog.Logger
}

// Execute runs the command line with os.Args. The server stops when ctx is
// cancelled.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds the command tree. Running it without a subcommand serves
// HTTP.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "secretsanta",
		Short:        "Secret Santa draws without self-gifts or mutual pairs",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "TOML config file (defaults to $CONFIG_FILE)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(a.newServeCmd())
	root.AddCommand(a.newMigrateCmd())
	root.AddCommand(a.newDrawCmd())

	return root
}

func (a *app) load(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.log = logger.NewWithOptions(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	return nil
}
