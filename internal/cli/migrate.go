package cli

import (
	"github.com/spf13/cobra"

	"secretsanta/migrations"
)

func (a *app) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := migrations.Run(ctx, a.cfg.DatabaseURL); err != nil {
				return err
			}
			v, err := migrations.Version(ctx, a.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			a.log.Info("migrations applied", "version", v)
			return nil
		},
	}
}
