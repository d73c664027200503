package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/signworks/internal/backend"
	"github.com/Simplici0/signworks/internal/seed"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations (or create DynamoDB tables)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd.Context(), func(b *backend.Backend) error {
				applied, err := b.Migrate(cmd.Context())
				if err != nil {
					return err
				}
				a.logger.Debug("migrate finished", zap.String("backend", b.Kind), zap.Int("applied", applied))
				fmt.Fprintf(a.out, "%s: %d migration(s) applied\n", b.Kind, applied)
				return nil
			})
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the bundled rate cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd.Context(), func(b *backend.Backend) error {
				stats, err := seed.Run(cmd.Context(), b.Store)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "seeded: %d inserted, %d updated\n", stats.Inserts, stats.Updates)
				return nil
			})
		},
	}
}
