package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/signworks/internal/backend"
	"github.com/Simplici0/signworks/internal/config"
	"github.com/Simplici0/signworks/internal/logging"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	out     io.Writer
	verbose bool
	cfg     config.Config
	logger  *zap.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "quotectl",
		Short: "Administer sign quotes and rate cards",
		Long: `quotectl manages the quote store used by the pricing server.

Examples:
  quotectl migrate
  quotectl seed
  quotectl ratecard show standard-v1
  quotectl ratecard import ./ratecards/summer.yaml
  quotectl recalc --pricing-set standard-v1 ./item.json`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = config.Load()
			level := a.cfg.LogLevel
			if a.verbose {
				level = "debug"
			}
			a.logger = logging.Must(logging.Config{Level: level, Format: "console", Output: "stderr"})
			return a.cfg.Validate()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newMigrateCmd(a),
		newSeedCmd(a),
		newRateCardCmd(a),
		newRecalcCmd(a),
	)
	return root
}

// withBackend opens the configured store for the duration of fn.
func (a *app) withBackend(ctx context.Context, fn func(*backend.Backend) error) error {
	b, err := backend.Open(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b)
}
