package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Simplici0/signworks/internal/backend"
	"github.com/Simplici0/signworks/internal/quote"
	"github.com/Simplici0/signworks/internal/seed"
)

func newRateCardCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratecard",
		Short: "Inspect and import rate cards",
	}

	var format string
	show := &cobra.Command{
		Use:   "show <pricing-set-id>",
		Short: "Print a stored rate card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBackend(cmd.Context(), func(b *backend.Backend) error {
				set, err := b.Store.GetPricingSet(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				switch format {
				case "yaml":
					enc := yaml.NewEncoder(a.out)
					enc.SetIndent(2)
					if err := enc.Encode(set.Card); err != nil {
						return fmt.Errorf("encode rate card: %w", err)
					}
					return enc.Close()
				case "json":
					enc := json.NewEncoder(a.out)
					enc.SetIndent("", "  ")
					return enc.Encode(set.Card)
				default:
					return fmt.Errorf("unknown format %q (want json or yaml)", format)
				}
			})
		},
	}
	show.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")

	importCmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Validate a YAML rate card and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read rate card: %w", err)
			}
			card, err := seed.ParseRateCard(data)
			if err != nil {
				return err
			}

			return a.withBackend(cmd.Context(), func(b *backend.Backend) error {
				res, err := b.Store.UpsertPricingSet(cmd.Context(), card)
				if err != nil {
					return err
				}
				if res == quote.Updated {
					a.logger.Warn("pricing set content replaced; existing quote items keep their stored prices",
						zap.String("pricing_set_id", card.PricingSetID))
				}
				fmt.Fprintf(a.out, "%s v%d: %s\n", card.PricingSetID, card.Version, res)
				return nil
			})
		},
	}

	cmd.AddCommand(show, importCmd)
	return cmd
}
