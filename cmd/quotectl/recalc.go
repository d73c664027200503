package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Simplici0/signworks/internal/backend"
	"github.com/Simplici0/signworks/internal/pricing"
	"github.com/Simplici0/signworks/internal/quote"
)

var errInvalidInput = errors.New("input failed validation")

func newRecalcCmd(a *app) *cobra.Command {
	var pricingSet string

	cmd := &cobra.Command{
		Use:   "recalc <input.json|->",
		Short: "Price a panel_letters_v1 input without saving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if pricingSet == "" {
				pricingSet = a.cfg.DefaultPricingSet
			}

			return a.withBackend(cmd.Context(), func(b *backend.Backend) error {
				svc := quote.NewService(b.Store, a.logger)
				out, err := svc.Recalculate(cmd.Context(), pricingSet, in)
				if err != nil {
					return err
				}

				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(out); err != nil {
					return fmt.Errorf("encode output: %w", err)
				}
				if !out.OK {
					return errInvalidInput
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&pricingSet, "pricing-set", "", "pricing set id (default DEFAULT_PRICING_SET)")
	return cmd
}

func readInput(stdin io.Reader, path string) (pricing.Input, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return pricing.Input{}, fmt.Errorf("read input: %w", err)
	}

	var in pricing.Input
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return pricing.Input{}, fmt.Errorf("decode input: %w", err)
	}
	return in, nil
}
