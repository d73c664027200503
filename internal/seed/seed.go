// Package seed installs the bundled rate cards so a fresh database can price immediately.
package seed

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Simplici0/signworks/internal/pricing"
	"github.com/Simplici0/signworks/internal/quote"
)

//go:embed ratecards/*.yaml
var bundled embed.FS

// Writer is the part of a store the seed needs.
type Writer interface {
	UpsertPricingSet(ctx context.Context, card pricing.RateCard) (quote.WriteResult, error)
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run installs every bundled rate card. It is idempotent: a card whose content is already
// stored is left alone, and a card whose content changed is updated in place.
func Run(ctx context.Context, w Writer) (Stats, error) {
	cards, err := Bundled()
	if err != nil {
		return Stats{}, err
	}
	return Install(ctx, w, cards...)
}

// Install upserts cards into w.
func Install(ctx context.Context, w Writer, cards ...pricing.RateCard) (Stats, error) {
	stats := Stats{}
	for _, card := range cards {
		res, err := w.UpsertPricingSet(ctx, card)
		if err != nil {
			return stats, fmt.Errorf("upsert pricing set %s: %w", card.PricingSetID, err)
		}
		switch res {
		case quote.Inserted:
			stats.Inserts++
		case quote.Updated:
			stats.Updates++
		}
	}
	return stats, nil
}

// Bundled parses the rate cards compiled into the binary, ordered by pricing set id.
func Bundled() ([]pricing.RateCard, error) {
	names, err := fs.Glob(bundled, "ratecards/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list bundled rate cards: %w", err)
	}
	sort.Strings(names)

	cards := make([]pricing.RateCard, 0, len(names))
	for _, name := range names {
		data, err := bundled.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		card, err := ParseRateCard(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(name), err)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// ParseRateCard decodes a YAML rate card and checks it can be priced against. Unknown
// keys are rejected so typos do not silently drop prices.
func ParseRateCard(data []byte) (pricing.RateCard, error) {
	var card pricing.RateCard
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&card); err != nil {
		return pricing.RateCard{}, fmt.Errorf("decode rate card: %w", err)
	}
	if err := card.Check(); err != nil {
		return pricing.RateCard{}, err
	}
	return card, nil
}
