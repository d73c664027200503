package pricing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// LetterType identifies a letter construction method.
type LetterType string

const (
	LetterFabricated LetterType = "Fabricated"
	LetterKomacel    LetterType = "Komacel"
	LetterAcrylic    LetterType = "Acrylic"
)

// LetterTypes lists the supported letter types in display order.
var LetterTypes = []LetterType{LetterFabricated, LetterKomacel, LetterAcrylic}

// LabourTask identifies one of the five labour categories.
type LabourTask string

const (
	TaskRouter      LabourTask = "router"
	TaskFabrication LabourTask = "fabrication"
	TaskAssembly    LabourTask = "assembly"
	TaskVinyl       LabourTask = "vinyl"
	TaskPrint       LabourTask = "print"
)

// LabourTasks lists the labour categories in breakdown order.
var LabourTasks = []LabourTask{TaskRouter, TaskFabrication, TaskAssembly, TaskVinyl, TaskPrint}

// HeightBracket prices letters up to and including MaxHeightMM.
type HeightBracket struct {
	MaxHeightMM float64 `json:"max_height_mm" yaml:"max_height_mm"`
	CostPence   int64   `json:"cost_pence" yaml:"cost_pence"`
}

// DensityBracket sets the LED density for letters up to and including MaxHeightMM.
type DensityBracket struct {
	MaxHeightMM  float64 `json:"max_height_mm" yaml:"max_height_mm"`
	LEDsPerMetre float64 `json:"leds_per_metre" yaml:"leds_per_metre"`
}

// TransformerSpec is the cost and rated output of one transformer.
type TransformerSpec struct {
	CostPence     int64   `json:"cost_pence" yaml:"cost_pence"`
	CapacityWatts float64 `json:"capacity_watts" yaml:"capacity_watts"`
}

// RateCard is a versioned price catalog. It is read-only once loaded; the engine never
// writes to it.
type RateCard struct {
	PricingSetID    string                         `json:"pricing_set_id" yaml:"pricing_set_id"`
	Version         int                            `json:"version" yaml:"version"`
	Currency        string                         `json:"currency" yaml:"currency"`
	PanelPrices     map[string]map[string]int64    `json:"panel_prices" yaml:"panel_prices"`
	FinishCostPerM2 map[string]int64               `json:"finish_cost_per_m2" yaml:"finish_cost_per_m2"`
	OpalCostPerM2   map[string]int64               `json:"opal_cost_per_m2" yaml:"opal_cost_per_m2"`
	LetterBaseCosts map[LetterType][]HeightBracket `json:"letter_base_costs" yaml:"letter_base_costs"`
	FinishRules     map[LetterType][]string        `json:"finish_rules" yaml:"finish_rules"`
	LEDCostPence    int64                          `json:"led_cost_pence" yaml:"led_cost_pence"`
	LEDWatts        float64                        `json:"led_watts" yaml:"led_watts"`
	LEDDensity      []DensityBracket               `json:"led_density" yaml:"led_density"`
	Transformers    map[string]TransformerSpec     `json:"transformers" yaml:"transformers"`
	LabourRates     map[LabourTask]int64           `json:"labour_rates" yaml:"labour_rates"`
}

// PanelUnitPrice returns the price of one sheet of material at the given size.
func (rc RateCard) PanelUnitPrice(material, size string) (int64, bool) {
	sizes, ok := rc.PanelPrices[material]
	if !ok {
		return 0, false
	}
	price, ok := sizes[size]
	return price, ok
}

// LetterBaseCost returns the per-letter cost for the bracket covering heightMM.
func (rc RateCard) LetterBaseCost(t LetterType, heightMM float64) (int64, bool) {
	for _, b := range rc.LetterBaseCosts[t] {
		if heightMM <= b.MaxHeightMM {
			return b.CostPence, true
		}
	}
	return 0, false
}

// LEDsPerMetre returns the LED density for the bracket covering heightMM.
func (rc RateCard) LEDsPerMetre(heightMM float64) (float64, bool) {
	for _, b := range rc.LEDDensity {
		if heightMM <= b.MaxHeightMM {
			return b.LEDsPerMetre, true
		}
	}
	return 0, false
}

// ApertureLEDsPerMetre is LEDsPerMetre for apertures. Apertures taller than the
// table use its densest bracket.
func (rc RateCard) ApertureLEDsPerMetre(heightMM float64) (float64, bool) {
	if density, ok := rc.LEDsPerMetre(heightMM); ok {
		return density, true
	}
	if n := len(rc.LEDDensity); n > 0 {
		return rc.LEDDensity[n-1].LEDsPerMetre, true
	}
	return 0, false
}

// FinishAllowed reports whether finish may be applied to letters of type t.
func (rc RateCard) FinishAllowed(t LetterType, finish string) bool {
	for _, f := range rc.FinishRules[t] {
		if f == finish {
			return true
		}
	}
	return false
}

// Check rejects rate cards that the engine cannot price against.
func (rc RateCard) Check() error {
	if rc.PricingSetID == "" {
		return fmt.Errorf("rate card: pricing_set_id is required")
	}
	if len(rc.PanelPrices) == 0 {
		return fmt.Errorf("rate card %s: panel_prices is empty", rc.PricingSetID)
	}
	for material, sizes := range rc.PanelPrices {
		for size, price := range sizes {
			if _, _, err := ParseSheetSize(size); err != nil {
				return fmt.Errorf("rate card %s: panel %s: %w", rc.PricingSetID, material, err)
			}
			if price < 0 {
				return fmt.Errorf("rate card %s: panel %s %s has negative price", rc.PricingSetID, material, size)
			}
		}
	}
	for t, brackets := range rc.LetterBaseCosts {
		if !sort.SliceIsSorted(brackets, func(i, j int) bool { return brackets[i].MaxHeightMM < brackets[j].MaxHeightMM }) {
			return fmt.Errorf("rate card %s: letter brackets for %s are not ascending", rc.PricingSetID, t)
		}
	}
	if !sort.SliceIsSorted(rc.LEDDensity, func(i, j int) bool { return rc.LEDDensity[i].MaxHeightMM < rc.LEDDensity[j].MaxHeightMM }) {
		return fmt.Errorf("rate card %s: led_density brackets are not ascending", rc.PricingSetID)
	}
	for name, spec := range rc.Transformers {
		if spec.CapacityWatts <= 0 {
			return fmt.Errorf("rate card %s: transformer %s has no capacity", rc.PricingSetID, name)
		}
	}
	for _, task := range LabourTasks {
		if _, ok := rc.LabourRates[task]; !ok {
			return fmt.Errorf("rate card %s: missing labour rate for %s", rc.PricingSetID, task)
		}
	}
	return nil
}

// ContentHash is the hex SHA-256 of the card's JSON encoding. encoding/json sorts map
// keys, so equal cards hash equally.
func (rc RateCard) ContentHash() (string, error) {
	data, err := json.Marshal(rc)
	if err != nil {
		return "", fmt.Errorf("encode rate card: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
