// Package pricingtest provides rate card and input fixtures for tests outside the pricing
// package.
package pricingtest

import "github.com/Simplici0/signworks/internal/pricing"

// BaseLineTotal is what Input prices to against RateCard.
const BaseLineTotal int64 = 19080

// RateCard returns a small, complete card stored under id.
func RateCard(id string) pricing.RateCard {
	return pricing.RateCard{
		PricingSetID: id,
		Version:      1,
		Currency:     "GBP",
		PanelPrices: map[string]map[string]int64{
			"ACM 3mm": {"2.4 x 1.2": 4500, "3.05 x 1.5": 7200},
		},
		FinishCostPerM2: map[string]int64{"Powder Coating": 2500, "Raw": 0},
		OpalCostPerM2:   map[string]int64{"Opal 3mm": 3500},
		LetterBaseCosts: map[pricing.LetterType][]pricing.HeightBracket{
			pricing.LetterFabricated: {{MaxHeightMM: 150, CostPence: 2800}, {MaxHeightMM: 300, CostPence: 4200}},
			pricing.LetterKomacel:    {{MaxHeightMM: 300, CostPence: 1400}},
			pricing.LetterAcrylic:    {{MaxHeightMM: 300, CostPence: 1900}},
		},
		FinishRules: map[pricing.LetterType][]string{
			pricing.LetterFabricated: {"Powder Coating"},
			pricing.LetterKomacel:    {"Painted"},
			pricing.LetterAcrylic:    {"Polished Edge"},
		},
		LEDCostPence: 85,
		LEDWatts:     0.72,
		LEDDensity:   []pricing.DensityBracket{{MaxHeightMM: 200, LEDsPerMetre: 20}, {MaxHeightMM: 400, LEDsPerMetre: 30}},
		Transformers: map[string]pricing.TransformerSpec{"60W": {CostPence: 3500, CapacityWatts: 60}},
		LabourRates: map[pricing.LabourTask]int64{
			pricing.TaskRouter:      6500,
			pricing.TaskFabrication: 5500,
			pricing.TaskAssembly:    4500,
			pricing.TaskVinyl:       4000,
			pricing.TaskPrint:       5000,
		},
	}
}

// Input returns a single-sheet sign with one unlit letter and 20% markup.
func Input() pricing.Input {
	return pricing.Input{
		WidthMM:       2400,
		HeightMM:      1200,
		PanelSize:     "2.4 x 1.2",
		PanelMaterial: "ACM 3mm",
		PanelFinish:   "Powder Coating",
		LetterSets: []pricing.LetterSet{
			{Type: pricing.LetterFabricated, Qty: 1, HeightMM: 200, Finish: "Powder Coating"},
		},
		MarkupPercent: 20,
	}
}

// InvalidInput fails validation with an unstocked panel size and four letter sets.
func InvalidInput() pricing.Input {
	in := Input()
	in.PanelSize = "1 x 1"
	set := in.LetterSets[0]
	in.LetterSets = []pricing.LetterSet{set, set, set, set}
	return in
}
