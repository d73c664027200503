package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// MaxSaneTransformers is the count above which a quote is flagged as probably
	// misconfigured.
	MaxSaneTransformers = 10
	// MaxLEDsPerLetter flags letter sets with unusually dense illumination.
	MaxLEDsPerLetter = 120
)

// Illumination holds LED and transformer counts for a sign.
type Illumination struct {
	ApertureLEDs       int
	LettersTotalLEDs   int
	TotalLEDs          int
	TransformersNeeded int
	// SetLEDs is indexed like the letter sets; unlit sets hold 0.
	SetLEDs  []int
	Warnings []string
}

// LetterSetLEDs returns the LEDs needed to light one letter set.
func LetterSetLEDs(set LetterSet, rc RateCard) int {
	if !set.Illuminated {
		return 0
	}
	density, _ := rc.LEDsPerMetre(set.HeightMM)
	return ceilInt(dec(set.HeightMM).Div(thousand).Mul(dec(density)).Mul(decimal.NewFromInt(int64(set.Qty))))
}

// ApertureLEDs applies the density rule along the aperture width.
func ApertureLEDs(a *Aperture, rc RateCard) int {
	if a == nil {
		return 0
	}
	density, _ := rc.ApertureLEDsPerMetre(a.HeightMM)
	return ceilInt(dec(a.WidthMM).Div(thousand).Mul(dec(density)))
}

// TransformersFor returns how many transformers of the given type carry totalLEDs.
// Any lit sign needs at least one.
func TransformersFor(totalLEDs int, transformerType string, rc RateCard) int {
	if totalLEDs <= 0 {
		return 0
	}
	spec, ok := rc.Transformers[transformerType]
	if !ok || spec.CapacityWatts <= 0 {
		return 1
	}
	power := decimal.NewFromInt(int64(totalLEDs)).Mul(dec(rc.LEDWatts))
	n := ceilInt(power.Div(dec(spec.CapacityWatts)))
	if n < 1 {
		n = 1
	}
	return n
}

// ComputeIllumination counts LEDs for the letter sets and aperture and sizes the
// transformer bank. Inputs must already be validated against rc.
func ComputeIllumination(sets []LetterSet, aperture *Aperture, transformerType string, rc RateCard) Illumination {
	illum := Illumination{SetLEDs: make([]int, len(sets))}

	for i, set := range sets {
		leds := LetterSetLEDs(set, rc)
		illum.SetLEDs[i] = leds
		illum.LettersTotalLEDs += leds

		if leds > 0 && set.Qty > 0 && leds/set.Qty > MaxLEDsPerLetter {
			illum.Warnings = append(illum.Warnings, fmt.Sprintf(
				"letter_sets[%d]: %d LEDs per letter is unusually dense; check the LED density table", i, leds/set.Qty))
		}
	}

	illum.ApertureLEDs = ApertureLEDs(aperture, rc)
	illum.TotalLEDs = illum.ApertureLEDs + illum.LettersTotalLEDs
	illum.TransformersNeeded = TransformersFor(illum.TotalLEDs, transformerType, rc)

	if illum.TransformersNeeded > MaxSaneTransformers {
		illum.Warnings = append(illum.Warnings, fmt.Sprintf(
			"%d transformers needed (more than %d); check the transformer type and LED counts",
			illum.TransformersNeeded, MaxSaneTransformers))
	}

	return illum
}
