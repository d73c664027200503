package pricing

import "github.com/shopspring/decimal"

// Aggregate prices a validated input. Each cost line is rounded to whole pence exactly
// once, so the line total always reconciles with the displayed lines. It returns
// ErrOutOfRange when any line, or the line total, does not fit in pence.
func Aggregate(layout Layout, illum Illumination, in Input, rc RateCard) (Costs, []LetterSetBreakdown, error) {
	var (
		c Costs
		p penceCheck
	)

	unitPrice, _ := rc.PanelUnitPrice(in.PanelMaterial, in.PanelSize)
	c.PanelMaterialPence = p.pence(times(layout.PanelsNeeded, unitPrice))
	c.PanelFinishPence = p.pence(areaM2(in.WidthMM, in.HeightMM).Mul(decimal.NewFromInt(rc.FinishCostPerM2[in.PanelFinish])))

	if in.Aperture != nil {
		opalPerM2 := decimal.NewFromInt(rc.OpalCostPerM2[in.Aperture.OpalType])
		c.OpalPence = p.pence(areaM2(in.Aperture.WidthMM, in.Aperture.HeightMM).Mul(opalPerM2))
		c.ApertureLEDPence = p.pence(times(illum.ApertureLEDs, rc.LEDCostPence))
	}

	if illum.TransformersNeeded > 0 {
		c.TransformerPence = p.pence(times(illum.TransformersNeeded, rc.Transformers[in.TransformerType].CostPence))
	}

	letters := decimal.Zero
	sets := make([]LetterSetBreakdown, len(in.LetterSets))
	for i, set := range in.LetterSets {
		unit, _ := rc.LetterBaseCost(set.Type, set.HeightMM)
		leds := 0
		if i < len(illum.SetLEDs) {
			leds = illum.SetLEDs[i]
		}
		ledCost := p.pence(times(leds, rc.LEDCostPence))
		cost := p.pence(times(set.Qty, unit).Add(decimal.NewFromInt(ledCost)))

		sets[i] = LetterSetBreakdown{
			Index:         i,
			Type:          set.Type,
			Qty:           set.Qty,
			HeightMM:      set.HeightMM,
			Finish:        set.Finish,
			Illuminated:   set.Illuminated,
			UnitCostPence: unit,
			LEDs:          leds,
			LEDCostPence:  ledCost,
			CostPence:     cost,
		}
		letters = letters.Add(decimal.NewFromInt(cost))
	}
	c.LettersTotalPence = p.pence(letters)

	c.LabourPence = p.pence(labourTotal(in.LabourHours, rc))

	c.MaterialsBasePence = p.pence(sumPence(
		c.PanelMaterialPence,
		c.PanelFinishPence,
		c.OpalPence,
		c.ApertureLEDPence,
		c.TransformerPence,
		c.LettersTotalPence,
	))
	c.MaterialsMarkupPence = p.pence(markupAmount(c.MaterialsBasePence, in.MarkupPercent))
	p.pence(sumPence(c.MaterialsBasePence, c.MaterialsMarkupPence, c.LabourPence))

	if p.overflow {
		return Costs{}, nil, ErrOutOfRange
	}
	return c, sets, nil
}

func sumPence(amounts ...int64) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromInt(a))
	}
	return total
}

func labourTotal(hours LabourHours, rc RateCard) decimal.Decimal {
	total := decimal.Zero
	for _, task := range LabourTasks {
		total = total.Add(dec(hours.Hours(task)).Mul(decimal.NewFromInt(rc.LabourRates[task])))
	}
	return total
}

// LabourCost sums hours times the hourly rate over every labour task, rounding once.
func LabourCost(hours LabourHours, rc RateCard) int64 {
	return roundPence(labourTotal(hours, rc))
}
