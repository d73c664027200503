package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aggregate(t *testing.T, in Input, rc RateCard) (Costs, []LetterSetBreakdown) {
	t.Helper()

	require.Empty(t, Validate(in, rc))
	layout, err := ComputeLayout(in.WidthMM, in.HeightMM, in.AllowanceMM, in.PanelSize)
	require.NoError(t, err)
	illum := ComputeIllumination(in.LetterSets, in.Aperture, in.TransformerType, rc)
	costs, sets, err := Aggregate(layout, illum, in, rc)
	require.NoError(t, err)
	return costs, sets
}

func TestAggregate_PanelAndLetters(t *testing.T) {
	costs, sets := aggregate(t, baseInput(), testRateCard())

	assert.Equal(t, int64(4500), costs.PanelMaterialPence)
	assert.Equal(t, int64(7200), costs.PanelFinishPence)
	assert.Equal(t, int64(0), costs.OpalPence)
	assert.Equal(t, int64(0), costs.ApertureLEDPence)
	assert.Equal(t, int64(0), costs.TransformerPence)
	assert.Equal(t, int64(4200), costs.LettersTotalPence)
	assert.Equal(t, int64(0), costs.LabourPence)
	assert.Equal(t, int64(15900), costs.MaterialsBasePence)
	assert.Equal(t, int64(3180), costs.MaterialsMarkupPence)

	require.Len(t, sets, 1)
	assert.Equal(t, int64(4200), sets[0].UnitCostPence)
	assert.Equal(t, int64(4200), sets[0].CostPence)
}

func TestAggregate_IlluminatedWithAperture(t *testing.T) {
	in := illuminatedInput()
	in.Aperture = &Aperture{WidthMM: 1000, HeightMM: 300, OpalType: "Opal 3mm"}

	costs, sets := aggregate(t, in, testRateCard())

	// 0.3m2 * 3500
	assert.Equal(t, int64(1050), costs.OpalPence)
	// 30 LEDs * 85
	assert.Equal(t, int64(2550), costs.ApertureLEDPence)
	// 50 LEDs * 0.72W = 36W -> one 60W unit
	assert.Equal(t, int64(3500), costs.TransformerPence)

	require.Len(t, sets, 1)
	assert.Equal(t, 20, sets[0].LEDs)
	assert.Equal(t, int64(1700), sets[0].LEDCostPence)
	// 5 * 4200 + 1700
	assert.Equal(t, int64(22700), sets[0].CostPence)
	assert.Equal(t, int64(22700), costs.LettersTotalPence)

	assert.Equal(t, int64(4500+7200+1050+2550+3500+22700), costs.MaterialsBasePence)
}

func TestAggregate_FinishRoundsHalfUpOnce(t *testing.T) {
	in := baseInput()
	in.WidthMM = 1000
	in.HeightMM = 500
	in.PanelFinish = "Wet Spray"

	costs, _ := aggregate(t, in, testRateCard())

	// 0.5m2 * 3333 = 1666.5
	assert.Equal(t, int64(1667), costs.PanelFinishPence)
}

func TestLabourCost(t *testing.T) {
	rc := testRateCard()

	assert.Equal(t, int64(0), LabourCost(LabourHours{}, rc))
	assert.Equal(t, int64(22000), LabourCost(LabourHours{Fabrication: 4}, rc))

	hours := LabourHours{Router: 1.5, Fabrication: 2, Assembly: 0.25, Vinyl: 1, Print: 0.5}
	// 9750 + 11000 + 1125 + 4000 + 2500
	assert.Equal(t, int64(28375), LabourCost(hours, rc))
}

func TestLabourCost_RoundsTotalNotTasks(t *testing.T) {
	rc := testRateCard()
	rc.LabourRates[TaskRouter] = 1
	rc.LabourRates[TaskVinyl] = 1

	// 0.4 + 0.4 = 0.8 rounds to 1; rounding each task first would give 0.
	assert.Equal(t, int64(1), LabourCost(LabourHours{Router: 0.4, Vinyl: 0.4}, rc))
}

func TestMarkup(t *testing.T) {
	assert.Equal(t, int64(0), Markup(15900, 0))
	assert.Equal(t, int64(3180), Markup(15900, 20))
	assert.Equal(t, int64(15900), Markup(15900, 100))
	// 25 * 0.1 = 2.5
	assert.Equal(t, int64(3), Markup(25, 10))
	// 3 * 12.5% = 0.375
	assert.Equal(t, int64(0), Markup(3, 12.5))
}

func TestMarkup_WithinOnePennyOfExact(t *testing.T) {
	percents := []float64{12.5, 17.5, 33.3, 66.67, 99.99}
	for p := 0; p <= 100; p++ {
		percents = append(percents, float64(p))
	}

	for _, pct := range percents {
		for base := int64(0); base <= 5000; base += 7 {
			got := Markup(base, pct)
			if again := Markup(base, pct); again != got {
				t.Fatalf("Markup(%d, %v) not reproducible: %d then %d", base, pct, got, again)
			}
			exact := float64(base) * pct / 100
			if math.Abs(float64(got)-exact) > 0.5+1e-9 {
				t.Fatalf("Markup(%d, %v) = %d, exact %v", base, pct, got, exact)
			}
		}
	}
}

func TestAggregate_RejectsCostsBeyondPence(t *testing.T) {
	rc := testRateCard()
	in := baseInput()
	rc.LetterBaseCosts[LetterFabricated] = []HeightBracket{{MaxHeightMM: 600, CostPence: 1 << 62}}

	in.LetterSets[0].Qty = 4
	layout, err := ComputeLayout(in.WidthMM, in.HeightMM, in.AllowanceMM, in.PanelSize)
	require.NoError(t, err)
	illum := ComputeIllumination(in.LetterSets, in.Aperture, in.TransformerType, rc)

	_, _, err = Aggregate(layout, illum, in, rc)
	assert.ErrorIs(t, err, ErrOutOfRange)

	// A single set fits, but markup on top of it does not.
	in.LetterSets[0].Qty = 1
	in.MarkupPercent = 100
	rc.LetterBaseCosts[LetterFabricated][0].CostPence = math.MaxInt64 / 2
	_, _, err = Aggregate(layout, illum, in, rc)
	assert.ErrorIs(t, err, ErrOutOfRange)

	in.MarkupPercent = 0
	costs, _, err := Aggregate(layout, illum, in, rc)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64/2), costs.LettersTotalPence)
}
