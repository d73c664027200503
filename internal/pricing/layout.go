package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxPanels caps the sheets a single sign may need.
const MaxPanels = 1_000_000

// Layout is the panel stock needed to cut a sign face.
type Layout struct {
	SheetWidthMM  float64
	SheetHeightMM float64
	PanelsX       int
	PanelsY       int
	PanelsNeeded  int
	AreaM2        float64
}

// ParseSheetSize reads a catalog size such as "2.4 x 1.2" (metres) and returns the sheet
// dimensions in millimetres.
func ParseSheetSize(size string) (widthMM, heightMM float64, err error) {
	normalized := strings.ToLower(strings.ReplaceAll(size, "×", "x"))
	w, h, ok := strings.Cut(normalized, "x")
	if !ok {
		return 0, 0, fmt.Errorf("sheet size %q: expected \"W x H\"", size)
	}

	wm, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
	if err != nil || !finitePositive(wm) {
		return 0, 0, fmt.Errorf("sheet size %q: invalid width", size)
	}
	hm, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if err != nil || !finitePositive(hm) {
		return 0, 0, fmt.Errorf("sheet size %q: invalid height", size)
	}

	return dec(wm).Mul(thousand).InexactFloat64(), dec(hm).Mul(thousand).InexactFloat64(), nil
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// ComputeLayout counts the sheets needed to cover the sign plus its cut allowance.
// Width and height must already be validated as positive.
func ComputeLayout(widthMM, heightMM, allowanceMM float64, panelSize string) (Layout, error) {
	sheetW, sheetH, err := ParseSheetSize(panelSize)
	if err != nil {
		return Layout{}, err
	}

	allowance := dec(allowanceMM)
	x := dec(widthMM).Add(allowance).Div(dec(sheetW)).Ceil()
	y := dec(heightMM).Add(allowance).Div(dec(sheetH)).Ceil()
	if x.Mul(y).GreaterThan(decimal.NewFromInt(MaxPanels)) {
		return Layout{}, fmt.Errorf("panel_size: %q sheets would need more than %d panels", panelSize, MaxPanels)
	}
	panelsX, panelsY := ceilInt(x), ceilInt(y)

	return Layout{
		SheetWidthMM:  sheetW,
		SheetHeightMM: sheetH,
		PanelsX:       panelsX,
		PanelsY:       panelsY,
		PanelsNeeded:  panelsX * panelsY,
		AreaM2:        areaM2(widthMM, heightMM).InexactFloat64(),
	}, nil
}
