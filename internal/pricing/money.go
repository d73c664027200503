package pricing

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// ErrOutOfRange reports a cost too large to hold in pence.
var ErrOutOfRange = errors.New("costs exceed the supported range; check quantities and rate card prices")

var (
	thousand = decimal.NewFromInt(1000)
	million  = decimal.NewFromInt(1_000_000)
	hundred  = decimal.NewFromInt(100)

	maxPence = decimal.NewFromInt(math.MaxInt64)
	maxCount = decimal.NewFromInt(math.MaxInt32)
)

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// roundPence rounds half away from zero. All money here is non-negative, so this is
// round-half-up.
func roundPence(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// penceCheck rounds amounts to pence and remembers whether any of them left the
// int64 range.
type penceCheck struct {
	overflow bool
}

func (p *penceCheck) pence(d decimal.Decimal) int64 {
	r := d.Round(0)
	if r.IsNegative() || r.GreaterThan(maxPence) {
		p.overflow = true
		return 0
	}
	return r.IntPart()
}

// times is n units at pence each.
func times(n int, pence int64) decimal.Decimal {
	return decimal.NewFromInt(int64(n)).Mul(decimal.NewFromInt(pence))
}

// ceilInt rounds up, saturating at MaxInt32 so a count never wraps.
func ceilInt(d decimal.Decimal) int {
	c := d.Ceil()
	if c.GreaterThan(maxCount) {
		return math.MaxInt32
	}
	return int(c.IntPart())
}

// areaM2 converts millimetre dimensions to square metres.
func areaM2(widthMM, heightMM float64) decimal.Decimal {
	return dec(widthMM).Mul(dec(heightMM)).Div(million)
}

func markupAmount(basePence int64, percent float64) decimal.Decimal {
	return decimal.NewFromInt(basePence).Mul(dec(percent)).Div(hundred)
}

// Markup returns round(base * percent / 100).
func Markup(basePence int64, percent float64) int64 {
	return roundPence(markupAmount(basePence, percent))
}
