package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Odds functions
// ──────────────────────────────────────────────────────────────────────────────

// OddsFunc maps a predicted value and a reference value (the current
// observation, or rain probability for the yes/no categories) to a payout
// multiplier. Multipliers are frozen into the wager at placement time and
// never recomputed at settlement.
type OddsFunc func(predicted, reference float64) decimal.Decimal

// Rain multiplier bounds. Extreme predictions are capped so a lucky hit on
// an absurd value cannot bankrupt the coin economy.
var (
	RainOddsFloor   = 1.1
	RainOddsCeiling = 1000.0
)

// ComputeOdds returns the payout multiplier for a prospective wager.
// reference is the current observed value for the category (rain mm,
// temperature, wind speed) or the rain probability percentage for the
// binary rain categories.
func ComputeOdds(category BetCategory, predicted, reference float64) (decimal.Decimal, error) {
	spec, ok := Spec(category)
	if !ok {
		return decimal.Zero, ErrInvalidCategory
	}
	return spec.Odds(predicted, reference), nil
}

// ImpliedProbability converts a multiplier into the win probability the
// odds imply, as a percentage clamped to [0.1, 100]. Display-only; the
// settlement engine never consults it.
func ImpliedProbability(multiplier decimal.Decimal) decimal.Decimal {
	if multiplier.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(100)
	}
	p := decimal.NewFromInt(100).Div(multiplier)
	return clampDecimal(p, decimal.NewFromFloat(0.1), decimal.NewFromInt(100)).Round(2)
}

// ──────────────────────────────────────────────────────────────────────────────
// rain_amount
// ──────────────────────────────────────────────────────────────────────────────

// rainAmountOdds prices an exact rain-amount prediction against the current
// observed rainfall. Base multiplier is 2.0; predictions far above anything
// Málaga has ever recorded grow linearly, then steeply past 500 mm. A "no
// rain" call while it is actually raining pays according to how hard it
// currently rains. Everything else is tiered by distance from the current
// observation. The result is clamped to [1.1, 1000].
func rainAmountOdds(predicted, reference float64) decimal.Decimal {
	var m float64
	switch {
	case predicted > 500:
		m = 250 + 1.5*(predicted-500)
	case predicted > 100:
		m = 5 + 0.5*(predicted-100)
	case predicted == 0 && reference > 0:
		m = 3 + 0.5*reference
	default:
		diff := math.Abs(predicted - reference)
		switch {
		case diff == 0:
			m = 2.0
		case diff <= 5:
			m = 3.0
		case diff <= 20:
			m = 5 + 0.2*diff
		default:
			m = 10 + 0.3*diff
		}
	}
	return decimal.NewFromFloat(clampFloat(m, RainOddsFloor, RainOddsCeiling)).Round(2)
}

// ──────────────────────────────────────────────────────────────────────────────
// rain_yes / rain_no
// ──────────────────────────────────────────────────────────────────────────────

// rainYesOdds prices a "it will rain" wager from the forecast precipitation
// probability (reference, 0–100 %). multiplier ≈ 100/chance so the implied
// probability round-trips through ImpliedProbability.
func rainYesOdds(_, chance float64) decimal.Decimal {
	return binaryRainOdds(chance)
}

// rainNoOdds prices a "it will stay dry" wager from the complementary
// probability.
func rainNoOdds(_, chance float64) decimal.Decimal {
	return binaryRainOdds(100 - chance)
}

func binaryRainOdds(chance float64) decimal.Decimal {
	if chance < 1 {
		chance = 1
	}
	m := 100 / chance
	return decimal.NewFromFloat(clampFloat(m, RainOddsFloor, 50)).Round(2)
}

// ──────────────────────────────────────────────────────────────────────────────
// temp_min / temp_max
// ──────────────────────────────────────────────────────────────────────────────

// oddsBand maps predictions up to (and including) Max to a multiplier.
type oddsBand struct {
	Max        float64
	Multiplier float64
}

// Step tables tuned to Málaga's climate: wide bands around the typical
// range pay ~2.0–2.5, bands that have never been recorded pay up to 50.
// Bands differ between min and max because the typical ranges differ.
var tempMaxBands = []oddsBand{
	{Max: 0, Multiplier: 50.0},
	{Max: 5, Multiplier: 25.0},
	{Max: 10, Multiplier: 10.0},
	{Max: 14, Multiplier: 5.0},
	{Max: 17, Multiplier: 3.0},
	{Max: 25, Multiplier: 2.0}, // typical Málaga daytime highs
	{Max: 28, Multiplier: 2.5},
	{Max: 32, Multiplier: 3.0},
	{Max: 36, Multiplier: 5.0},
	{Max: 40, Multiplier: 10.0},
	{Max: 44, Multiplier: 25.0},
}

var tempMinBands = []oddsBand{
	{Max: -5, Multiplier: 50.0},
	{Max: 0, Multiplier: 25.0},
	{Max: 3, Multiplier: 10.0},
	{Max: 6, Multiplier: 5.0},
	{Max: 9, Multiplier: 3.0},
	{Max: 12, Multiplier: 2.5},
	{Max: 20, Multiplier: 2.0}, // typical overnight lows
	{Max: 23, Multiplier: 2.5},
	{Max: 26, Multiplier: 5.0},
	{Max: 30, Multiplier: 10.0},
}

// bandedOdds walks a band table and returns the first band the prediction
// fits in; predictions beyond the last band get the extreme multiplier.
func bandedOdds(bands []oddsBand, predicted float64) decimal.Decimal {
	for _, b := range bands {
		if predicted <= b.Max {
			return decimal.NewFromFloat(b.Multiplier)
		}
	}
	return decimal.NewFromFloat(50.0)
}

// tempMaxOdds is a fixed step function of the absolute predicted daily
// maximum; the current observation does not move it.
func tempMaxOdds(predicted, _ float64) decimal.Decimal {
	return bandedOdds(tempMaxBands, predicted)
}

// tempMinOdds is the step function for the daily minimum.
func tempMinOdds(predicted, _ float64) decimal.Decimal {
	return bandedOdds(tempMinBands, predicted)
}

// ──────────────────────────────────────────────────────────────────────────────
// wind_max
// ──────────────────────────────────────────────────────────────────────────────

// windMaxBands: Málaga's daily maximum usually lands between 10 and 30 km/h.
// Dead calm is nearly as unlikely as a gale, hence the high multiplier on
// the low end too.
var windMaxBands = []oddsBand{
	{Max: 5, Multiplier: 10.0},
	{Max: 10, Multiplier: 3.0},
	{Max: 30, Multiplier: 2.0},
	{Max: 45, Multiplier: 3.0},
	{Max: 60, Multiplier: 5.0},
	{Max: 80, Multiplier: 10.0},
	{Max: 100, Multiplier: 25.0},
}

// windMaxOdds returns a higher multiplier the further the predicted speed
// sits from the typical range.
func windMaxOdds(predicted, _ float64) decimal.Decimal {
	return bandedOdds(windMaxBands, predicted)
}

// ──────────────────────────────────────────────────────────────────────────────
// clamps
// ──────────────────────────────────────────────────────────────────────────────

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampDecimal(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
