// Package domain defines the core business entities and types for the
// LluviaBet Málaga weather prediction betting system.
package domain

import (
	"time"
)

// ──────────────────────────────────────────────────────────────────────────────
// Bet categories
// ──────────────────────────────────────────────────────────────────────────────

// BetCategory identifies what a wager predicts.
type BetCategory string

const (
	CategoryRainAmount BetCategory = "rain_amount" // accumulated rain in mm
	CategoryRainYes    BetCategory = "rain_yes"    // it will rain tomorrow
	CategoryRainNo     BetCategory = "rain_no"     // it will stay dry tomorrow
	CategoryTempMin    BetCategory = "temp_min"    // daily minimum temperature in °C
	CategoryTempMax    BetCategory = "temp_max"    // daily maximum temperature in °C
	CategoryWindMax    BetCategory = "wind_max"    // daily maximum wind speed in km/h
)

// LimitGroup buckets categories that share a placement-limit pool.
// temp_min and temp_max count against one combined temperature pool.
type LimitGroup string

const (
	GroupRain        LimitGroup = "rain"
	GroupTemperature LimitGroup = "temperature"
	GroupWind        LimitGroup = "wind"
)

// ──────────────────────────────────────────────────────────────────────────────
// CategorySpec — per-category strategy table
// ──────────────────────────────────────────────────────────────────────────────

// CategorySpec carries everything that varies per bet category as data:
// its odds function, resolution offset, limiter policy and whether the
// category is restricted to the nightly rain betting window.
type CategorySpec struct {
	Category         BetCategory
	Group            LimitGroup
	Unit             string        // "mm", "°C", "km/h"
	ResolutionOffset time.Duration // resolvesAt = placedAt + offset
	MaxInWindow      int           // limiter cap for the group
	LimitWindow      time.Duration // rolling window; zero = count pending wagers instead
	ClockWindowed    bool          // true when placement is restricted to the rain window
	Odds             OddsFunc
}

// specs is the single source of truth for category behaviour. Adding a
// category means adding one row here, not another switch arm somewhere.
var specs = map[BetCategory]CategorySpec{
	CategoryRainAmount: {
		Category:         CategoryRainAmount,
		Group:            GroupRain,
		Unit:             "mm",
		ResolutionOffset: 24 * time.Hour,
		MaxInWindow:      3,
		LimitWindow:      0, // rain counts concurrently-pending wagers
		ClockWindowed:    true,
		Odds:             rainAmountOdds,
	},
	CategoryRainYes: {
		Category:         CategoryRainYes,
		Group:            GroupRain,
		Unit:             "mm",
		ResolutionOffset: 24 * time.Hour,
		MaxInWindow:      3,
		LimitWindow:      0,
		ClockWindowed:    true,
		Odds:             rainYesOdds,
	},
	CategoryRainNo: {
		Category:         CategoryRainNo,
		Group:            GroupRain,
		Unit:             "mm",
		ResolutionOffset: 24 * time.Hour,
		MaxInWindow:      3,
		LimitWindow:      0,
		ClockWindowed:    true,
		Odds:             rainNoOdds,
	},
	CategoryTempMin: {
		Category:         CategoryTempMin,
		Group:            GroupTemperature,
		Unit:             "°C",
		ResolutionOffset: 12 * time.Hour,
		MaxInWindow:      2,
		LimitWindow:      24 * time.Hour,
		Odds:             tempMinOdds,
	},
	CategoryTempMax: {
		Category:         CategoryTempMax,
		Group:            GroupTemperature,
		Unit:             "°C",
		ResolutionOffset: 12 * time.Hour,
		MaxInWindow:      2,
		LimitWindow:      24 * time.Hour,
		Odds:             tempMaxOdds,
	},
	CategoryWindMax: {
		Category:         CategoryWindMax,
		Group:            GroupWind,
		Unit:             "km/h",
		ResolutionOffset: 12 * time.Hour,
		MaxInWindow:      2,
		LimitWindow:      12 * time.Hour,
		Odds:             windMaxOdds,
	},
}

// Spec returns the strategy row for a category, or false when the category
// is not part of the closed set.
func Spec(c BetCategory) (CategorySpec, bool) {
	s, ok := specs[c]
	return s, ok
}

// IsValid reports whether c is a recognised bet category.
func (c BetCategory) IsValid() bool {
	_, ok := specs[c]
	return ok
}

// GroupMembers returns every category sharing g's limit pool.
func GroupMembers(g LimitGroup) []BetCategory {
	var out []BetCategory
	for c, s := range specs {
		if s.Group == g {
			out = append(out, c)
		}
	}
	return out
}

// Categories returns the full closed category set.
func Categories() []BetCategory {
	out := make([]BetCategory, 0, len(specs))
	for c := range specs {
		out = append(out, c)
	}
	return out
}
