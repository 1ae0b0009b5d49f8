package service

import (
	"testing"

	"github.com/malagaclima/lluviabet/internal/config"
	"github.com/malagaclima/lluviabet/internal/domain"
)

func evalEngine() *SettlementEngine {
	cfg := &config.Config{}
	cfg.Betting.RainToleranceMM = 0.5
	cfg.Betting.TempToleranceC = 1.0
	cfg.Betting.WindToleranceKmh = 5.0
	cfg.Betting.WetDayThresholdMM = 0.1
	return &SettlementEngine{cfg: cfg}
}

// TestEvaluateWinRules pins the win rule for each category against its
// configured tolerance.
func TestEvaluateWinRules(t *testing.T) {
	engine := evalEngine()

	cases := []struct {
		name      string
		category  domain.BetCategory
		predicted float64
		actual    float64
		won       bool
	}{
		{"rain exact", domain.CategoryRainAmount, 10, 10, true},
		{"rain inside tolerance", domain.CategoryRainAmount, 10, 10.5, true},
		{"rain outside tolerance", domain.CategoryRainAmount, 10, 10.6, false},
		{"rain dry hit", domain.CategoryRainAmount, 0, 0, true},

		{"rain_yes wet day", domain.CategoryRainYes, 0, 0.1, true},
		{"rain_yes trace below threshold", domain.CategoryRainYes, 0, 0.05, false},
		{"rain_no dry day", domain.CategoryRainNo, 0, 0, true},
		{"rain_no wet day", domain.CategoryRainNo, 0, 2.4, false},

		{"temp_max inside tolerance", domain.CategoryTempMax, 28, 29, true},
		{"temp_max outside tolerance", domain.CategoryTempMax, 28, 29.1, false},
		{"temp_min inside tolerance", domain.CategoryTempMin, 14, 13.2, true},

		{"wind inside tolerance", domain.CategoryWindMax, 25, 30, true},
		{"wind outside tolerance", domain.CategoryWindMax, 25, 30.1, false},

		{"unknown category never wins", domain.BetCategory("humidity"), 50, 50, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := &domain.Wager{Category: tc.category, PredictedValue: tc.predicted}
			if got := engine.evaluate(w, tc.actual); got != tc.won {
				t.Errorf("evaluate(%s, predicted=%.2f, actual=%.2f) = %v, want %v",
					tc.category, tc.predicted, tc.actual, got, tc.won)
			}
		})
	}
}
