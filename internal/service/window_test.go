package service_test

import (
	"testing"
	"time"

	"github.com/malagaclima/lluviabet/internal/config"
	"github.com/malagaclima/lluviabet/internal/domain"
	"github.com/malagaclima/lluviabet/internal/service"
)

func testWindowConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Weather.Timezone = "UTC" // fixed zone keeps the hour math exact
	cfg.Betting.RainWindowOpenHour = 23
	cfg.Betting.RainWindowCloseHour = 9
	return cfg
}

// TestRainWindow checks the midnight-crossing rain window: open from 23:00
// through 08:59, closed the rest of the day.
func TestRainWindow(t *testing.T) {
	policy := service.NewWindowPolicy(testWindowConfig())

	at := func(hour, min int) time.Time {
		return time.Date(2026, 8, 29, hour, min, 0, 0, time.UTC)
	}

	cases := []struct {
		clock time.Time
		open  bool
	}{
		{at(23, 0), true},  // opening instant
		{at(23, 59), true},
		{at(0, 0), true},  // past midnight
		{at(8, 59), true}, // last open minute
		{at(9, 0), false}, // closing instant
		{at(12, 0), false},
		{at(22, 59), false}, // one minute before opening
	}

	for _, tc := range cases {
		if got := policy.IsWindowOpen(domain.CategoryRainAmount, tc.clock); got != tc.open {
			t.Errorf("rain window at %s = %v, want %v", tc.clock.Format("15:04"), got, tc.open)
		}
	}
}

// TestTempAndWindAlwaysOpen: only rain categories are clock-windowed.
func TestTempAndWindAlwaysOpen(t *testing.T) {
	policy := service.NewWindowPolicy(testWindowConfig())
	noon := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	for _, c := range []domain.BetCategory{
		domain.CategoryTempMin, domain.CategoryTempMax, domain.CategoryWindMax,
	} {
		if !policy.IsWindowOpen(c, noon) {
			t.Errorf("%s should always be open", c)
		}
		if d := policy.TimeUntilNextTransition(c, noon); d != 0 {
			t.Errorf("%s transition = %s, want 0", c, d)
		}
	}
}

func TestUnknownCategoryWindowClosed(t *testing.T) {
	policy := service.NewWindowPolicy(testWindowConfig())
	if policy.IsWindowOpen(domain.BetCategory("humidity"), time.Now()) {
		t.Error("unknown category should never be open")
	}
}

// TestTimeUntilNextTransition checks the countdown in both window states.
func TestTimeUntilNextTransition(t *testing.T) {
	policy := service.NewWindowPolicy(testWindowConfig())

	// Closed at noon: next transition is opening at 23:00, 11h away.
	noon := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	if d := policy.TimeUntilNextTransition(domain.CategoryRainAmount, noon); d != 11*time.Hour {
		t.Errorf("countdown at noon = %s, want 11h", d)
	}

	// Open at midnight: next transition is closing at 09:00, 9h away.
	midnight := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	if d := policy.TimeUntilNextTransition(domain.CategoryRainAmount, midnight); d != 9*time.Hour {
		t.Errorf("countdown at midnight = %s, want 9h", d)
	}
}
