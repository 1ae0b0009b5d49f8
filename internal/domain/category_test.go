package domain_test

import (
	"testing"
	"time"

	"github.com/malagaclima/lluviabet/internal/domain"
)

// TestCategorySpecs pins down the per-category strategy table: resolution
// horizon, limit pool, and whether the category is clock-windowed.
func TestCategorySpecs(t *testing.T) {
	cases := []struct {
		category      domain.BetCategory
		group         domain.LimitGroup
		offset        time.Duration
		maxInWindow   int
		clockWindowed bool
	}{
		{domain.CategoryRainAmount, domain.GroupRain, 24 * time.Hour, 3, true},
		{domain.CategoryRainYes, domain.GroupRain, 24 * time.Hour, 3, true},
		{domain.CategoryRainNo, domain.GroupRain, 24 * time.Hour, 3, true},
		{domain.CategoryTempMin, domain.GroupTemperature, 12 * time.Hour, 2, false},
		{domain.CategoryTempMax, domain.GroupTemperature, 12 * time.Hour, 2, false},
		{domain.CategoryWindMax, domain.GroupWind, 12 * time.Hour, 2, false},
	}

	for _, tc := range cases {
		spec, ok := domain.Spec(tc.category)
		if !ok {
			t.Fatalf("Spec(%s): not found", tc.category)
		}
		if spec.Group != tc.group {
			t.Errorf("%s group = %s, want %s", tc.category, spec.Group, tc.group)
		}
		if spec.ResolutionOffset != tc.offset {
			t.Errorf("%s resolution offset = %s, want %s", tc.category, spec.ResolutionOffset, tc.offset)
		}
		if spec.MaxInWindow != tc.maxInWindow {
			t.Errorf("%s max in window = %d, want %d", tc.category, spec.MaxInWindow, tc.maxInWindow)
		}
		if spec.ClockWindowed != tc.clockWindowed {
			t.Errorf("%s clock windowed = %v, want %v", tc.category, spec.ClockWindowed, tc.clockWindowed)
		}
	}
}

// TestGroupMembers checks that the temperature pool is shared between min
// and max, per the combined-limit rule.
func TestGroupMembers(t *testing.T) {
	temp := domain.GroupMembers(domain.GroupTemperature)
	if len(temp) != 2 {
		t.Fatalf("temperature group has %d members, want 2", len(temp))
	}
	rain := domain.GroupMembers(domain.GroupRain)
	if len(rain) != 3 {
		t.Fatalf("rain group has %d members, want 3", len(rain))
	}
	wind := domain.GroupMembers(domain.GroupWind)
	if len(wind) != 1 {
		t.Fatalf("wind group has %d members, want 1", len(wind))
	}
}

func TestIsValid(t *testing.T) {
	if !domain.CategoryRainAmount.IsValid() {
		t.Error("rain_amount should be valid")
	}
	if domain.BetCategory("humidity").IsValid() {
		t.Error("humidity should not be valid")
	}
	if got := len(domain.Categories()); got != 6 {
		t.Errorf("Categories() returned %d entries, want 6", got)
	}
}
