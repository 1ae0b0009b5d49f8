package service

import (
	"time"

	"github.com/malagaclima/lluviabet/internal/config"
	"github.com/malagaclima/lluviabet/internal/domain"
)

// WindowPolicy decides, from the wall clock alone, whether a category is
// currently accepting wagers. Only the rain categories are clock-windowed:
// rain bets open at night (23:00 local by default) and close the next
// morning. Temperature and wind betting is always open.
type WindowPolicy struct {
	openHour  int
	closeHour int
	loc       *time.Location
}

// NewWindowPolicy builds the policy from config.
func NewWindowPolicy(cfg *config.Config) *WindowPolicy {
	return &WindowPolicy{
		openHour:  cfg.Betting.RainWindowOpenHour,
		closeHour: cfg.Betting.RainWindowCloseHour,
		loc:       cfg.Location(),
	}
}

// IsWindowOpen reports whether new wagers of the category may be placed at
// now. Unknown categories are closed.
func (p *WindowPolicy) IsWindowOpen(category domain.BetCategory, now time.Time) bool {
	spec, ok := domain.Spec(category)
	if !ok {
		return false
	}
	if !spec.ClockWindowed {
		return true
	}
	h := now.In(p.loc).Hour()
	if p.openHour > p.closeHour {
		// Window crosses midnight (e.g. 23 → 9).
		return h >= p.openHour || h < p.closeHour
	}
	return h >= p.openHour && h < p.closeHour
}

// TimeUntilNextTransition returns how long until the category's window next
// opens (when closed) or closes (when open). Always-open categories return
// zero.
func (p *WindowPolicy) TimeUntilNextTransition(category domain.BetCategory, now time.Time) time.Duration {
	spec, ok := domain.Spec(category)
	if !ok || !spec.ClockWindowed {
		return 0
	}

	local := now.In(p.loc)
	var targetHour int
	if p.IsWindowOpen(category, now) {
		targetHour = p.closeHour
	} else {
		targetHour = p.openHour
	}

	next := time.Date(local.Year(), local.Month(), local.Day(), targetHour, 0, 0, 0, p.loc)
	if !next.After(local) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(local)
}
