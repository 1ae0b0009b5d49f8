package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Types & constants
// ──────────────────────────────────────────────────────────────────────────────

// WagerStatus represents the current state of a user's wager.
type WagerStatus string

const (
	WagerStatusPending   WagerStatus = "pending"   // awaiting its resolution instant
	WagerStatusWon       WagerStatus = "won"       // prediction matched the observation
	WagerStatusLost      WagerStatus = "lost"      // prediction missed
	WagerStatusCancelled WagerStatus = "cancelled" // user cancelled before resolution; stake refunded
)

// IsTerminal returns true for states a wager can never leave.
func (s WagerStatus) IsTerminal() bool {
	return s == WagerStatusWon || s == WagerStatusLost || s == WagerStatusCancelled
}

// AnonymousUserID is the synthetic bucket unauthenticated players bet from.
const AnonymousUserID = "anonymous"

// MinStake is the hard floor on the coin stake of a single wager.
var MinStake = decimal.NewFromInt(10)

// ──────────────────────────────────────────────────────────────────────────────
// Wager
// ──────────────────────────────────────────────────────────────────────────────

// Wager is a single weather prediction backed by coins. The multiplier is
// frozen at placement; settlement only compares PredictedValue against the
// observed value and pays Stake × Multiplier on a win.
type Wager struct {
	ID             uuid.UUID        `json:"id"              db:"id"`
	UserID         string           `json:"user_id"         db:"user_id"`
	Category       BetCategory      `json:"category"        db:"category"`
	PredictedValue float64          `json:"predicted_value" db:"predicted_value"`
	Stake          decimal.Decimal  `json:"stake"           db:"stake"`
	Multiplier     decimal.Decimal  `json:"multiplier"      db:"multiplier"`
	Status         WagerStatus      `json:"status"          db:"status"`
	ActualValue    *float64         `json:"actual_value"    db:"actual_value"`
	Payout         *decimal.Decimal `json:"payout"          db:"payout"`
	PlacedAt       time.Time        `json:"placed_at"       db:"placed_at"`
	ResolvesAt     time.Time        `json:"resolves_at"     db:"resolves_at"`
	ResolvedAt     *time.Time       `json:"resolved_at"     db:"resolved_at"`
}

// IsPending returns true while the wager can still be settled or cancelled.
func (w *Wager) IsPending() bool {
	return w.Status == WagerStatusPending
}

// IsDue returns true once the wager's resolution instant has passed.
func (w *Wager) IsDue(now time.Time) bool {
	return !now.Before(w.ResolvesAt)
}

// PotentialPayout is the amount credited if the wager wins.
func (w *Wager) PotentialPayout() decimal.Decimal {
	return w.Stake.Mul(w.Multiplier).RoundDown(2)
}

// ──────────────────────────────────────────────────────────────────────────────
// PlaceWagerRequest — value object used by BettingService
// ──────────────────────────────────────────────────────────────────────────────

// PlaceWagerRequest carries the validated inputs for placing a wager.
type PlaceWagerRequest struct {
	UserID         string
	Category       BetCategory
	PredictedValue float64
	Stake          decimal.Decimal
}

// WagerResponse is the API-safe view of a wager.
type WagerResponse struct {
	ID              uuid.UUID        `json:"id"`
	Category        BetCategory      `json:"category"`
	PredictedValue  float64          `json:"predicted_value"`
	Stake           decimal.Decimal  `json:"stake"`
	Multiplier      decimal.Decimal  `json:"multiplier"`
	Status          WagerStatus      `json:"status"`
	ActualValue     *float64         `json:"actual_value,omitempty"`
	Payout          *decimal.Decimal `json:"payout,omitempty"`
	PotentialPayout decimal.Decimal  `json:"potential_payout"`
	PlacedAt        time.Time        `json:"placed_at"`
	ResolvesAt      time.Time        `json:"resolves_at"`
	ResolvedAt      *time.Time       `json:"resolved_at,omitempty"`
}

// ToResponse converts a Wager to its API response form.
func (w *Wager) ToResponse() WagerResponse {
	return WagerResponse{
		ID:              w.ID,
		Category:        w.Category,
		PredictedValue:  w.PredictedValue,
		Stake:           w.Stake,
		Multiplier:      w.Multiplier,
		Status:          w.Status,
		ActualValue:     w.ActualValue,
		Payout:          w.Payout,
		PotentialPayout: w.PotentialPayout(),
		PlacedAt:        w.PlacedAt,
		ResolvesAt:      w.ResolvesAt,
		ResolvedAt:      w.ResolvedAt,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// SettlementReport
// ──────────────────────────────────────────────────────────────────────────────

// SettlementReport aggregates one settlement pass for notifications and
// plant-reward crediting. Each resolved wager appears in exactly one report
// over the process lifetime.
type SettlementReport struct {
	Resolved      []*Wager        `json:"resolved"`
	TotalCoinsWon decimal.Decimal `json:"total_coins_won"`
	Skipped       int             `json:"skipped"` // left pending: data source or store failure
}

// WonCount returns how many wagers in the report settled as won.
func (r *SettlementReport) WonCount() int {
	n := 0
	for _, w := range r.Resolved {
		if w.Status == WagerStatusWon {
			n++
		}
	}
	return n
}
