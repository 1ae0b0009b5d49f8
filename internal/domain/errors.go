package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Placement validation errors. All of these are surfaced before any state
// changes: a rejected placement never moves coins.
var (
	// ErrInvalidCategory is returned when a category is outside the closed set.
	ErrInvalidCategory = errors.New("unknown bet category")

	// ErrStakeTooSmall is returned when the stake is below the configured minimum.
	ErrStakeTooSmall = errors.New("stake is below the minimum")

	// ErrInsufficientBalance is returned when the stake exceeds the user's
	// coin balance at placement time.
	ErrInsufficientBalance = errors.New("insufficient coin balance")

	// ErrBettingWindowClosed is returned when a rain wager is placed outside
	// the nightly betting window.
	ErrBettingWindowClosed = errors.New("betting window is closed for this category")

	// ErrBetLimitReached is returned when the user already holds the maximum
	// number of wagers allowed for the category's limit pool.
	ErrBetLimitReached = errors.New("bet limit reached for this category")
)

// Wager lifecycle errors
var (
	// ErrWagerNotFound is returned when no wager matches the given id.
	ErrWagerNotFound = errors.New("wager not found")

	// ErrWagerNotPending is returned when a settlement or cancellation is
	// attempted on a wager that has already reached a terminal state. For a
	// concurrent settlement race this is the signal to treat the second
	// attempt as a no-op.
	ErrWagerNotPending = errors.New("wager is not pending")

	// ErrWagerNotDue is returned when a manual verification is requested
	// before the wager's resolution instant.
	ErrWagerNotDue = errors.New("wager resolution time has not passed yet")

	// ErrCancelAfterDue is returned when a cancellation arrives after the
	// resolution instant; the wager belongs to the settlement engine now.
	ErrCancelAfterDue = errors.New("wager can no longer be cancelled")
)

// Wallet errors
var (
	// ErrWalletNotFound is returned when no wallet exists for the user.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrDailyRewardClaimed is returned when the daily reward was already
	// claimed within the last 24 hours.
	ErrDailyRewardClaimed = errors.New("daily reward already claimed")
)

// Access errors
var (
	// ErrForbidden is returned when a wager does not belong to the caller.
	ErrForbidden = errors.New("forbidden: wager belongs to another user")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

// IsNotFound returns true when err (or any error in its chain) is an
// entity-missing error. Use this when translating to HTTP 404 responses.
func IsNotFound(err error) bool {
	for _, target := range []error{ErrWagerNotFound, ErrWalletNotFound} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsValidation returns true for placement-rule rejections: the request was
// understood but a betting rule blocked it.
func IsValidation(err error) bool {
	validationErrors := []error{
		ErrInvalidCategory,
		ErrStakeTooSmall,
		ErrInsufficientBalance,
		ErrBettingWindowClosed,
		ErrBetLimitReached,
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict returns true for state conflicts (double settlement, late
// cancellation, repeated daily claim).
func IsConflict(err error) bool {
	conflictErrors := []error{
		ErrWagerNotPending,
		ErrWagerNotDue,
		ErrCancelAfterDue,
		ErrDailyRewardClaimed,
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
