package service

import (
	"context"
	"fmt"
	"time"

	"github.com/malagaclima/lluviabet/internal/domain"
	"github.com/malagaclima/lluviabet/internal/repository"
)

// BetLimiter enforces the per-group concurrency caps. Rain categories share a
// cap on simultaneously pending wagers; temperature and wind categories share
// a cap on wagers placed within a rolling window, resolved or not.
type BetLimiter struct {
	wagerRepo *repository.WagerRepository
}

func NewBetLimiter(wagerRepo *repository.WagerRepository) *BetLimiter {
	return &BetLimiter{wagerRepo: wagerRepo}
}

// Remaining reports how many more wagers the user may place in the
// category's limit group right now.
func (l *BetLimiter) Remaining(ctx context.Context, userID string, category domain.BetCategory, now time.Time) (int, error) {
	spec, ok := domain.Spec(category)
	if !ok {
		return 0, domain.ErrInvalidCategory
	}

	group := domain.GroupMembers(spec.Group)

	var (
		count int
		err   error
	)
	if spec.LimitWindow == 0 {
		count, err = l.wagerRepo.CountPendingByCategories(ctx, userID, group)
	} else {
		count, err = l.wagerRepo.CountPlacedSince(ctx, userID, group, now.Add(-spec.LimitWindow))
	}
	if err != nil {
		return 0, fmt.Errorf("limiter.Remaining: %w", err)
	}

	remaining := spec.MaxInWindow - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Check returns ErrBetLimitReached when the user has exhausted the
// category's group cap.
func (l *BetLimiter) Check(ctx context.Context, userID string, category domain.BetCategory, now time.Time) error {
	remaining, err := l.Remaining(ctx, userID, category, now)
	if err != nil {
		return err
	}
	if remaining <= 0 {
		return domain.ErrBetLimitReached
	}
	return nil
}
