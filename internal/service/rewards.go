package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/malagaclima/lluviabet/internal/domain"
	"github.com/malagaclima/lluviabet/internal/repository"
)

// PlantRewardService credits plant water for won wagers. The unique
// wager_id constraint in the table makes the credit exactly-once even if a
// settlement path runs twice.
type PlantRewardService struct {
	plantRepo *repository.PlantRewardRepository
	units     int
	logger    *slog.Logger
}

func NewPlantRewardService(plantRepo *repository.PlantRewardRepository, unitsPerWin int, logger *slog.Logger) *PlantRewardService {
	return &PlantRewardService{
		plantRepo: plantRepo,
		units:     unitsPerWin,
		logger:    logger.With("service", "plant_rewards"),
	}
}

// AddWaterReward records the water credit for a won wager inside the
// settlement transaction. A duplicate wager is a no-op, not an error.
func (s *PlantRewardService) AddWaterReward(ctx context.Context, tx *sqlx.Tx, w *domain.Wager) error {
	created, err := s.plantRepo.InsertOnce(ctx, tx, &domain.PlantReward{
		ID:         uuid.New(),
		UserID:     w.UserID,
		WagerID:    w.ID,
		Category:   w.Category,
		WaterUnits: s.units,
	})
	if err != nil {
		return fmt.Errorf("rewards.AddWaterReward: %w", err)
	}
	if created {
		s.logger.Info("water credited", "user_id", w.UserID, "wager_id", w.ID, "units", s.units)
	}
	return nil
}

// TotalWater returns the user's accumulated water units.
func (s *PlantRewardService) TotalWater(ctx context.Context, userID string) (int, error) {
	return s.plantRepo.TotalWater(ctx, userID)
}

// RecentRewards lists the user's latest water credits.
func (s *PlantRewardService) RecentRewards(ctx context.Context, userID string, limit int) ([]*domain.PlantReward, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.plantRepo.ListByUser(ctx, userID, limit)
}

var _ PlantRewarder = (*PlantRewardService)(nil)
