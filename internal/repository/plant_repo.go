package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/malagaclima/lluviabet/internal/domain"
)

// PlantRewardRepository persists water rewards earned by won wagers. The
// unique index on wager_id is what makes the "exactly one water credit per
// won wager" guarantee hold across settlement retries.
type PlantRewardRepository struct {
	db *sqlx.DB
}

// NewPlantRewardRepository creates a new PlantRewardRepository.
func NewPlantRewardRepository(db *sqlx.DB) *PlantRewardRepository {
	return &PlantRewardRepository{db: db}
}

// InsertOnce records a water reward for a wager. Returns false without error
// when the wager already has a reward row (idempotent replay).
func (r *PlantRewardRepository) InsertOnce(ctx context.Context, tx *sqlx.Tx, reward *domain.PlantReward) (bool, error) {
	if reward.CreatedAt.IsZero() {
		reward.CreatedAt = time.Now()
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO plant_rewards (id, user_id, wager_id, category, water_units, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (wager_id) DO NOTHING`,
		reward.ID, reward.UserID, reward.WagerID, string(reward.Category), reward.WaterUnits, reward.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("plant_repo.InsertOnce: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// TotalWater sums the water units a user has earned.
func (r *PlantRewardRepository) TotalWater(ctx context.Context, userID string) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(water_units), 0) FROM plant_rewards WHERE user_id = $1`,
		userID)
	if err != nil {
		return 0, fmt.Errorf("plant_repo.TotalWater: %w", err)
	}
	return total, nil
}

// ListByUser returns a user's reward history, newest first.
func (r *PlantRewardRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.PlantReward, error) {
	var rewards []*domain.PlantReward
	err := r.db.SelectContext(ctx, &rewards,
		`SELECT * FROM plant_rewards WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("plant_repo.ListByUser: %w", err)
	}
	return rewards, nil
}
