package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/malagaclima/lluviabet/internal/domain"
	"github.com/shopspring/decimal"
)

// WagerRepository handles all database operations for Wagers.
type WagerRepository struct {
	db *sqlx.DB
}

// NewWagerRepository creates a new WagerRepository.
func NewWagerRepository(db *sqlx.DB) *WagerRepository {
	return &WagerRepository{db: db}
}

// Create inserts a new wager inside an existing transaction.
func (r *WagerRepository) Create(ctx context.Context, tx *sqlx.Tx, w *domain.Wager) error {
	query := `
		INSERT INTO wagers
			(id, user_id, category, predicted_value, stake, multiplier, status, placed_at, resolves_at)
		VALUES
			(:id, :user_id, :category, :predicted_value, :stake, :multiplier, :status, :placed_at, :resolves_at)`
	if _, err := tx.NamedExecContext(ctx, query, w); err != nil {
		return fmt.Errorf("wager_repo.Create: %w", err)
	}
	return nil
}

// GetByID fetches a wager by its primary key.
func (r *WagerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wager, error) {
	var w domain.Wager
	err := r.db.GetContext(ctx, &w, `SELECT * FROM wagers WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrWagerNotFound
		}
		return nil, fmt.Errorf("wager_repo.GetByID: %w", err)
	}
	return &w, nil
}

// ListByUser returns a user's wager history, paginated, newest first.
func (r *WagerRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Wager, error) {
	var wagers []*domain.Wager
	err := r.db.SelectContext(ctx, &wagers,
		`SELECT * FROM wagers WHERE user_id = $1 ORDER BY placed_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("wager_repo.ListByUser: %w", err)
	}
	return wagers, nil
}

// ListPendingDue returns every pending wager whose resolution instant has
// passed. This is the settlement engine's work queue.
func (r *WagerRepository) ListPendingDue(ctx context.Context, now time.Time) ([]*domain.Wager, error) {
	var wagers []*domain.Wager
	err := r.db.SelectContext(ctx, &wagers,
		`SELECT * FROM wagers WHERE status = 'pending' AND resolves_at <= $1 ORDER BY resolves_at ASC`,
		now)
	if err != nil {
		return nil, fmt.Errorf("wager_repo.ListPendingDue: %w", err)
	}
	return wagers, nil
}

// MarkResolved flips a pending wager to won or lost inside a transaction.
// The WHERE status='pending' guard makes the transition idempotent: a second
// settlement attempt (timer tick racing a manual verify) affects zero rows
// and gets ErrWagerNotPending, which callers treat as a no-op.
func (r *WagerRepository) MarkResolved(
	ctx context.Context,
	tx *sqlx.Tx,
	wagerID uuid.UUID,
	status domain.WagerStatus,
	actual float64,
	payout *decimal.Decimal,
) error {
	if status != domain.WagerStatusWon && status != domain.WagerStatusLost {
		return fmt.Errorf("wager_repo.MarkResolved: %q is not a settlement status", status)
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE wagers
		SET status       = $1,
		    actual_value = $2,
		    payout       = $3,
		    resolved_at  = now()
		WHERE id = $4 AND status = 'pending'`,
		string(status), actual, payout, wagerID)
	if err != nil {
		return fmt.Errorf("wager_repo.MarkResolved: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrWagerNotPending
	}
	return nil
}

// MarkCancelled flips a pending wager to cancelled inside a transaction,
// with the same status guard so settlement and cancellation can never both
// touch the stake.
func (r *WagerRepository) MarkCancelled(ctx context.Context, tx *sqlx.Tx, wagerID uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE wagers
		SET status      = 'cancelled',
		    resolved_at = now()
		WHERE id = $1 AND status = 'pending'`,
		wagerID)
	if err != nil {
		return fmt.Errorf("wager_repo.MarkCancelled: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrWagerNotPending
	}
	return nil
}

// CountPendingByCategories counts a user's currently-pending wagers across
// the given categories. Used by the limiter for the rain group.
func (r *WagerRepository) CountPendingByCategories(ctx context.Context, userID string, categories []domain.BetCategory) (int, error) {
	query, args, err := sqlx.In(
		`SELECT COUNT(*) FROM wagers WHERE user_id = ? AND status = 'pending' AND category IN (?)`,
		userID, categoryStrings(categories))
	if err != nil {
		return 0, fmt.Errorf("wager_repo.CountPendingByCategories: build: %w", err)
	}
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("wager_repo.CountPendingByCategories: %w", err)
	}
	return n, nil
}

// CountPlacedSince counts a user's wagers across the given categories placed
// at or after since, regardless of status. Used by the limiter for the
// rolling temperature and wind windows.
func (r *WagerRepository) CountPlacedSince(ctx context.Context, userID string, categories []domain.BetCategory, since time.Time) (int, error) {
	query, args, err := sqlx.In(
		`SELECT COUNT(*) FROM wagers WHERE user_id = ? AND placed_at >= ? AND category IN (?)`,
		userID, since, categoryStrings(categories))
	if err != nil {
		return 0, fmt.Errorf("wager_repo.CountPlacedSince: build: %w", err)
	}
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("wager_repo.CountPlacedSince: %w", err)
	}
	return n, nil
}

// CleanupOlderThan deletes terminal wagers resolved before the cutoff.
// Pending wagers are never touched, no matter how old.
func (r *WagerRepository) CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM wagers
		WHERE status IN ('won', 'lost', 'cancelled')
		  AND resolved_at IS NOT NULL
		  AND resolved_at < $1`,
		cutoff)
	if err != nil {
		return 0, fmt.Errorf("wager_repo.CleanupOlderThan: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func categoryStrings(categories []domain.BetCategory) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}
