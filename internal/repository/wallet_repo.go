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

// WalletRepository handles all database operations for Wallets and Transactions.
type WalletRepository struct {
	db *sqlx.DB
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetByUserID fetches the wallet belonging to a specific user.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	var w domain.Wallet
	err := r.db.GetContext(ctx, &w, `SELECT * FROM wallets WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, fmt.Errorf("wallet_repo.GetByUserID: %w", err)
	}
	return &w, nil
}

// GetOrCreate returns the user's wallet, creating it with the starting coin
// balance on first contact. The insert is idempotent under concurrent
// first requests from the same device.
func (r *WalletRepository) GetOrCreate(ctx context.Context, userID string, startingBalance decimal.Decimal) (*domain.Wallet, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wallets (id, user_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (user_id) DO NOTHING`,
		uuid.New(), userID, startingBalance)
	if err != nil {
		return nil, fmt.Errorf("wallet_repo.GetOrCreate: insert: %w", err)
	}
	return r.GetByUserID(ctx, userID)
}

// DeductBalance subtracts amount from a user's balance inside a transaction.
// Uses FOR UPDATE to prevent races; returns ErrInsufficientBalance when the
// balance would go negative. This is the single place placement stakes leave
// a wallet.
func (r *WalletRepository) DeductBalance(ctx context.Context, tx *sqlx.Tx, userID string, amount decimal.Decimal) error {
	var balance decimal.Decimal
	err := tx.GetContext(ctx, &balance,
		`SELECT balance FROM wallets WHERE user_id = $1 FOR UPDATE`,
		userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrWalletNotFound
		}
		return fmt.Errorf("wallet_repo.DeductBalance lock: %w", err)
	}

	if balance.LessThan(amount) {
		return domain.ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE wallets SET balance = balance - $1, updated_at = now() WHERE user_id = $2`,
		amount, userID)
	if err != nil {
		return fmt.Errorf("wallet_repo.DeductBalance: %w", err)
	}
	return nil
}

// AddBalance credits amount to a user's balance inside a transaction.
// Row-locked for the same reason as DeductBalance: every coin movement is an
// atomic read-modify-write against the one balance column.
func (r *WalletRepository) AddBalance(ctx context.Context, tx *sqlx.Tx, userID string, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance = balance + $1, updated_at = now() WHERE user_id = $2`,
		amount, userID)
	if err != nil {
		return fmt.Errorf("wallet_repo.AddBalance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrWalletNotFound
	}
	return nil
}

// ClaimDailyReward credits the daily bonus if none was claimed in the last
// 24 hours. The guard lives in the WHERE clause so two racing claims cannot
// both succeed.
func (r *WalletRepository) ClaimDailyReward(ctx context.Context, tx *sqlx.Tx, userID string, amount decimal.Decimal, now time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance             = balance + $1,
		    last_daily_claim_at = $2,
		    updated_at          = now()
		WHERE user_id = $3
		  AND (last_daily_claim_at IS NULL OR last_daily_claim_at <= $4)`,
		amount, now, userID, now.Add(-24*time.Hour))
	if err != nil {
		return fmt.Errorf("wallet_repo.ClaimDailyReward: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish "no wallet" from "claimed too recently".
		if _, getErr := r.GetByUserID(ctx, userID); getErr != nil {
			return getErr
		}
		return domain.ErrDailyRewardClaimed
	}
	return nil
}

// LogTransaction appends one entry to the coin audit log inside a transaction.
func (r *WalletRepository) LogTransaction(ctx context.Context, tx *sqlx.Tx, txn *domain.Transaction) error {
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO transactions
			(id, wallet_id, type, amount, balance_before, balance_after, ref_id, description, created_at)
		VALUES
			(:id, :wallet_id, :type, :amount, :balance_before, :balance_after, :ref_id, :description, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, txn); err != nil {
		return fmt.Errorf("wallet_repo.LogTransaction: %w", err)
	}
	return nil
}

// GetTransactions returns a user's coin movements, paginated, newest first.
func (r *WalletRepository) GetTransactions(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction
	err := r.db.SelectContext(ctx, &txns, `
		SELECT t.* FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE w.user_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("wallet_repo.GetTransactions: %w", err)
	}
	return txns, nil
}
