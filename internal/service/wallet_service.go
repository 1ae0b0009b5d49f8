package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/malagaclima/lluviabet/internal/config"
	"github.com/malagaclima/lluviabet/internal/domain"
	"github.com/malagaclima/lluviabet/internal/repository"
)

// WalletService exposes balance reads and the daily reward claim. Wallets
// are created lazily with the configured starting balance on first touch.
type WalletService struct {
	db         *sqlx.DB
	walletRepo *repository.WalletRepository
	cfg        *config.Config
	logger     *slog.Logger
}

func NewWalletService(db *sqlx.DB, walletRepo *repository.WalletRepository, cfg *config.Config, logger *slog.Logger) *WalletService {
	return &WalletService{
		db:         db,
		walletRepo: walletRepo,
		cfg:        cfg,
		logger:     logger.With("service", "wallet"),
	}
}

// GetWallet returns the user's wallet, creating it with the starting
// balance if this is the first time the user shows up.
func (s *WalletService) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	return s.walletRepo.GetOrCreate(ctx, userID, decimal.NewFromFloat(s.cfg.Betting.StartingBalance))
}

// ClaimDailyReward credits the daily bonus if at least 24 hours have passed
// since the last claim. The guard lives in the UPDATE's WHERE clause, so
// two concurrent claims can never both succeed.
func (s *WalletService) ClaimDailyReward(ctx context.Context, userID string) (*domain.Wallet, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	reward := decimal.NewFromFloat(s.cfg.Betting.DailyReward)
	now := time.Now()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("wallet.ClaimDailyReward: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.walletRepo.ClaimDailyReward(ctx, tx, userID, reward, now); err != nil {
		return nil, err
	}
	if err := s.walletRepo.LogTransaction(ctx, tx, &domain.Transaction{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		Type:          domain.TxDailyReward,
		Amount:        reward,
		BalanceBefore: wallet.Balance,
		BalanceAfter:  wallet.Balance.Add(reward),
		Description:   "daily reward",
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("wallet.ClaimDailyReward: commit: %w", err)
	}

	s.logger.Info("daily reward claimed", "user_id", userID, "amount", reward)
	return s.walletRepo.GetByUserID(ctx, userID)
}

// GetTransactions returns the user's coin audit log, newest first.
func (s *WalletService) GetTransactions(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.walletRepo.GetTransactions(ctx, userID, limit, offset)
}
