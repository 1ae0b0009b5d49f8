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
	"github.com/malagaclima/lluviabet/internal/weather"
)

// BettingService owns the wager lifecycle up to settlement: quoting odds,
// placing wagers, cancelling them, and listing them back to the player.
type BettingService struct {
	db         *sqlx.DB
	wagerRepo  *repository.WagerRepository
	walletRepo *repository.WalletRepository
	source     weather.Source
	window     *WindowPolicy
	limiter    *BetLimiter
	cfg        *config.Config
	logger     *slog.Logger
}

func NewBettingService(
	db *sqlx.DB,
	wagerRepo *repository.WagerRepository,
	walletRepo *repository.WalletRepository,
	source weather.Source,
	window *WindowPolicy,
	limiter *BetLimiter,
	cfg *config.Config,
	logger *slog.Logger,
) *BettingService {
	return &BettingService{
		db:         db,
		wagerRepo:  wagerRepo,
		walletRepo: walletRepo,
		source:     source,
		window:     window,
		limiter:    limiter,
		cfg:        cfg,
		logger:     logger.With("service", "betting"),
	}
}

// OddsQuote is a preview of the multiplier a wager would be placed at.
type OddsQuote struct {
	Category           domain.BetCategory `json:"category"`
	PredictedValue     float64            `json:"predicted_value"`
	Multiplier         decimal.Decimal    `json:"multiplier"`
	ImpliedProbability decimal.Decimal    `json:"implied_probability"`
	WindowOpen         bool               `json:"window_open"`
	RemainingBets      int                `json:"remaining_bets"`
}

// QuoteOdds computes the multiplier a wager would receive right now, without
// placing anything. The quote is informational; the binding multiplier is the
// one frozen inside PlaceWager.
func (s *BettingService) QuoteOdds(ctx context.Context, userID string, category domain.BetCategory, predicted float64) (*OddsQuote, error) {
	if !category.IsValid() {
		return nil, domain.ErrInvalidCategory
	}

	now := time.Now()
	reference, err := s.referenceValue(ctx, category, now)
	if err != nil {
		return nil, err
	}

	multiplier, err := domain.ComputeOdds(category, predicted, reference)
	if err != nil {
		return nil, fmt.Errorf("betting.QuoteOdds: %w", err)
	}

	remaining, err := s.limiter.Remaining(ctx, userID, category, now)
	if err != nil {
		return nil, err
	}

	return &OddsQuote{
		Category:           category,
		PredictedValue:     predicted,
		Multiplier:         multiplier,
		ImpliedProbability: domain.ImpliedProbability(multiplier),
		WindowOpen:         s.window.IsWindowOpen(category, now),
		RemainingBets:      remaining,
	}, nil
}

// PlaceWager validates the request, freezes the multiplier from current
// conditions, and atomically deducts the stake and stores the wager. Either
// both happen or neither does.
func (s *BettingService) PlaceWager(ctx context.Context, req domain.PlaceWagerRequest) (*domain.Wager, error) {
	spec, ok := domain.Spec(req.Category)
	if !ok {
		return nil, domain.ErrInvalidCategory
	}

	minStake := decimal.NewFromFloat(s.cfg.Betting.MinStake)
	if req.Stake.LessThan(minStake) {
		return nil, domain.ErrStakeTooSmall
	}

	now := time.Now()
	if !s.window.IsWindowOpen(req.Category, now) {
		return nil, domain.ErrBettingWindowClosed
	}
	if err := s.limiter.Check(ctx, req.UserID, req.Category, now); err != nil {
		return nil, err
	}

	reference, err := s.referenceValue(ctx, req.Category, now)
	if err != nil {
		return nil, err
	}
	multiplier, err := domain.ComputeOdds(req.Category, req.PredictedValue, reference)
	if err != nil {
		return nil, fmt.Errorf("betting.PlaceWager: %w", err)
	}

	// Make sure the wallet row exists before we try to lock it.
	wallet, err := s.walletRepo.GetOrCreate(ctx, req.UserID, decimal.NewFromFloat(s.cfg.Betting.StartingBalance))
	if err != nil {
		return nil, fmt.Errorf("betting.PlaceWager: %w", err)
	}

	w := &domain.Wager{
		ID:             uuid.New(),
		UserID:         req.UserID,
		Category:       req.Category,
		PredictedValue: req.PredictedValue,
		Stake:          req.Stake,
		Multiplier:     multiplier,
		Status:         domain.WagerStatusPending,
		PlacedAt:       now,
		ResolvesAt:     now.Add(spec.ResolutionOffset),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("betting.PlaceWager: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.walletRepo.DeductBalance(ctx, tx, req.UserID, req.Stake); err != nil {
		return nil, err
	}
	if err := s.wagerRepo.Create(ctx, tx, w); err != nil {
		return nil, err
	}
	if err := s.walletRepo.LogTransaction(ctx, tx, &domain.Transaction{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		Type:          domain.TxStake,
		Amount:        req.Stake.Neg(),
		BalanceBefore: wallet.Balance,
		BalanceAfter:  wallet.Balance.Sub(req.Stake),
		RefID:         &w.ID,
		Description:   fmt.Sprintf("stake on %s wager", w.Category),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("betting.PlaceWager: commit: %w", err)
	}

	s.logger.Info("wager placed",
		"wager_id", w.ID,
		"user_id", w.UserID,
		"category", w.Category,
		"stake", w.Stake,
		"multiplier", w.Multiplier,
		"resolves_at", w.ResolvesAt,
	)
	return w, nil
}

// CancelWager refunds a pending wager before its resolution instant. The
// status guard in MarkCancelled means a cancellation racing settlement can
// never double-spend the stake.
func (s *BettingService) CancelWager(ctx context.Context, wagerID uuid.UUID, userID string) (*domain.Wager, error) {
	w, err := s.wagerRepo.GetByID(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, domain.ErrForbidden
	}
	if !w.IsPending() {
		return nil, domain.ErrWagerNotPending
	}
	if w.IsDue(time.Now()) {
		return nil, domain.ErrCancelAfterDue
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("betting.CancelWager: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.wagerRepo.MarkCancelled(ctx, tx, w.ID); err != nil {
		return nil, err
	}
	if err := s.walletRepo.AddBalance(ctx, tx, userID, w.Stake); err != nil {
		return nil, err
	}
	if err := s.walletRepo.LogTransaction(ctx, tx, &domain.Transaction{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		Type:          domain.TxRefund,
		Amount:        w.Stake,
		BalanceBefore: wallet.Balance,
		BalanceAfter:  wallet.Balance.Add(w.Stake),
		RefID:         &w.ID,
		Description:   fmt.Sprintf("refund for cancelled %s wager", w.Category),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("betting.CancelWager: commit: %w", err)
	}

	now := time.Now()
	w.Status = domain.WagerStatusCancelled
	w.ResolvedAt = &now

	s.logger.Info("wager cancelled", "wager_id", w.ID, "user_id", userID, "refund", w.Stake)
	return w, nil
}

// GetWager returns a single wager, enforcing ownership.
func (s *BettingService) GetWager(ctx context.Context, wagerID uuid.UUID, userID string) (*domain.Wager, error) {
	w, err := s.wagerRepo.GetByID(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return w, nil
}

// ListWagers returns the user's wagers newest first.
func (s *BettingService) ListWagers(ctx context.Context, userID string, limit, offset int) ([]*domain.Wager, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.wagerRepo.ListByUser(ctx, userID, limit, offset)
}

// referenceValue fetches the current condition the odds formula anchors on.
// Only the rain categories depend on it; for the fixed band tables it is
// zero.
func (s *BettingService) referenceValue(ctx context.Context, category domain.BetCategory, now time.Time) (float64, error) {
	switch category {
	case domain.CategoryRainAmount:
		r, err := s.source.GetRainAmount(ctx, now)
		if err != nil {
			return 0, fmt.Errorf("betting: rain reference: %w", err)
		}
		return r.AmountMM, nil
	case domain.CategoryRainYes, domain.CategoryRainNo:
		r, err := s.source.GetRainAmount(ctx, now)
		if err != nil {
			return 0, fmt.Errorf("betting: rain chance reference: %w", err)
		}
		return r.ChancePct, nil
	default:
		return 0, nil
	}
}
