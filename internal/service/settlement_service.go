package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/malagaclima/lluviabet/internal/config"
	"github.com/malagaclima/lluviabet/internal/domain"
	"github.com/malagaclima/lluviabet/internal/repository"
	"github.com/malagaclima/lluviabet/internal/weather"
)

// PlantRewarder records the water credit for a won wager. Implementations
// must be idempotent per wager; the settlement transaction carries the write.
type PlantRewarder interface {
	AddWaterReward(ctx context.Context, tx *sqlx.Tx, w *domain.Wager) error
}

// Notifier pushes settlement results out to connected clients. A nil-safe
// no-op is acceptable; settlement never depends on delivery.
type Notifier interface {
	NotifySettlement(report *domain.SettlementReport)
}

// SettlementEngine resolves due wagers against observed weather. Each wager
// settles in its own transaction, so one bad wager or one missing reading
// never blocks the rest of the batch.
type SettlementEngine struct {
	db         *sqlx.DB
	wagerRepo  *repository.WagerRepository
	walletRepo *repository.WalletRepository
	source     weather.Source
	rewarder   PlantRewarder
	notifier   Notifier
	cfg        *config.Config
	logger     *slog.Logger
}

func NewSettlementEngine(
	db *sqlx.DB,
	wagerRepo *repository.WagerRepository,
	walletRepo *repository.WalletRepository,
	source weather.Source,
	rewarder PlantRewarder,
	notifier Notifier,
	cfg *config.Config,
	logger *slog.Logger,
) *SettlementEngine {
	return &SettlementEngine{
		db:         db,
		wagerRepo:  wagerRepo,
		walletRepo: walletRepo,
		source:     source,
		rewarder:   rewarder,
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger.With("service", "settlement"),
	}
}

// ResolveDueWagers settles every pending wager whose resolution instant has
// passed. Wagers that cannot be settled (weather unavailable, store error)
// stay pending and are retried on the next pass.
func (s *SettlementEngine) ResolveDueWagers(ctx context.Context, now time.Time) (*domain.SettlementReport, error) {
	due, err := s.wagerRepo.ListPendingDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("settlement.ResolveDueWagers: %w", err)
	}

	report := &domain.SettlementReport{TotalCoinsWon: decimal.Zero}
	for _, w := range due {
		if err := s.settleOne(ctx, w, report); err != nil {
			report.Skipped++
			s.logger.Warn("wager left pending",
				"wager_id", w.ID,
				"category", w.Category,
				"error", err,
			)
		}
	}

	if len(report.Resolved) > 0 {
		s.logger.Info("settlement pass complete",
			"resolved", len(report.Resolved),
			"won", report.WonCount(),
			"coins_won", report.TotalCoinsWon,
			"skipped", report.Skipped,
		)
		if s.notifier != nil {
			s.notifier.NotifySettlement(report)
		}
	}
	return report, nil
}

// VerifyWager settles a single wager on demand, ahead of the timer. The
// wager must be due; an already-terminal wager is returned as-is so the call
// is safe to repeat.
func (s *SettlementEngine) VerifyWager(ctx context.Context, wagerID uuid.UUID, userID string, now time.Time) (*domain.Wager, error) {
	w, err := s.wagerRepo.GetByID(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, domain.ErrForbidden
	}
	if !w.IsPending() {
		return w, nil
	}
	if !w.IsDue(now) {
		return nil, domain.ErrWagerNotDue
	}

	report := &domain.SettlementReport{TotalCoinsWon: decimal.Zero}
	if err := s.settleOne(ctx, w, report); err != nil {
		return nil, err
	}
	if s.notifier != nil && len(report.Resolved) > 0 {
		s.notifier.NotifySettlement(report)
	}

	// The timer may have beaten us to it; reload for the caller either way.
	return s.wagerRepo.GetByID(ctx, wagerID)
}

// settleOne evaluates and persists one wager. Evaluate, persist, credit, in
// that order; losing the race to another settler is a silent no-op.
func (s *SettlementEngine) settleOne(ctx context.Context, w *domain.Wager, report *domain.SettlementReport) error {
	actual, err := s.observedValue(ctx, w)
	if err != nil {
		return err
	}

	won := s.evaluate(w, actual)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("settlement: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	status := domain.WagerStatusLost
	var payout *decimal.Decimal
	if won {
		status = domain.WagerStatusWon
		p := w.PotentialPayout()
		payout = &p
	}

	if err := s.wagerRepo.MarkResolved(ctx, tx, w.ID, status, actual, payout); err != nil {
		if errors.Is(err, domain.ErrWagerNotPending) {
			// Someone else settled it between the list and the update.
			return nil
		}
		return err
	}

	if won {
		wallet, err := s.walletRepo.GetByUserID(ctx, w.UserID)
		if err != nil {
			return err
		}
		if err := s.walletRepo.AddBalance(ctx, tx, w.UserID, *payout); err != nil {
			return err
		}
		if err := s.walletRepo.LogTransaction(ctx, tx, &domain.Transaction{
			ID:            uuid.New(),
			WalletID:      wallet.ID,
			Type:          domain.TxPayout,
			Amount:        *payout,
			BalanceBefore: wallet.Balance,
			BalanceAfter:  wallet.Balance.Add(*payout),
			RefID:         &w.ID,
			Description:   fmt.Sprintf("payout for won %s wager", w.Category),
		}); err != nil {
			return err
		}
		if s.rewarder != nil {
			if err := s.rewarder.AddWaterReward(ctx, tx, w); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("settlement: commit: %w", err)
	}

	resolvedAt := time.Now()
	w.Status = status
	w.ActualValue = &actual
	w.Payout = payout
	w.ResolvedAt = &resolvedAt

	report.Resolved = append(report.Resolved, w)
	if won {
		report.TotalCoinsWon = report.TotalCoinsWon.Add(*payout)
	}
	return nil
}

// observedValue pulls the reading the wager's category settles against,
// for the calendar day containing the resolution instant.
func (s *SettlementEngine) observedValue(ctx context.Context, w *domain.Wager) (float64, error) {
	switch w.Category {
	case domain.CategoryRainAmount, domain.CategoryRainYes, domain.CategoryRainNo:
		r, err := s.source.GetRainAmount(ctx, w.ResolvesAt)
		if err != nil {
			return 0, err
		}
		return r.AmountMM, nil
	case domain.CategoryTempMin:
		t, err := s.source.GetTemperature(ctx, w.ResolvesAt)
		if err != nil {
			return 0, err
		}
		return t.MinC, nil
	case domain.CategoryTempMax:
		t, err := s.source.GetTemperature(ctx, w.ResolvesAt)
		if err != nil {
			return 0, err
		}
		return t.MaxC, nil
	case domain.CategoryWindMax:
		v, err := s.source.GetWindSpeed(ctx, w.ResolvesAt)
		if err != nil {
			return 0, err
		}
		return v.MaxKmh, nil
	default:
		return 0, domain.ErrInvalidCategory
	}
}

// evaluate applies the category's win rule to the observed value.
func (s *SettlementEngine) evaluate(w *domain.Wager, actual float64) bool {
	b := s.cfg.Betting
	switch w.Category {
	case domain.CategoryRainAmount:
		return math.Abs(w.PredictedValue-actual) <= b.RainToleranceMM
	case domain.CategoryRainYes:
		return actual >= b.WetDayThresholdMM
	case domain.CategoryRainNo:
		return actual < b.WetDayThresholdMM
	case domain.CategoryTempMin, domain.CategoryTempMax:
		return math.Abs(w.PredictedValue-actual) <= b.TempToleranceC
	case domain.CategoryWindMax:
		return math.Abs(w.PredictedValue-actual) <= b.WindToleranceKmh
	default:
		return false
	}
}
