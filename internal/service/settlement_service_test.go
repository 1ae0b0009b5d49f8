package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/malagaclima/lluviabet/internal/config"
	"github.com/malagaclima/lluviabet/internal/domain"
	"github.com/malagaclima/lluviabet/internal/repository"
	"github.com/malagaclima/lluviabet/internal/service"
	"github.com/malagaclima/lluviabet/internal/weather"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubSource serves fixed readings, or an error when failing is set.
type stubSource struct {
	rain    weather.RainReading
	temp    weather.TemperatureReading
	wind    weather.WindReading
	failing bool
}

func (s *stubSource) GetRainAmount(context.Context, time.Time) (weather.RainReading, error) {
	if s.failing {
		return weather.RainReading{}, weather.ErrUnavailable
	}
	return s.rain, nil
}

func (s *stubSource) GetTemperature(context.Context, time.Time) (weather.TemperatureReading, error) {
	if s.failing {
		return weather.TemperatureReading{}, weather.ErrUnavailable
	}
	return s.temp, nil
}

func (s *stubSource) GetWindSpeed(context.Context, time.Time) (weather.WindReading, error) {
	if s.failing {
		return weather.WindReading{}, weather.ErrUnavailable
	}
	return s.wind, nil
}

// captureNotifier records the reports it receives.
type captureNotifier struct {
	reports []*domain.SettlementReport
}

func (n *captureNotifier) NotifySettlement(r *domain.SettlementReport) {
	n.reports = append(n.reports, r)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func testEngineConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Betting.RainToleranceMM = 0.5
	cfg.Betting.TempToleranceC = 1.0
	cfg.Betting.WindToleranceKmh = 5.0
	cfg.Betting.WetDayThresholdMM = 0.1
	cfg.Betting.WaterUnitsPerWin = 1
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(t *testing.T, source weather.Source, notifier service.Notifier) (*service.SettlementEngine, sqlmock.Sqlmock) {
	t.Helper()
	rawDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { rawDB.Close() })
	db := sqlx.NewDb(rawDB, "postgres")

	wagerRepo := repository.NewWagerRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	rewarder := service.NewPlantRewardService(repository.NewPlantRewardRepository(db), 1, discardLogger())

	engine := service.NewSettlementEngine(db, wagerRepo, walletRepo, source, rewarder, notifier, testEngineConfig(), discardLogger())
	return engine, mock
}

var wagerColumns = []string{
	"id", "user_id", "category", "predicted_value", "stake", "multiplier",
	"status", "actual_value", "payout", "placed_at", "resolves_at", "resolved_at",
}

func pendingWagerRow(id uuid.UUID, category string, predicted float64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(wagerColumns).AddRow(
		id, "user-1", category, predicted, "10.00", "2.00",
		"pending", nil, nil, now.Add(-13*time.Hour), now.Add(-time.Hour), nil)
}

// ── Tests ─────────────────────────────────────────────────────────────────────

// TestResolveDueWagersWin walks the full winning path: guarded status flip,
// payout credit, audit log, water reward, commit, notification.
func TestResolveDueWagersWin(t *testing.T) {
	wagerID := uuid.New()
	walletID := uuid.New()
	source := &stubSource{wind: weather.WindReading{MaxKmh: 22}}
	notifier := &captureNotifier{}
	engine, mock := newEngine(t, source, notifier)

	mock.ExpectQuery(`SELECT \* FROM wagers WHERE status = 'pending'`).
		WillReturnRows(pendingWagerRow(wagerID, "wind_max", 20)) // |20−22| ≤ 5 → win

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE wagers`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM wallets WHERE user_id`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "balance", "last_daily_claim_at", "created_at", "updated_at"}).
			AddRow(walletID, "user-1", "90.00", nil, time.Now(), time.Now()))
	mock.ExpectExec(`UPDATE wallets SET balance = balance \+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO transactions`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO plant_rewards`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	report, err := engine.ResolveDueWagers(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ResolveDueWagers: %v", err)
	}
	if len(report.Resolved) != 1 {
		t.Fatalf("resolved = %d, want 1", len(report.Resolved))
	}
	w := report.Resolved[0]
	if w.Status != domain.WagerStatusWon {
		t.Errorf("status = %s, want won", w.Status)
	}
	if w.Payout == nil || !w.Payout.Equal(decimal.RequireFromString("20.00")) {
		t.Errorf("payout = %v, want 20.00", w.Payout)
	}
	if !report.TotalCoinsWon.Equal(decimal.RequireFromString("20.00")) {
		t.Errorf("total coins won = %s, want 20.00", report.TotalCoinsWon)
	}
	if len(notifier.reports) != 1 {
		t.Errorf("notifier received %d reports, want 1", len(notifier.reports))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// TestResolveDueWagersLoss: no wallet touch, no reward, just the status flip.
func TestResolveDueWagersLoss(t *testing.T) {
	wagerID := uuid.New()
	source := &stubSource{temp: weather.TemperatureReading{MaxC: 35}}
	engine, mock := newEngine(t, source, nil)

	mock.ExpectQuery(`SELECT \* FROM wagers WHERE status = 'pending'`).
		WillReturnRows(pendingWagerRow(wagerID, "temp_max", 28)) // |28−35| > 1 → loss

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE wagers`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	report, err := engine.ResolveDueWagers(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ResolveDueWagers: %v", err)
	}
	if len(report.Resolved) != 1 || report.Resolved[0].Status != domain.WagerStatusLost {
		t.Fatalf("expected one lost wager, got %+v", report.Resolved)
	}
	if report.Resolved[0].Payout != nil {
		t.Errorf("lost wager must carry no payout, got %v", report.Resolved[0].Payout)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// TestResolveDueWagersSourceDown: the wager is skipped and stays pending —
// never defaulted to a loss.
func TestResolveDueWagersSourceDown(t *testing.T) {
	engine, mock := newEngine(t, &stubSource{failing: true}, nil)

	mock.ExpectQuery(`SELECT \* FROM wagers WHERE status = 'pending'`).
		WillReturnRows(pendingWagerRow(uuid.New(), "rain_amount", 5))

	report, err := engine.ResolveDueWagers(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ResolveDueWagers: %v", err)
	}
	if len(report.Resolved) != 0 {
		t.Errorf("resolved = %d, want 0", len(report.Resolved))
	}
	if report.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", report.Skipped)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// TestResolveDueWagersLostRace: when the guarded UPDATE matches zero rows,
// settlement treats the wager as someone else's and reports nothing.
func TestResolveDueWagersLostRace(t *testing.T) {
	source := &stubSource{wind: weather.WindReading{MaxKmh: 22}}
	notifier := &captureNotifier{}
	engine, mock := newEngine(t, source, notifier)

	mock.ExpectQuery(`SELECT \* FROM wagers WHERE status = 'pending'`).
		WillReturnRows(pendingWagerRow(uuid.New(), "wind_max", 20))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE wagers`).
		WillReturnResult(sqlmock.NewResult(0, 0)) // another settler got here first
	mock.ExpectRollback()

	report, err := engine.ResolveDueWagers(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ResolveDueWagers: %v", err)
	}
	if len(report.Resolved) != 0 || report.Skipped != 0 {
		t.Errorf("lost race must be a silent no-op, got %+v", report)
	}
	if len(notifier.reports) != 0 {
		t.Errorf("no notification expected, got %d", len(notifier.reports))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// TestVerifyWagerNotDue: manual verification before the resolution instant
// is refused.
func TestVerifyWagerNotDue(t *testing.T) {
	wagerID := uuid.New()
	engine, mock := newEngine(t, &stubSource{}, nil)

	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM wagers WHERE id`).
		WithArgs(wagerID).
		WillReturnRows(sqlmock.NewRows(wagerColumns).AddRow(
			wagerID, "user-1", "temp_max", 30.0, "10.00", "2.00",
			"pending", nil, nil, now, now.Add(6*time.Hour), nil))

	_, err := engine.VerifyWager(context.Background(), wagerID, "user-1", now)
	if !errors.Is(err, domain.ErrWagerNotDue) {
		t.Errorf("expected ErrWagerNotDue, got %v", err)
	}
}

// TestVerifyWagerWrongOwner: a wager can only be verified by its owner.
func TestVerifyWagerWrongOwner(t *testing.T) {
	wagerID := uuid.New()
	engine, mock := newEngine(t, &stubSource{}, nil)

	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM wagers WHERE id`).
		WithArgs(wagerID).
		WillReturnRows(sqlmock.NewRows(wagerColumns).AddRow(
			wagerID, "user-1", "temp_max", 30.0, "10.00", "2.00",
			"pending", nil, nil, now, now.Add(-time.Hour), nil))

	_, err := engine.VerifyWager(context.Background(), wagerID, "someone-else", now)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

// TestVerifyWagerAlreadyTerminal: repeating verification on a settled wager
// returns it unchanged instead of erroring.
func TestVerifyWagerAlreadyTerminal(t *testing.T) {
	wagerID := uuid.New()
	engine, mock := newEngine(t, &stubSource{}, nil)

	now := time.Now()
	payout := "20.00"
	mock.ExpectQuery(`SELECT \* FROM wagers WHERE id`).
		WithArgs(wagerID).
		WillReturnRows(sqlmock.NewRows(wagerColumns).AddRow(
			wagerID, "user-1", "wind_max", 20.0, "10.00", "2.00",
			"won", 22.0, payout, now.Add(-26*time.Hour), now.Add(-2*time.Hour), now.Add(-time.Hour)))

	w, err := engine.VerifyWager(context.Background(), wagerID, "user-1", now)
	if err != nil {
		t.Fatalf("VerifyWager: %v", err)
	}
	if w.Status != domain.WagerStatusWon {
		t.Errorf("status = %s, want won", w.Status)
	}
}
