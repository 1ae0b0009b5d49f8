package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/malagaclima/lluviabet/internal/domain"
	"github.com/malagaclima/lluviabet/internal/repository"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

// TestMarkResolvedGuard verifies the status guard: when the UPDATE matches
// zero rows (the wager was already settled or cancelled), the repo reports
// ErrWagerNotPending instead of silently succeeding.
func TestMarkResolvedGuard(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewWagerRepository(db)
	wagerID := uuid.New()
	payout := decimal.RequireFromString("25.00")

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE wagers`).
		WithArgs("won", 12.5, &payout, wagerID).
		WillReturnResult(sqlmock.NewResult(0, 0)) // lost the race

	tx, err := db.Beginx()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	err = repo.MarkResolved(context.Background(), tx, wagerID, domain.WagerStatusWon, 12.5, &payout)
	if !errors.Is(err, domain.ErrWagerNotPending) {
		t.Errorf("expected ErrWagerNotPending, got %v", err)
	}
}

// TestMarkResolvedHappyPath: one row updated means the caller owns the
// settlement and may credit the payout.
func TestMarkResolvedHappyPath(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewWagerRepository(db)
	wagerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE wagers`).
		WithArgs("lost", 3.0, nil, wagerID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Beginx()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := repo.MarkResolved(context.Background(), tx, wagerID, domain.WagerStatusLost, 3.0, nil); err != nil {
		t.Errorf("MarkResolved: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// TestMarkResolvedRejectsNonSettlementStatus: only won/lost may flow through
// the settlement transition.
func TestMarkResolvedRejectsNonSettlementStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewWagerRepository(db)

	mock.ExpectBegin()
	tx, err := db.Beginx()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	err = repo.MarkResolved(context.Background(), tx, uuid.New(), domain.WagerStatusCancelled, 0, nil)
	if err == nil {
		t.Error("expected an error for a cancelled status through MarkResolved")
	}
}

// TestMarkCancelledGuard: cancellation has the same zero-rows semantics.
func TestMarkCancelledGuard(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewWagerRepository(db)
	wagerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE wagers`).
		WithArgs(wagerID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Beginx()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := repo.MarkCancelled(context.Background(), tx, wagerID); !errors.Is(err, domain.ErrWagerNotPending) {
		t.Errorf("expected ErrWagerNotPending, got %v", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewWagerRepository(db)
	wagerID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM wagers WHERE id`).
		WithArgs(wagerID).
		WillReturnRows(sqlmock.NewRows([]string{"id"})) // empty result set

	_, err := repo.GetByID(context.Background(), wagerID)
	if !errors.Is(err, domain.ErrWagerNotFound) {
		t.Errorf("expected ErrWagerNotFound, got %v", err)
	}
}

// TestCountPendingByCategories checks the IN-expansion path used by the
// rain-group limiter.
func TestCountPendingByCategories(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewWagerRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM wagers`).
		WithArgs("user-1", "rain_amount", "rain_yes").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := repo.CountPendingByCategories(context.Background(), "user-1",
		[]domain.BetCategory{domain.CategoryRainAmount, domain.CategoryRainYes})
	if err != nil {
		t.Fatalf("CountPendingByCategories: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

// TestCleanupOlderThan checks the retention sweep reports the deleted count.
func TestCleanupOlderThan(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewWagerRepository(db)
	cutoff := time.Now().Add(-30 * 24 * time.Hour)

	mock.ExpectExec(`DELETE FROM wagers`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.CleanupOlderThan(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("CleanupOlderThan: %v", err)
	}
	if n != 7 {
		t.Errorf("deleted = %d, want 7", n)
	}
}
