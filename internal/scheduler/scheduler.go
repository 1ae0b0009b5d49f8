// Package scheduler manages the two background goroutines that run the
// wager lifecycle:
//  1. settlementLoop – resolves due wagers on the configured interval.
//  2. retentionLoop  – sweeps old terminal wagers once a day.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/malagaclima/lluviabet/internal/config"
	"github.com/malagaclima/lluviabet/internal/repository"
	"github.com/malagaclima/lluviabet/internal/service"
)

// Scheduler runs the settlement and retention loops. Call Start(ctx) once
// from main(); cancel the context to shut it down gracefully.
type Scheduler struct {
	engine    *service.SettlementEngine
	wagerRepo *repository.WagerRepository
	cfg       *config.Config
	logger    *slog.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(engine *service.SettlementEngine, wagerRepo *repository.WagerRepository, cfg *config.Config, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		engine:    engine,
		wagerRepo: wagerRepo,
		cfg:       cfg,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start launches the background goroutines. It returns immediately; all
// loops run until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.settlementLoop(ctx)
	go s.retentionLoop(ctx)
	s.logger.Info("scheduler started",
		"settle_interval", s.cfg.Betting.SettleInterval,
		"retention_horizon", s.cfg.Betting.RetentionHorizon,
	)
}

// ──────────────────────────────────────────────────────────────────────────────
// settlementLoop
// ──────────────────────────────────────────────────────────────────────────────

// settlementLoop resolves due wagers on every tick. A failed pass is logged
// and retried on the next tick; the affected wagers stay pending.
func (s *Scheduler) settlementLoop(ctx context.Context) {
	defer s.recoverAndLog("settlementLoop")

	ticker := time.NewTicker(s.cfg.Betting.SettleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("settlementLoop: shutting down")
			return
		case <-ticker.C:
			if _, err := s.engine.ResolveDueWagers(ctx, time.Now()); err != nil {
				s.logger.Error("settlementLoop: ResolveDueWagers", "err", err)
			}
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// retentionLoop
// ──────────────────────────────────────────────────────────────────────────────

// retentionLoop deletes terminal wagers older than the retention horizon
// once every 24 hours.
func (s *Scheduler) retentionLoop(ctx context.Context) {
	defer s.recoverAndLog("retentionLoop")

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("retentionLoop: shutting down")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep is the inner body of retentionLoop, extracted so the defer/recover
// in the loop catches panics correctly.
func (s *Scheduler) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.Betting.RetentionHorizon)
	n, err := s.wagerRepo.CleanupOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("retentionLoop: cleanup failed", "err", err)
		return
	}
	if n > 0 {
		s.logger.Info("old wagers swept", "deleted", n, "cutoff", cutoff.Format(time.RFC3339))
	}
}

// recoverAndLog is deferred inside each goroutine to catch unexpected
// panics, log them, and allow the scheduler to continue running.
func (s *Scheduler) recoverAndLog(loop string) {
	if r := recover(); r != nil {
		s.logger.Error("PANIC recovered in scheduler loop", "loop", loop, "panic", r)
	}
}
