// Package main is a one-shot maintenance tool: it settles every due wager
// and sweeps terminal wagers past the retention horizon, then exits. Meant
// for cron or for ops runs when the server's scheduler is down.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // postgres driver

	"github.com/malagaclima/lluviabet/internal/cache"
	"github.com/malagaclima/lluviabet/internal/config"
	"github.com/malagaclima/lluviabet/internal/repository"
	"github.com/malagaclima/lluviabet/internal/service"
	"github.com/malagaclima/lluviabet/internal/weather"
)

func main() {
	settle := flag.Bool("settle", true, "resolve due wagers")
	sweep := flag.Bool("sweep", true, "delete terminal wagers past the retention horizon")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	db, err := sqlx.Connect("postgres", cfg.DB.DSN)
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	wagerRepo := repository.NewWagerRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	plantRepo := repository.NewPlantRewardRepository(db)

	exitCode := 0

	if *settle {
		source := weather.NewOpenMeteoClient(cfg, cache.NewMemoryCache[weather.DayReading]())
		rewardSvc := service.NewPlantRewardService(plantRepo, cfg.Betting.WaterUnitsPerWin, logger)
		engine := service.NewSettlementEngine(db, wagerRepo, walletRepo, source, rewardSvc, nil, cfg, logger)

		report, err := engine.ResolveDueWagers(ctx, time.Now())
		if err != nil {
			logger.Error("settlement pass failed", "err", err)
			exitCode = 1
		} else {
			logger.Info("settlement pass done",
				"resolved", len(report.Resolved),
				"won", report.WonCount(),
				"skipped", report.Skipped,
			)
		}
	}

	if *sweep {
		cutoff := time.Now().Add(-cfg.Betting.RetentionHorizon)
		n, err := wagerRepo.CleanupOlderThan(ctx, cutoff)
		if err != nil {
			logger.Error("retention sweep failed", "err", err)
			exitCode = 1
		} else {
			logger.Info("retention sweep done", "deleted", n, "cutoff", cutoff.Format(time.RFC3339))
		}
	}

	os.Exit(exitCode)
}
