// Package main is the entry point for the lluviabet weather betting API
// server. It wires together all services and starts the HTTP server
// alongside the WebSocket hub and background scheduler.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // postgres driver

	"github.com/malagaclima/lluviabet/internal/api"
	"github.com/malagaclima/lluviabet/internal/cache"
	"github.com/malagaclima/lluviabet/internal/config"
	"github.com/malagaclima/lluviabet/internal/repository"
	"github.com/malagaclima/lluviabet/internal/scheduler"
	"github.com/malagaclima/lluviabet/internal/service"
	"github.com/malagaclima/lluviabet/internal/weather"
	"github.com/malagaclima/lluviabet/internal/ws"
)

func main() {
	// ── 1. Config & logger ────────────────────────────────────────────────────
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.MustLoad()

	var logHandler slog.Handler
	if cfg.IsProd() {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("starting lluviabet server", "env", cfg.Server.Env, "port", cfg.Server.Port)

	// ── 2. Database ───────────────────────────────────────────────────────────
	db, err := sqlx.Connect("postgres", cfg.DB.DSN)
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	if err = db.Ping(); err != nil {
		logger.Error("database ping failed", "err", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// ── 3. Migrations ─────────────────────────────────────────────────────────
	if err = runMigrations(db, "migrations"); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}
	logger.Info("migrations applied")

	// ── 4. Weather source with its cache ──────────────────────────────────────
	var dayCache cache.Cache[weather.DayReading]
	if cfg.Redis.Addr != "" {
		dayCache = cache.NewRedisCache[weather.DayReading](&cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		logger.Info("weather cache: redis", "addr", cfg.Redis.Addr)
	} else {
		dayCache = cache.NewMemoryCache[weather.DayReading]()
		logger.Info("weather cache: in-memory")
	}
	source := weather.NewOpenMeteoClient(cfg, dayCache)

	// ── 5. Repositories ───────────────────────────────────────────────────────
	wagerRepo := repository.NewWagerRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	plantRepo := repository.NewPlantRewardRepository(db)

	// ── 6. WebSocket Hub ──────────────────────────────────────────────────────
	var allowedOrigins []string
	if ori := os.Getenv("WS_ALLOWED_ORIGINS"); ori != "" {
		for _, o := range strings.Split(ori, ",") {
			allowedOrigins = append(allowedOrigins, strings.TrimSpace(o))
		}
	}
	hub := ws.NewHub(allowedOrigins)

	// ── 7. Services ───────────────────────────────────────────────────────────
	window := service.NewWindowPolicy(cfg)
	limiter := service.NewBetLimiter(wagerRepo)
	rewardSvc := service.NewPlantRewardService(plantRepo, cfg.Betting.WaterUnitsPerWin, logger)
	bettingSvc := service.NewBettingService(db, wagerRepo, walletRepo, source, window, limiter, cfg, logger)
	walletSvc := service.NewWalletService(db, walletRepo, cfg, logger)
	engine := service.NewSettlementEngine(db, wagerRepo, walletRepo, source, rewardSvc, hub, cfg, logger)

	// ── 8. Root context + signal handling ─────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 9. Start WS Hub ───────────────────────────────────────────────────────
	go hub.Run()
	logger.Info("websocket hub started")

	// ── 10. Scheduler ─────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(engine, wagerRepo, cfg, logger)
	sched.Start(ctx)

	// ── 11. HTTP Router ───────────────────────────────────────────────────────
	router := api.SetupRouter(api.RouterDeps{
		BettingSvc: bettingSvc,
		Engine:     engine,
		WalletSvc:  walletSvc,
		RewardSvc:  rewardSvc,
		Source:     source,
		Hub:        hub,
		Cfg:        cfg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// ── 12. Start server ──────────────────────────────────────────────────────
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
			stop() // trigger graceful shutdown
		}
	}()

	// ── 13. Graceful shutdown ─────────────────────────────────────────────────
	<-ctx.Done()
	logger.Info("shutdown signal received, draining connections…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "err", err)
	}

	db.Close()
	logger.Info("server stopped cleanly")
}

// runMigrations reads all *.sql files from dir, sorted by name, and executes
// them sequentially. Idempotent: SQL files should use IF NOT EXISTS / ON CONFLICT.
func runMigrations(db *sqlx.DB, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("runMigrations: read dir %q: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("runMigrations: read %q: %w", f, err)
		}
		if _, err = db.Exec(string(data)); err != nil {
			return fmt.Errorf("runMigrations: exec %q: %w", f, err)
		}
		slog.Info("migration applied", "file", filepath.Base(f))
	}
	return nil
}
