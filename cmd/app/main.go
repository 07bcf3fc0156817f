package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"subscription-ledger/internal/config"
	pg "subscription-ledger/internal/infra/db/postgres"
	"subscription-ledger/internal/infra/logging"
	"subscription-ledger/internal/infra/metrics"
	red "subscription-ledger/internal/infra/redis"
	"subscription-ledger/internal/infra/sched"
	"subscription-ledger/internal/infra/web"
	"subscription-ledger/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logging)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	registryRepo := pg.NewRegistryRepo(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient, cfg.Redis.TTL)
	intentRepo := pg.NewIntentRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	payRepo := pg.NewPaymentRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Use cases ----
	registryUC := usecase.NewRegistryUseCase(registryRepo, tm, logger)
	planUC := usecase.NewPlanUseCase(registryRepo, planRepo, tm, logger)
	intentUC := usecase.NewIntentUseCase(registryRepo, planRepo, intentRepo, subRepo, tm, logger)
	subUC := usecase.NewSubscriptionUseCase(registryRepo, planRepo, subRepo, payRepo, tm, logger)

	// ---- HTTP API ----
	auth := web.NewAuthManager(cfg.Server.JWTSecret, 24*time.Hour)
	srv := web.NewServer(registryUC, planUC, intentUC, subUC, auth, rateLimiter, cfg.Server.RateLimit, cfg.Server.RateWindow, logger)

	metrics.SetBuildInfo(version, commit)
	metrics.MustRegister()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Workers ----
	autopay := sched.NewAutoPayWorker(cfg.Scheduler.AutoPayInterval, subUC, logger)
	go func() { _ = autopay.Run(ctx) }()
	expiry := sched.NewIntentExpiryWorker(cfg.Scheduler.IntentExpiryInterval, intentUC, logger)
	go func() { _ = expiry.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
}
