// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"afk-code-redeemer/internal/application"
	"afk-code-redeemer/internal/config"
	"afk-code-redeemer/internal/domain/ports/adapter"
	"afk-code-redeemer/internal/infra/adapters/lilith"
	"afk-code-redeemer/internal/infra/adapters/sources"
	tele "afk-code-redeemer/internal/infra/adapters/telegram"
	pg "afk-code-redeemer/internal/infra/db/postgres"
	"afk-code-redeemer/internal/infra/logging"
	"afk-code-redeemer/internal/infra/metrics"
	red "afk-code-redeemer/internal/infra/redis"
	"afk-code-redeemer/internal/infra/web"
	"afk-code-redeemer/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no real bot)")
	flag.Parse()

	// Secrets live in the environment; config.yaml references them as ${VAR}.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	rateLimiter := red.NewRateLimiter(redisClient)
	stateRepo := red.NewStateRepo(redisClient)
	codeCache := red.NewCodeCache(redisClient, cfg.Redis.TTL)
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	ledgerRepo := pg.NewPostgresLedgerRepo(pool)
	operatorRepo := pg.NewPostgresOperatorRepo(pool)

	// ---- Listing sources ----
	srcClient := &http.Client{Timeout: cfg.Sources.Timeout}
	scrapers := []adapter.SourceScraper{
		sources.NewAFKGuideScraper(cfg.Sources.AFKGuideURL, srcClient),
		sources.NewLolvvvScraper(cfg.Sources.LolvvvURL, srcClient),
	}

	// ---- Use cases ----
	aggregatorUC := usecase.NewAggregatorUseCase(scrapers, logger)
	ledgerUC := usecase.NewLedgerUseCase(ledgerRepo)
	// A manual single-code redeem can pace tighter than a parsed batch.
	quickUC := usecase.NewRedeemerUseCase(ledgerUC, usecase.NewFixedPacer(cfg.Redeemer.Delay), cfg.Redeemer.MaxPerRun, logger)
	batchUC := usecase.NewRedeemerUseCase(ledgerUC, usecase.NewFixedPacer(cfg.Redeemer.BatchDelay), cfg.Redeemer.MaxPerRun, logger)

	// ---- Redemption gateway ----
	sessions := lilith.NewFactory(cfg.Gateway, logger)

	// ---- Facade ----
	facade := application.NewBotFacade(
		aggregatorUC, ledgerUC, quickUC, batchUC,
		sessions, operatorRepo, stateRepo, codeCache, locker, logger,
	)

	// ---- Telegram ----
	var bot adapter.TelegramBot
	if cfg.Runtime.Dev {
		bot = tele.NewNoopBotAdapter()
	} else {
		bot, err = tele.NewRealTelegramBotAdapter(&cfg.Bot, facade, rateLimiter, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
	}
	go func() {
		if err := bot.StartPolling(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Admin HTTP server ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, "", cfg.Admin.SessionTTL)
	adminSrv := web.NewServer(ledgerUC, auth, cfg.Admin.APIKey, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler: adminSrv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("admin API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("admin server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("admin server shutdown")
	}
}
