// File: cmd/app/main.go
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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"circles-platform/internal/config"
	"circles-platform/internal/domain/ports/adapter"
	billingAdapters "circles-platform/internal/infra/adapters/billing"
	"circles-platform/internal/infra/api"
	pg "circles-platform/internal/infra/db/postgres"
	"circles-platform/internal/infra/logging"
	"circles-platform/internal/infra/metrics"
	"circles-platform/internal/infra/preview"
	red "circles-platform/internal/infra/redis"
	"circles-platform/internal/infra/sched"
	"circles-platform/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop billing gateway)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.PoolSize))
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
	selectedStore := red.NewSelectedCircleStore(redisClient, cfg.Redis.TTL)

	// ---- Repositories ----
	circleRepo := pg.NewPostgresCircleRepo(pool)
	planRepo := pg.NewPostgresPlanRepo(pool)
	offerRepo := pg.NewPostgresRescueOfferRepo(pool)
	notifRepo := pg.NewPostgresNotificationRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Billing gateway ----
	var gw adapter.BillingGateway
	if cfg.Runtime.Dev {
		gw = billingAdapters.NewNoopBillingGateway()
		logger.Warn().Msg("billing gateway: noop (dev)")
	} else {
		sg, err := billingAdapters.NewStripeGateway(cfg.Billing.Stripe.SecretKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("stripe gateway")
		}
		gw = sg
	}

	prices := usecase.PriceMap{
		FamilyPriceID:   cfg.Billing.Stripe.FamilyPriceID,
		ExtendedPriceID: cfg.Billing.Stripe.ExtendedPriceID,
	}

	// ---- Use cases ----
	capUC := usecase.NewCapacityUseCase(circleRepo, planRepo)
	dirUC := usecase.NewDirectoryUseCase(circleRepo, selectedStore)
	transferUC := usecase.NewTransferUseCase(circleRepo, planRepo, offerRepo, notifRepo, txManager, logger)
	billingUC := usecase.NewBillingUseCase(gw, planRepo, circleRepo, offerRepo, prices, logger)

	// ---- Link preview ----
	cache, err := preview.NewCache(cfg.Preview.CacheSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("preview cache")
	}
	fetcher := preview.NewFetcher(cache, cfg.Preview.FetchTimeout, cfg.Preview.MaxBodyBytes, logger)

	// ---- Metrics endpoint ----
	metrics.MustRegister()
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	adminMux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	adminSrv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: adminMux}
	go func() {
		logger.Info().Str("addr", adminSrv.Addr).Msg("admin listening")
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server")
		}
	}()

	// ---- API server ----
	apiSrv := api.NewServer(cfg, billingUC, transferUC, dirUC, capUC, fetcher, rateLimiter, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: apiSrv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("api listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("api server")
		}
	}()

	// ---- Rescue sweeper ----
	sweeper := sched.NewRescueSweeper(cfg.Scheduler.RescueSweepInterval, transferUC, logger)
	go func() {
		if err := sweeper.Run(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("rescue sweeper stopped")
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	_ = adminSrv.Shutdown(shutdownCtx)
}
