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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/config"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/ports/adapter"
	payAdapters "github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/infra/adapters/payment"
	pg "github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/infra/db/postgres"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/infra/i18n"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/infra/logging"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/infra/metrics"
	red "github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/infra/redis"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/infra/sched"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/infra/token"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/infra/web"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop gateway fallback)")
	flag.Parse()

	// .env is optional; deployment environments inject real variables.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	rateLimiter := red.NewRateLimiter(redisClient)
	statusCache := red.NewStatusCache(redisClient, cfg.Redis.TTL)
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	eventRepo := pg.NewEventRepo(pool)
	withdrawalRepo := pg.NewWithdrawalRepo(pool)
	entitlementRepo := pg.NewEntitlementRepo(pool)
	contentRepo := pg.NewContentRepo(pool)
	financeRepo := pg.NewFinanceRepo(pool)
	userRepo := pg.NewUserRepo(pool)

	// ---- Gateway ----
	var gw adapter.MomoGateway
	if lanari, err := payAdapters.NewLanariGateway(
		cfg.Lanari.ProcessURL, cfg.Lanari.StatusURL, cfg.Lanari.PayoutURL,
		cfg.Lanari.APIKey, cfg.Lanari.APISecret,
	); err == nil {
		gw = lanari
	} else {
		if !cfg.Runtime.Dev {
			logger.Fatal().Err(err).Msg("lanari gateway")
		}
		logger.Warn().Err(err).Msg("lanari gateway not configured, using noop gateway")
		gw = payAdapters.NewNoopGateway()
	}

	translator, err := i18n.NewTranslator(i18n.LocalesFS, "rw")
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}
	signer := token.NewSigner(cfg.Token.JWTSecret, cfg.Token.APIURL)

	// ---- Use cases ----
	accessUC := usecase.NewAccessUseCase(entitlementRepo, contentRepo, userRepo, logger)
	ledgerUC := usecase.NewLedgerUseCase(paymentRepo, contentRepo, financeRepo, logger)

	withdrawalUC := usecase.NewWithdrawalUseCase(withdrawalRepo, financeRepo, gw, tm, logger)
	paymentUC := usecase.NewPaymentUseCase(
		paymentRepo, eventRepo, contentRepo, financeRepo, tm, gw,
		accessUC, ledgerUC, withdrawalUC, signer, statusCache,
		translator, i18n.BalanceRelated,
		usecase.ShareConfig{FilmmakerPct: cfg.Shares.FilmmakerPct, AdminPhone: cfg.Shares.AdminMomoNumber},
		logger,
	)

	// ---- Public API server ----
	srv := web.NewServer(paymentUC, accessUC, withdrawalUC, rateLimiter, cfg.Lanari.APISecret, cfg.Admin.APIKey, logger)
	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second, // gateway charges can take up to a minute
	}
	go func() {
		logger.Info().Str("addr", apiServer.Addr).Msg("public API listening")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("api server error")
		}
	}()

	// ---- Admin / metrics server ----
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	adminServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: adminMux}
	go func() {
		logger.Info().Str("addr", adminServer.Addr).Msg("admin server listening")
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("admin server error")
		}
	}()

	// ---- Workers ----
	reconciler := sched.NewPaymentReconciler(paymentUC, locker, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, logger)
	go func() { _ = reconciler.Run(ctx) }()

	expiry := sched.NewExpiryWorker(time.Hour, accessUC, logger)
	go func() { _ = expiry.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = apiServer.Shutdown(shutdownCtx)
	_ = adminServer.Shutdown(shutdownCtx)
}
