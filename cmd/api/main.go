package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadmarket-platform/internal/audit"
	"leadmarket-platform/internal/auth"
	"leadmarket-platform/internal/billing"
	"leadmarket-platform/internal/calls"
	"leadmarket-platform/internal/config"
	"leadmarket-platform/internal/disputes"
	"leadmarket-platform/internal/httpapi"
	"leadmarket-platform/internal/leads"
	"leadmarket-platform/internal/matches"
	"leadmarket-platform/internal/metrics"
	"leadmarket-platform/internal/payments"
	"leadmarket-platform/internal/pricing"
	"leadmarket-platform/internal/providers"
	"leadmarket-platform/internal/reporting"
	"leadmarket-platform/internal/sweep"
	"leadmarket-platform/internal/wallet"
	"leadmarket-platform/pkg/logger"
	"leadmarket-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local development convenience; real deployments set env directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, utils.PostgresConfig{
		DSN:          cfg.PostgresDSN(),
		MaxOpenConns: cfg.DB.MaxOpenConns,
		MaxIdleConns: cfg.DB.MaxIdleConns,
	})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	m := metrics.New()

	// Services, wired bottom-up: wallet and settings first, then the domains
	// that spend money, then routing, which needs everything.
	walletSvc := wallet.NewService(wallet.NewPostgresRepo(db))
	billingSvc := billing.NewService(billing.NewPostgresRepo(db))
	pricingSvc := pricing.NewService(pricing.NewPostgresRepo(db))
	callsSvc := calls.NewService(calls.NewPostgresRepo(db), billingSvc, pricingSvc, walletSvc)
	disputesSvc := disputes.NewService(disputes.NewPostgresRepo(db), callsSvc, walletSvc, billingSvc)
	providersSvc := providers.NewService(providers.NewPostgresRepo(db))

	limiter := leads.NewRedisLimiter(rdb, cfg.Intake.RateLimitPerMinute)
	leadsSvc := leads.NewService(leads.NewPostgresRepo(db), billingSvc, pricingSvc, limiter)
	matchesSvc := matches.NewService(matches.NewPostgresRepo(db), leadsSvc, walletSvc)
	router := leads.NewEngine(leadsSvc, providers.NewDirectory(providersSvc), walletSvc, matchesSvc)

	checkout := payments.NewStripeCheckout(cfg.Stripe.SecretKey, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)
	paymentsSvc := payments.NewService(payments.NewPostgresRepo(db), walletSvc, checkout)

	auditSvc := audit.NewService(audit.NewPostgresRepo(db), log)
	reportingSvc := reporting.NewService(reporting.NewPostgresRepo(db))

	sweeper := sweep.NewRunner(matchesSvc, leadsSvc, callsSvc, billingSvc, log, m)
	if err := sweeper.Start(); err != nil {
		log.Error("sweep init failed", "err", err)
		os.Exit(1)
	}

	h := httpapi.Handlers{
		Auth:                authManager,
		Pricing:             pricingSvc,
		Billing:             billingSvc,
		Wallet:              walletSvc,
		Calls:               callsSvc,
		Disputes:            disputesSvc,
		Leads:               leadsSvc,
		Router:              router,
		Matches:             matchesSvc,
		Providers:           providersSvc,
		Payments:            paymentsSvc,
		Reporting:           reportingSvc,
		Audit:               auditSvc,
		Metrics:             m,
		DB:                  db,
		StripeWebhookSecret: cfg.Stripe.WebhookSecret,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(m.Middleware())

	registerPublicRoutes(r, h)
	registerAuthRoutes(r, h)
	registerProtectedRoutes(r, h, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	sweeper.Stop(shutdownCtx)
}
