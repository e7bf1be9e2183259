package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imarises/TrustScore-FHE/internal/attest"
	"github.com/imarises/TrustScore-FHE/internal/auth"
	"github.com/imarises/TrustScore-FHE/internal/config"
	"github.com/imarises/TrustScore-FHE/internal/db"
	disclosuredomain "github.com/imarises/TrustScore-FHE/internal/domain/disclosure"
	grantsdomain "github.com/imarises/TrustScore-FHE/internal/domain/grants"
	ledgerdomain "github.com/imarises/TrustScore-FHE/internal/domain/ledger"
	scoredomain "github.com/imarises/TrustScore-FHE/internal/domain/score"
	"github.com/imarises/TrustScore-FHE/internal/fhe"
	"github.com/imarises/TrustScore-FHE/internal/http/handlers"
	"github.com/imarises/TrustScore-FHE/internal/observability"
	postgresrepo "github.com/imarises/TrustScore-FHE/internal/repository/postgres"
	"github.com/imarises/TrustScore-FHE/internal/server"
	"github.com/imarises/TrustScore-FHE/internal/ws"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env, "api")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	engine, err := fhe.NewEngineFromConfig(cfg)
	if err != nil {
		logger.Error("failed to build fhe engine", "err", err)
		os.Exit(1)
	}
	oracle, err := attest.NewOracleFromConfig(cfg, engine)
	if err != nil {
		logger.Error("failed to build attestation oracle", "err", err)
		os.Exit(1)
	}

	eventRepo := postgresrepo.NewEventRepository(pool)
	grantManager := grantsdomain.NewManager(postgresrepo.NewGrantRepository(pool))
	ledgerService := ledgerdomain.NewService(postgresrepo.NewLoanRepository(pool), engine, grantManager, eventRepo)
	scoreService := scoredomain.NewService(postgresrepo.NewScoreRepository(pool), ledgerService, engine, grantManager, eventRepo)
	disclosureService := disclosuredomain.NewService(
		ledgerService,
		scoreService,
		grantManager,
		engine,
		oracle,
		postgresrepo.NewOutboxRepository(pool),
	)

	jwtManager := auth.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSigningKey)
	authService := auth.NewService(db.NewAuthRepository(pool), jwtManager, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cfg.LoginMaxSkew, cfg.AuthBootstrapAdminWallet)
	authHandler := handlers.NewAuthHandler(authService, auth.CookieConfig{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure}, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	hub := ws.NewHub()
	notifier := ws.NewNotifier(eventRepo, hub, cfg.WorkerPollInterval)

	r := server.NewRouter(cfg, logger, server.Dependencies{
		Pinger:            pool,
		AuthHandler:       authHandler,
		LoanHandler:       handlers.NewLoanHandler(ledgerService),
		ScoreHandler:      handlers.NewScoreHandler(scoreService),
		DisclosureHandler: handlers.NewDisclosureHandler(disclosureService),
		EventsHandler:     handlers.NewEventsHandler(eventRepo),
		WSHandler:         ws.NewHandler(hub),
		JWTManager:        jwtManager,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	notifierCtx, notifierCancel := context.WithCancel(context.Background())
	defer notifierCancel()
	go func() {
		if err := notifier.Run(notifierCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("event notifier stopped", "err", err)
		}
	}()

	go func() {
		logger.Info("api server starting", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	logger.Info("api server stopped")
}
