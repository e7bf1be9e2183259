package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imarises/TrustScore-FHE/internal/attest"
	"github.com/imarises/TrustScore-FHE/internal/config"
	"github.com/imarises/TrustScore-FHE/internal/db"
	disclosuredomain "github.com/imarises/TrustScore-FHE/internal/domain/disclosure"
	grantsdomain "github.com/imarises/TrustScore-FHE/internal/domain/grants"
	ledgerdomain "github.com/imarises/TrustScore-FHE/internal/domain/ledger"
	scoredomain "github.com/imarises/TrustScore-FHE/internal/domain/score"
	"github.com/imarises/TrustScore-FHE/internal/fhe"
	"github.com/imarises/TrustScore-FHE/internal/jobs"
	"github.com/imarises/TrustScore-FHE/internal/observability"
	postgresrepo "github.com/imarises/TrustScore-FHE/internal/repository/postgres"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env, "worker")

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
	outboxRepo := postgresrepo.NewOutboxRepository(pool)
	disclosureService := disclosuredomain.NewService(ledgerService, scoreService, grantManager, engine, oracle, outboxRepo)

	worker := jobs.NewWorker(outboxRepo, disclosureService)

	interval := cfg.WorkerPollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("disclosure worker started", "interval", interval.String(), "batch_size", cfg.WorkerBatchSize)
	for {
		select {
		case <-sigCtx.Done():
			logger.Info("disclosure worker stopped")
			return
		case <-ticker.C:
			runCtx, runCancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := worker.RunOnce(runCtx, cfg.WorkerBatchSize)
			runCancel()
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("disclosure worker run failed", "err", err)
			}
		}
	}
}
