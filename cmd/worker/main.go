// Package main is the entry point for the oficina background worker.
// It runs the periodic stock view reconciliation pass: every cached
// balance is recomputed from the ledger and drift is corrected.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"oficina/internal/core/clock"
	"oficina/internal/domain/catalog/product"
	"oficina/internal/domain/ledger"
	"oficina/internal/domain/stockview"
	"oficina/internal/infrastructure/storage/postgres"
	"oficina/internal/infrastructure/storage/postgres/catalog_repo"
	"oficina/internal/infrastructure/storage/postgres/ledger_repo"
	"oficina/internal/infrastructure/storage/postgres/stockview_repo"
	"oficina/pkg/config"
	"oficina/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.Env == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting oficina stock worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DB.ConnectionString()))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	clk := clock.System{}

	productRepo := catalog_repo.NewProductRepo(txManager)
	movementRepo := ledger_repo.NewMovementRepo(txManager)
	balanceRepo := stockview_repo.NewBalanceRepo(txManager)

	productService := product.NewService(productRepo, txManager)
	viewService := stockview.NewService(balanceRepo, productService, clk)
	ledgerService := ledger.NewService(movementRepo, productService, viewService, txManager, clk)
	viewService.SetSource(ledgerService)

	schedule := cfg.Worker.RebuildSchedule
	scheduler := cron.New()
	_, err = scheduler.AddFunc(schedule, func() {
		runCtx, cancelRun := context.WithTimeout(ctx, 30*time.Minute)
		defer cancelRun()

		start := time.Now()
		log.Info("stock view rebuild started")

		if err := viewService.RebuildAll(runCtx); err != nil {
			log.Errorw("stock view rebuild failed", "error", err)
			return
		}

		log.Infow("stock view rebuild finished",
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
	if err != nil {
		log.Fatalw("invalid rebuild schedule", "schedule", schedule, "error", err)
	}

	scheduler.Start()
	log.Infow("rebuild scheduled", "schedule", schedule)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	log.Info("worker stopped")
}
