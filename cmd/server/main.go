// Package main is the entry point for the oficina stock API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oficina/internal/core/clock"
	"oficina/internal/domain/catalog/product"
	"oficina/internal/domain/inventory"
	"oficina/internal/domain/ledger"
	"oficina/internal/domain/reconcile"
	"oficina/internal/domain/reports"
	"oficina/internal/domain/stockview"
	v1 "oficina/internal/infrastructure/http/v1"
	"oficina/internal/infrastructure/storage/postgres"
	"oficina/internal/infrastructure/storage/postgres/catalog_repo"
	"oficina/internal/infrastructure/storage/postgres/inventory_repo"
	"oficina/internal/infrastructure/storage/postgres/ledger_repo"
	"oficina/internal/infrastructure/storage/postgres/report_repo"
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

	ctx := context.Background()
	log.Info("starting oficina stock server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DB.ConnectionString())
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = cfg.DB.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	clk := clock.System{}

	// --- Repositories ---
	productRepo := catalog_repo.NewProductRepo(txManager)
	movementRepo := ledger_repo.NewMovementRepo(txManager)
	balanceRepo := stockview_repo.NewBalanceRepo(txManager)
	sessionRepo := inventory_repo.NewSessionRepo(txManager)
	reportRepo := report_repo.NewReportRepo(txManager)

	// --- Services ---
	productService := product.NewService(productRepo, txManager)
	viewService := stockview.NewService(balanceRepo, productService, clk)
	ledgerService := ledger.NewService(movementRepo, productService, viewService, txManager, clk)
	viewService.SetSource(ledgerService)
	inventoryService := inventory.NewService(sessionRepo, ledgerService, productService, txManager, clk, auditService)
	reconcileEngine := reconcile.NewEngine(sessionRepo, ledgerService, txManager, clk, auditService)
	reportService := reports.NewService(reportRepo)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:        pool,
		Logger:      log,
		Products:    productService,
		Ledger:      ledgerService,
		StockView:   viewService,
		Inventories: inventoryService,
		Reconcile:   reconcileEngine,
		Reports:     reportService,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.HTTP.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
