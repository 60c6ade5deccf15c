// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"oficina/internal/domain/catalog/product"
	"oficina/internal/domain/inventory"
	"oficina/internal/domain/ledger"
	"oficina/internal/domain/reconcile"
	"oficina/internal/domain/reports"
	"oficina/internal/domain/stockview"
	"oficina/internal/infrastructure/http/v1/handlers"
	"oficina/internal/infrastructure/http/v1/middleware"
	"oficina/internal/infrastructure/storage/postgres"
	"oficina/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	Products    *product.Service
	Ledger      *ledger.Service
	StockView   *stockview.Service
	Inventories *inventory.Service
	Reconcile   *reconcile.Engine
	Reports     *reports.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/healthz")
	{
		health.GET("", healthHandler.Live)
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Catalog
		productHandler := handlers.NewProductHandler(baseHandler, cfg.Products)
		productHandler.RegisterRoutes(v1.Group("/products"))

		// Ledger
		movementHandler := handlers.NewMovementHandler(baseHandler, cfg.Ledger)
		v1.POST("/movements", movementHandler.Append)
		v1.POST("/movements/transfer", movementHandler.Transfer)
		v1.GET("/products/:id/movements", movementHandler.History)
		v1.GET("/products/:id/balance", movementHandler.Balance)

		// Stock view
		stockHandler := handlers.NewStockHandler(baseHandler, cfg.StockView)
		stock := v1.Group("/stock")
		{
			stock.GET("/below-threshold", stockHandler.BelowThreshold)
			stock.GET("/at-zero", stockHandler.AtZero)
			stock.POST("/:id/rebuild", stockHandler.Rebuild)
		}

		// Count sessions
		inventoryHandler := handlers.NewInventoryHandler(baseHandler, cfg.Inventories, cfg.Reconcile)
		inventoryHandler.RegisterRoutes(v1.Group("/inventories"))

		// Reports
		reportsHandler := handlers.NewReportsHandler(baseHandler, cfg.Reports)
		v1.GET("/reports/valuation", reportsHandler.Valuation)
	}

	return router
}
