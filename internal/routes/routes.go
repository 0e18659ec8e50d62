// Package routes wires repositories, services, and handlers and registers
// every HTTP route with its middleware.
package routes

import (
	"github.com/bbraka/wallet-pay-sub000/internal/handlers"
	"github.com/bbraka/wallet-pay-sub000/internal/middleware"
	"github.com/bbraka/wallet-pay-sub000/internal/repositories"
	"github.com/bbraka/wallet-pay-sub000/internal/services/auth"
	"github.com/bbraka/wallet-pay-sub000/internal/services/ledger"
	"github.com/bbraka/wallet-pay-sub000/internal/services/order"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	userRepo := repositories.NewUserRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	txnRepo := repositories.NewTransactionRepository(db)
	providerRepo := repositories.NewProviderRepository(db)
	txRunner := repositories.NewTxRunner(db)

	ledgerService := ledger.NewService(
		userRepo,
		txnRepo,
		txRunner,
		repositories.Cache,
		ledger.NoopMetricsCollector{},
		ledger.Config{},
	)
	orderService := order.NewService(
		orderRepo,
		userRepo,
		providerRepo,
		ledgerService,
		txRunner,
		repositories.Cache,
	)

	authService := auth.NewService(userRepo)

	authHandler := handlers.NewAuthHandler(authService)
	orderHandler := handlers.NewOrderHandler(orderService)
	walletHandler := handlers.NewWalletHandler(ledgerService)
	adminHandler := handlers.NewAdminHandler(orderService, ledgerService, providerRepo)
	healthHandler := handlers.NewHealthHandler(db, repositories.Cache)

	app.Get("/health", healthHandler.Check)

	app.Post("/auth/register", authHandler.Register)
	app.Post("/auth/login", authHandler.Login)

	api := app.Group("/api", middleware.Auth)

	api.Get("/wallet/balance", walletHandler.GetBalance)
	api.Get("/wallet/transactions", walletHandler.ListTransactions)

	api.Post("/orders", orderHandler.CreateOrder)
	api.Get("/orders", orderHandler.ListOrders)
	api.Get("/orders/:id", orderHandler.GetOrder)
	api.Post("/orders/:id/confirm", orderHandler.ConfirmOrder)
	api.Post("/orders/:id/cancel", orderHandler.CancelOrder)

	admin := api.Group("/admin", middleware.AdminOnly)
	admin.Post("/orders", adminHandler.CreateOrder)
	admin.Post("/orders/:id/confirm", adminHandler.ConfirmOrder)
	admin.Post("/orders/:id/reject", adminHandler.RejectOrder)
	admin.Post("/transactions", adminHandler.CreateManualTransaction)
	admin.Get("/users/:id/reconcile", adminHandler.Reconcile)
	admin.Get("/providers", adminHandler.ListProviders)
}
