package router

import (
	"log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/xolanidube/mzansi-market-sub000/config"
	"github.com/xolanidube/mzansi-market-sub000/internal/handler"
	"github.com/xolanidube/mzansi-market-sub000/internal/middleware"
	"github.com/xolanidube/mzansi-market-sub000/internal/repository"
	"github.com/xolanidube/mzansi-market-sub000/internal/service"
)

// Setup wires repositories, services and handlers and returns the engine plus
// the notification dispatcher for the caller to run.
func Setup(cfg *config.Config, db *gorm.DB) (*gin.Engine, *service.Dispatcher) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// Repositories
	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	minWithdrawal, err := cfg.Wallet.ParseMinWithdrawal()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	walletSvc := service.NewWalletService(ledgerRepo, withdrawalRepo)
	withdrawalSvc := service.NewWithdrawalService(ledgerRepo, withdrawalRepo, minWithdrawal)
	notifSvc := service.NewNotificationService(notificationRepo)
	processor := service.NewAdminActionProcessor(userRepo, withdrawalSvc, notifSvc)
	dispatcher := service.NewDispatcher(notificationRepo, service.LogDeliverer{},
		cfg.Notifier.PollInterval, cfg.Notifier.MaxAttempts, cfg.Notifier.BatchSize)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	walletHandler := handler.NewWalletHandler(walletSvc)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalSvc, notifSvc)
	notificationHandler := handler.NewNotificationHandler(notifSvc)
	adminHandler := handler.NewAdminHandler(processor, withdrawalSvc, walletSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		wallet := api.Group("/wallet")
		wallet.Use(authMw)
		{
			wallet.GET("", walletHandler.GetWallet)
			wallet.GET("/withdrawals", withdrawalHandler.ListMine)
			wallet.POST("/withdrawals", withdrawalHandler.Create)
			wallet.DELETE("/withdrawals/:id", withdrawalHandler.Cancel)
		}

		notifications := api.Group("/notifications")
		notifications.Use(authMw)
		{
			notifications.GET("", notificationHandler.List)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/withdrawals", adminHandler.ListWithdrawals)
			admin.POST("/withdrawals", adminHandler.ProcessWithdrawal)
			admin.POST("/wallets/:userID/adjust", adminHandler.AdjustWallet)
			admin.GET("/wallets/:userID/audit", adminHandler.AuditWallet)
		}
	}

	return r, dispatcher
}
