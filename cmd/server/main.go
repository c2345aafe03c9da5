package main

import (
	"context"
	"net/http"

	_ "satshop/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"satshop/internal/auth"
	"satshop/internal/cache"
	"satshop/internal/config"
	"satshop/internal/db"
	"satshop/internal/handler"
	"satshop/internal/jobs"
	"satshop/internal/logger"
	"satshop/internal/model"
	"satshop/internal/repository"
	"satshop/internal/router"
	"satshop/internal/service"
)

// @title Repair Shop Back-Office API
// @version 1.0
// @description Repair order tracking, cash ledger, and role-based user management.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	logger.Setup(cfg.LogFile, cfg.Debug)
	defer zap.S().Sync()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		zap.S().Fatalf("database init: %v", err)
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Client{},
		&model.Order{},
		&model.Part{},
		&model.StatusHistory{},
		&model.CashEntry{},
		&model.Settings{},
	); err != nil {
		zap.S().Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	clientRepo := repository.NewClientRepository(gormDB)
	orderRepo := repository.NewOrderRepository(gormDB)
	cashRepo := repository.NewCashEntryRepository(gormDB)
	settingsRepo := repository.NewSettingsRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	userService := service.NewUserService(userRepo)
	ledgerService := service.NewLedgerService(cashRepo, cacheClient)
	clientService := service.NewClientService(clientRepo)
	orderService := service.NewOrderService(orderRepo, clientRepo, cashRepo, ledgerService, cfg.PublicBaseURL)
	settingsService := service.NewSettingsService(settingsRepo, cacheClient)

	// A fresh or corrupted install must never end up without an admin
	if err := userService.EnsureDefaultAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
		zap.S().Fatalf("ensure default admin: %v", err)
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	cashHandler := handler.NewCashHandler(ledgerService)
	orderHandler := handler.NewOrderHandler(orderService)
	clientHandler := handler.NewClientHandler(clientService)
	settingsHandler := handler.NewSettingsHandler(settingsService)

	// Register routes
	router.Register(
		e,
		cfg,
		authHandler,
		userHandler,
		cashHandler,
		orderHandler,
		clientHandler,
		settingsHandler,
	)

	// Periodic balance verification against the cached value
	reconciler := jobs.NewBalanceReconciler(ledgerService)
	if _, err := reconciler.Start(); err != nil {
		zap.S().Fatalf("start reconciler: %v", err)
	}

	addr := ":" + cfg.ServerPort
	zap.S().Infof("listening on %s", addr)
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		zap.S().Fatalf("server start: %v", err)
	}
}
