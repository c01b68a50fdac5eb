// Package main is the entry point for the API server.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitcash/internal/config"
	"bitcash/internal/handlers"
	"bitcash/internal/logging"
	"bitcash/internal/repositories"
	"bitcash/internal/repositories/cache"
	"bitcash/internal/routes"
	"bitcash/internal/services/credential"
	"bitcash/internal/services/fee"
	"bitcash/internal/services/ledger"
	"bitcash/internal/services/notification"
	"bitcash/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// main performs the following setup:
// - Loads configuration
// - Initializes database and Redis connections
// - Sets up dependency injection
// - Configures routes
// - Serves until SIGINT/SIGTERM, then drains
func main() {
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	db, err := repositories.InitDB(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			logger.Warn("failed to close database connection", zap.Error(err))
		}
	}()
	if err := repositories.Migrate(db); err != nil {
		return err
	}
	logger.Info("connected to database with connection pooling")

	stopStats := make(chan struct{})
	defer close(stopStats)
	go logPoolStats(db, logger, stopStats)

	health := map[string]handlers.Pinger{
		"database": handlers.PingFunc(func(ctx context.Context) error { return repositories.Ping(ctx, db) }),
	}

	// Redis is optional, every cache read falls back to Postgres.
	var (
		walletCache wallet.Cache
		feeCache    fee.Cache
	)
	connectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	redisClient, err := cache.Connect(connectCtx, cfg.Redis)
	cancel()
	if err != nil {
		logger.Warn("redis unavailable, running without cache", zap.Error(err))
	} else {
		cacheService := cache.NewCacheService(redisClient, cfg.Ledger.WalletCacheTTL)
		defer func() {
			if err := cacheService.Close(); err != nil {
				logger.Warn("failed to close redis connection", zap.Error(err))
			}
		}()
		walletCache, feeCache = cacheService, cacheService
		health["redis"] = handlers.PingFunc(cacheService.HealthCheck)
	}

	loc, err := time.LoadLocation(cfg.Ledger.Timezone)
	if err != nil {
		return fmt.Errorf("load ledger timezone: %w", err)
	}

	walletService := wallet.NewService(repositories.NewWalletRepository(db), walletCache, cfg.Ledger.WalletCacheTTL, logger)
	feeService := fee.NewService(repositories.NewFeeRepository(db), feeCache, cfg.Ledger.FeePercentages, cfg.Ledger.FeeCacheTTL, logger)
	credentialService := credential.NewService(repositories.NewOwnerRepository(db), 0, logger)
	notificationService := notification.NewService(repositories.NewNotificationRepository(db), logger)

	ledgerService := ledger.NewService(
		repositories.NewLedgerRepository(db),
		credentialService,
		feeService,
		notificationService,
		ledger.Config{
			Location:             loc,
			DefaultDailyLimit:    cfg.Ledger.DefaultDailyLimit,
			MaxConflictRetries:   cfg.Ledger.MaxConflictRetries,
			MaxReferenceAttempts: cfg.Ledger.MaxReferenceAttempts,
			NotifyTimeout:        cfg.Ledger.NotifyTimeout,
		},
		logger,
		ledger.WithCacheInvalidator(walletService),
	)

	app := fiber.New(fiber.Config{
		AppName:      "bitcash",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.HTTP.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(app, routes.Dependencies{
		JWTSecret:            cfg.JWT.Secret,
		TransactionRateLimit: cfg.HTTP.TransactionRateLimit,
		Ledger:               ledgerService,
		Wallets:              walletService,
		Pins:                 credentialService,
		Fees:                 feeService,
		Health:               health,
		Logger:               logger,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("port", cfg.HTTP.Port))
		errCh <- app.Listen(":" + cfg.HTTP.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	if err := app.ShutdownWithTimeout(cfg.HTTP.ShutdownTimeout); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	// Let in-flight notifications reach the database before it closes.
	ledgerService.Wait()
	logger.Info("server stopped")
	return nil
}

func logPoolStats(db *gorm.DB, logger *zap.Logger, stop <-chan struct{}) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			stats := sqlDB.Stats()
			logger.Debug("db pool stats",
				zap.Int("open", stats.OpenConnections),
				zap.Int("idle", stats.Idle),
				zap.Int("in_use", stats.InUse),
				zap.Int64("wait_count", stats.WaitCount),
				zap.Duration("wait_duration", stats.WaitDuration))
		}
	}
}
