// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"time"

	"bitcash/internal/handlers"
	"bitcash/internal/middleware"
	"bitcash/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
)

// Dependencies are the services the HTTP layer calls into.
type Dependencies struct {
	JWTSecret string
	// Requests per minute per client on POST /api/transactions. 0 disables the limit.
	TransactionRateLimit int

	Ledger  handlers.TransferExecutor
	Wallets handlers.WalletReader
	Pins    handlers.PinSetter
	Fees    handlers.FeeManager
	Health  map[string]handlers.Pinger
	Logger  *zap.Logger
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	txHandler := handlers.NewTransactionHandler(deps.Ledger, deps.Wallets, deps.Logger)
	walletHandler := handlers.NewWalletHandler(deps.Wallets, deps.Pins, deps.Logger)
	feeHandler := handlers.NewFeeHandler(deps.Fees, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.Health)

	app.Get("/health", healthHandler.Check)

	authMiddleware := middleware.NewAuthMiddleware(deps.JWTSecret, deps.Logger)
	api := app.Group("/api", authMiddleware.Handler)

	transactions := api.Group("/transactions")
	if deps.TransactionRateLimit > 0 {
		transactions.Post("/", transactionLimiter(deps.TransactionRateLimit), txHandler.Create)
	} else {
		transactions.Post("/", txHandler.Create)
	}
	transactions.Get("/:reference", txHandler.GetByReference)

	wallets := api.Group("/wallets/me")
	wallets.Get("/", walletHandler.GetWallet)
	wallets.Get("/transactions", walletHandler.GetTransactions)
	wallets.Put("/pin", walletHandler.SetPin)

	admin := api.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	admin.Get("/fees/:type", feeHandler.GetFee)
	admin.Put("/fees/:type", feeHandler.SetFee)
}

// transactionLimiter keys on the authenticated owner, falling back to the IP.
func transactionLimiter(limit int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if claims, ok := c.Locals("claims").(*models.OwnerClaims); ok {
				return claims.OwnerID.String()
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	})
}
