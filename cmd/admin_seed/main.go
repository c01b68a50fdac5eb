// Command admin_seed creates a development data set: one owner and wallet per
// role, the fee table and an opening deposit for the customer. It prints an
// access token for each owner.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"bitcash/internal/config"
	"bitcash/internal/logging"
	"bitcash/internal/models"
	"bitcash/internal/repositories"
	"bitcash/internal/services/credential"
	"bitcash/internal/services/fee"
	"bitcash/internal/services/ledger"
	"bitcash/internal/utils"
	"bitcash/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type seedOwner struct {
	name      string
	ownerType models.OwnerType
	role      string
}

var seedOwners = []seedOwner{
	{"Seed Customer", models.OwnerTypeCustomer, models.RoleCustomer},
	{"Seed Merchant", models.OwnerTypeMerchant, models.RoleMerchant},
	{"Seed Agent", models.OwnerTypeAgent, models.RoleAgent},
}

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

	pin := config.GetEnv("SEED_PIN", "1234")
	if !validation.IsValidPin(pin) {
		logger.Fatal("SEED_PIN must be 4 to 6 digits")
	}
	opening, err := config.GetDecimalEnv("SEED_OPENING_BALANCE", decimal.NewFromInt(1000))
	if err != nil {
		logger.Fatal("invalid opening balance", zap.Error(err))
	}

	db, err := repositories.InitDB(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			logger.Warn("failed to close database connection", zap.Error(err))
		}
	}()
	if err := repositories.Migrate(db); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	feeService := fee.NewService(repositories.NewFeeRepository(db), nil, cfg.Ledger.FeePercentages, cfg.Ledger.FeeCacheTTL, logger)
	for txType, pct := range cfg.Ledger.FeePercentages {
		if err := feeService.SetFeePercentage(ctx, models.TransactionType(txType), pct); err != nil {
			logger.Fatal("failed to seed fee", zap.String("type", txType), zap.Error(err))
		}
	}

	hash, err := credential.HashPin(pin, 0)
	if err != nil {
		logger.Fatal("failed to hash pin", zap.Error(err))
	}

	wallets := make(map[models.OwnerType]*models.Wallet)
	for _, so := range seedOwners {
		w, err := ensureOwner(ctx, db, so, hash, cfg.Ledger.DefaultCurrency)
		if err != nil {
			logger.Fatal("failed to seed owner", zap.String("owner", so.name), zap.Error(err))
		}
		wallets[so.ownerType] = w

		token, err := utils.GenerateAccessToken(cfg.JWT, w.OwnerID, so.role)
		if err != nil {
			logger.Fatal("failed to sign token", zap.Error(err))
		}
		fmt.Printf("%-14s owner=%s wallet=%s\n  token=%s\n", so.name, w.OwnerID, w.ID, token)
	}

	adminToken, err := utils.GenerateAccessToken(cfg.JWT, uuid.New(), models.RoleAdmin)
	if err != nil {
		logger.Fatal("failed to sign token", zap.Error(err))
	}
	fmt.Printf("%-14s token=%s\n", "Admin", adminToken)

	customer := wallets[models.OwnerTypeCustomer]
	if opening.IsPositive() && customer.Balance.IsZero() {
		loc, err := time.LoadLocation(cfg.Ledger.Timezone)
		if err != nil {
			logger.Fatal("invalid timezone", zap.Error(err))
		}
		credentials := credential.NewService(repositories.NewOwnerRepository(db), 0, logger)
		engine := ledger.NewService(repositories.NewLedgerRepository(db), credentials, feeService, nil,
			ledger.Config{Location: loc, DefaultDailyLimit: cfg.Ledger.DefaultDailyLimit}, logger)

		txn, err := engine.ExecuteTransfer(ctx, ledger.TransferRequest{
			Type:             models.TransactionTypeDeposit,
			ReceiverWalletID: customer.ID,
			Amount:           opening,
			AgentID:          wallets[models.OwnerTypeAgent].OwnerID,
			Description:      "opening balance",
		})
		if err != nil {
			logger.Fatal("opening deposit failed", zap.Error(err))
		}
		fmt.Printf("opening deposit %s %s reference=%s\n", txn.Amount, txn.Currency, txn.Reference)
	}

	logger.Info("seed complete")
}

// ensureOwner returns the owner's existing wallet, creating the owner profile
// and wallet on first run.
func ensureOwner(ctx context.Context, db *gorm.DB, so seedOwner, pinHash, currency string) (*models.Wallet, error) {
	var owner models.OwnerProfile
	err := db.WithContext(ctx).Where("display_name = ? AND owner_type = ?", so.name, so.ownerType).First(&owner).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		owner = models.OwnerProfile{
			OwnerType:   so.ownerType,
			DisplayName: so.name,
			PinHash:     pinHash,
			Status:      "active",
		}
		if err := repositories.NewOwnerRepository(db).Create(ctx, &owner); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	walletRepo := repositories.NewWalletRepository(db)
	w, err := walletRepo.GetByOwner(ctx, owner.ID, currency)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, repositories.ErrWalletNotFound) {
		return nil, err
	}

	w = &models.Wallet{
		OwnerID:   owner.ID,
		OwnerType: so.ownerType,
		Currency:  currency,
		Status:    models.WalletStatusActive,
	}
	if err := walletRepo.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}
