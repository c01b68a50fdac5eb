package repositories

import (
	"context"

	"bitcash/internal/models"

	"github.com/google/uuid"
)

// WalletRepository defines the read side and provisioning of wallets
type WalletRepository interface {
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	// GetByOwner returns the owner's wallet in currency, or the oldest one when
	// currency is empty.
	GetByOwner(ctx context.Context, ownerID uuid.UUID, currency string) (*models.Wallet, error)
	ListTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]models.Transaction, error)
	GetTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)
}

// OwnerRepository stores owner profiles and their PIN hashes.
type OwnerRepository interface {
	Create(ctx context.Context, owner *models.OwnerProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.OwnerProfile, error)
	UpdatePinHash(ctx context.Context, id uuid.UUID, hash string) error
}

type FeeRepository interface {
	Get(ctx context.Context, txType models.TransactionType) (*models.FeeConfig, error)
	Upsert(ctx context.Context, fee *models.FeeConfig) error
}

type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []*models.Notification) error
	// Publish sends payload on a Postgres NOTIFY channel.
	Publish(ctx context.Context, channel, payload string) error
}
