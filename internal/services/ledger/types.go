package ledger

import (
	"context"
	"time"

	"bitcash/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferRequest describes one money movement. uuid.Nil marks an absent party.
type TransferRequest struct {
	Type             models.TransactionType
	SenderWalletID   uuid.UUID
	ReceiverWalletID uuid.UUID
	Amount           decimal.Decimal
	PIN              string
	// AgentID is set when an agent performs the operation for a customer.
	AgentID     uuid.UUID
	Description string
	Metadata    models.JSON
}

// CredentialVerifier checks a PIN against an owner's stored credential. An
// unknown owner or an unset PIN reports (false, nil).
type CredentialVerifier interface {
	VerifyPin(ctx context.Context, ownerID uuid.UUID, pin string) (bool, error)
}

// FeeProvider returns the fee percentage for a transaction type, e.g. 1 for 1%.
type FeeProvider interface {
	GetFeePercentage(ctx context.Context, txType models.TransactionType) (decimal.Decimal, error)
}

type Notifier interface {
	Notify(ctx context.Context, event string, payload models.TransactionEvent) error
}

// CacheInvalidator drops cached views of wallets whose balance changed.
type CacheInvalidator interface {
	InvalidateWallets(ctx context.Context, wallets ...*models.Wallet) error
}

// Config holds the engine settings.
type Config struct {
	Location             *time.Location
	DefaultDailyLimit    decimal.Decimal
	MaxConflictRetries   int
	MaxReferenceAttempts int
	NotifyTimeout        time.Duration
}

// MetricsCollector defines the interface for collecting ledger metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordTransaction(txType string, amount, fee decimal.Decimal)
	RecordError(operation, errType string)
	RecordRetry(reason string)
}
