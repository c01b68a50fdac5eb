package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypePayment    TransactionType = "payment"
	TransactionTypeConversion TransactionType = "conversion"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is an immutable ledger row. Completed rows are the source of truth
// for daily limit accounting.
type Transaction struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Reference        string            `gorm:"type:varchar(40);uniqueIndex;not null" json:"reference"`
	Type             TransactionType   `gorm:"type:varchar(16);not null" json:"type"`
	Amount           decimal.Decimal   `gorm:"type:numeric(20,3);not null" json:"amount"`
	Fee              decimal.Decimal   `gorm:"type:numeric(20,3);not null;default:0" json:"fee"`
	Currency         string            `gorm:"type:varchar(3);not null" json:"currency"`
	SenderWalletID   *uuid.UUID        `gorm:"type:uuid;index:idx_tx_sender_created,priority:1" json:"sender_wallet_id,omitempty"`
	ReceiverWalletID *uuid.UUID        `gorm:"type:uuid;index:idx_tx_receiver_created,priority:1" json:"receiver_wallet_id,omitempty"`
	AgentID          *uuid.UUID        `gorm:"type:uuid" json:"agent_id,omitempty"`
	Status           TransactionStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	Description      string            `json:"description,omitempty"`
	Metadata         JSON              `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt        time.Time         `gorm:"index:idx_tx_sender_created,priority:2;index:idx_tx_receiver_created,priority:2" json:"created_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Involves reports whether walletID is a party of the transaction.
func (t *Transaction) Involves(walletID uuid.UUID) bool {
	return (t.SenderWalletID != nil && *t.SenderWalletID == walletID) ||
		(t.ReceiverWalletID != nil && *t.ReceiverWalletID == walletID)
}
