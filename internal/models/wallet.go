package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OwnerType string

const (
	OwnerTypeCustomer OwnerType = "customer"
	OwnerTypeMerchant OwnerType = "merchant"
	OwnerTypeAgent    OwnerType = "agent"
)

func (t OwnerType) Valid() bool {
	switch t {
	case OwnerTypeCustomer, OwnerTypeMerchant, OwnerTypeAgent:
		return true
	}
	return false
}

const (
	WalletStatusActive    = "active"
	WalletStatusSuspended = "suspended"
	WalletStatusClosed    = "closed"
)

// Wallet is a balance holder owned by exactly one customer, merchant or agent.
type Wallet struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID      uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_wallet_owner_currency;not null" json:"owner_id"`
	OwnerType    OwnerType       `gorm:"type:varchar(16);not null" json:"owner_type"`
	Balance      decimal.Decimal `gorm:"type:numeric(20,3);not null;default:0" json:"balance"`
	Currency     string          `gorm:"type:varchar(3);uniqueIndex:idx_wallet_owner_currency;not null;default:'LYD'" json:"currency"`
	DailyLimit   decimal.Decimal `gorm:"type:numeric(20,3);not null;default:0" json:"daily_limit"`
	Status       string          `gorm:"type:varchar(16);not null;default:'active'" json:"status"`
	LastActivity *time.Time      `json:"last_activity,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}
