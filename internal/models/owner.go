package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnerProfile holds the credential of a wallet owner. PinHash is empty until
// the owner sets a PIN.
type OwnerProfile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerType   OwnerType `gorm:"type:varchar(16);not null" json:"owner_type"`
	DisplayName string    `gorm:"not null" json:"display_name"`
	PinHash     string    `json:"-"`
	Status      string    `gorm:"type:varchar(16);not null;default:'active'" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (o *OwnerProfile) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (o *OwnerProfile) HasPin() bool {
	return o.PinHash != ""
}
