package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Notification struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID uuid.UUID `gorm:"type:uuid;index;not null" json:"recipient_id"`
	Type        string    `gorm:"type:varchar(32);not null" json:"type"`
	Title       string    `gorm:"not null" json:"title"`
	Message     string    `json:"message"`
	Reference   string    `gorm:"type:varchar(40);index" json:"reference"`
	Read        bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

const EventTransactionCompleted = "transaction.completed"

// TransactionEvent is the payload dispatched after a transaction commits.
type TransactionEvent struct {
	Transaction     Transaction `json:"transaction"`
	SenderOwnerID   uuid.UUID   `json:"sender_owner_id"`
	ReceiverOwnerID uuid.UUID   `json:"receiver_owner_id"`
}
