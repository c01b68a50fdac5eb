// Package notification fans committed transactions out to wallet owners: one
// stored notification per party plus a Postgres NOTIFY for live listeners.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bitcash/internal/models"
	"bitcash/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Channel is the Postgres NOTIFY channel carrying ledger events.
const Channel = "ledger_events"

// Envelope is the JSON published on Channel.
type Envelope struct {
	Event           string    `json:"event"`
	Reference       string    `json:"reference"`
	Type            string    `json:"type"`
	Amount          string    `json:"amount"`
	Fee             string    `json:"fee"`
	Currency        string    `json:"currency"`
	SenderOwnerID   uuid.UUID `json:"sender_owner_id"`
	ReceiverOwnerID uuid.UUID `json:"receiver_owner_id"`
	CreatedAt       time.Time `json:"created_at"`
}

type Service struct {
	repo   repositories.NotificationRepository
	logger *zap.Logger
}

func NewService(repo repositories.NotificationRepository, logger *zap.Logger) *Service {
	if repo == nil {
		panic("notification repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger.Named("notification")}
}

// Notify stores per-owner notifications and publishes the event. Both steps
// are attempted; their errors are joined.
func (s *Service) Notify(ctx context.Context, event string, payload models.TransactionEvent) error {
	txn := payload.Transaction
	notes := Build(payload)
	for _, n := range notes {
		n.Type = event
	}

	var errs []error
	if err := s.repo.CreateBatch(ctx, notes); err != nil {
		errs = append(errs, err)
	}

	body, err := json.Marshal(Envelope{
		Event:           event,
		Reference:       txn.Reference,
		Type:            string(txn.Type),
		Amount:          txn.Amount.String(),
		Fee:             txn.Fee.String(),
		Currency:        txn.Currency,
		SenderOwnerID:   payload.SenderOwnerID,
		ReceiverOwnerID: payload.ReceiverOwnerID,
		CreatedAt:       txn.CreatedAt,
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("marshal event: %w", err))
	} else if err := s.repo.Publish(ctx, Channel, string(body)); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		s.logger.Debug("notified owners",
			zap.String("reference", txn.Reference),
			zap.Int("recipients", len(notes)))
	}
	return errors.Join(errs...)
}

// Build returns the notifications for each party of a transaction.
func Build(payload models.TransactionEvent) []*models.Notification {
	txn := payload.Transaction
	amount := txn.Amount.StringFixed(models.CurrencyScale(txn.Currency)) + " " + txn.Currency

	var sentTitle, receivedTitle string
	switch txn.Type {
	case models.TransactionTypeTransfer:
		sentTitle, receivedTitle = "Transfer Sent", "Transfer Received"
	case models.TransactionTypePayment:
		sentTitle, receivedTitle = "Payment Sent", "Payment Received"
	case models.TransactionTypeWithdrawal:
		sentTitle, receivedTitle = "Withdrawal Processed", "Cash-out Completed"
	case models.TransactionTypeDeposit:
		receivedTitle = "Deposit Received"
	default:
		sentTitle, receivedTitle = "Transaction Sent", "Transaction Received"
	}

	var notes []*models.Notification
	if payload.SenderOwnerID != uuid.Nil && sentTitle != "" {
		msg := fmt.Sprintf("You sent %s. Reference %s", amount, txn.Reference)
		if txn.Fee.IsPositive() {
			msg = fmt.Sprintf("You sent %s (fee %s). Reference %s", amount,
				txn.Fee.StringFixed(models.CurrencyScale(txn.Currency)), txn.Reference)
		}
		notes = append(notes, &models.Notification{
			RecipientID: payload.SenderOwnerID,
			Title:       sentTitle,
			Message:     msg,
			Reference:   txn.Reference,
		})
	}
	if payload.ReceiverOwnerID != uuid.Nil && receivedTitle != "" {
		notes = append(notes, &models.Notification{
			RecipientID: payload.ReceiverOwnerID,
			Title:       receivedTitle,
			Message:     fmt.Sprintf("You received %s. Reference %s", amount, txn.Reference),
			Reference:   txn.Reference,
		})
	}
	return notes
}
