package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher delivers a payload on a pub/sub channel. The Redis cache service
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload interface{}) error
}

// OwnerChannel is the per-owner pub/sub channel a client subscribes to.
func OwnerChannel(ownerID uuid.UUID) string {
	return Channel + ":" + ownerID.String()
}

// Relay forwards Postgres ledger events to each party's pub/sub channel.
type Relay struct {
	publisher Publisher
	logger    *zap.Logger
}

func NewRelay(publisher Publisher, logger *zap.Logger) *Relay {
	if publisher == nil {
		panic("publisher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{publisher: publisher, logger: logger.Named("relay")}
}

// Handle decodes one NOTIFY payload and publishes it to the sender and
// receiver owners. A malformed payload is an error; nothing is published.
func (r *Relay) Handle(ctx context.Context, payload string) error {
	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return fmt.Errorf("decode ledger event: %w", err)
	}
	if env.Reference == "" {
		return errors.New("ledger event has no reference")
	}

	var errs []error
	for _, owner := range []uuid.UUID{env.SenderOwnerID, env.ReceiverOwnerID} {
		if owner == uuid.Nil {
			continue
		}
		if err := r.publisher.Publish(ctx, OwnerChannel(owner), env); err != nil {
			errs = append(errs, fmt.Errorf("publish to %s: %w", owner, err))
		}
	}

	r.logger.Info("ledger event relayed",
		zap.String("event", env.Event),
		zap.String("reference", env.Reference),
		zap.String("type", env.Type),
		zap.String("amount", env.Amount),
		zap.String("currency", env.Currency))
	return errors.Join(errs...)
}
