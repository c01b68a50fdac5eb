// Package credential verifies and rotates wallet owner PINs.
package credential

import (
	"context"
	"errors"
	"fmt"

	apperrors "bitcash/internal/errors"
	"bitcash/internal/repositories"
	"bitcash/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidPinFormat = fmt.Errorf("pin must be %d to %d digits", validation.MinPinLength, validation.MaxPinLength)

type Service struct {
	owners repositories.OwnerRepository
	cost   int
	logger *zap.Logger
}

// NewService creates the credential service. cost <= 0 selects bcrypt.DefaultCost.
func NewService(owners repositories.OwnerRepository, cost int, logger *zap.Logger) *Service {
	if owners == nil {
		panic("owner repository is required")
	}
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{owners: owners, cost: cost, logger: logger.Named("credential")}
}

// VerifyPin reports whether pin matches the owner's stored hash. Unknown
// owners and owners without a PIN never match.
func (s *Service) VerifyPin(ctx context.Context, ownerID uuid.UUID, pin string) (bool, error) {
	if !validation.IsValidPin(pin) {
		return false, nil
	}

	owner, err := s.owners.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrOwnerNotFound) {
			return false, nil
		}
		return false, err
	}
	if !owner.HasPin() {
		return false, nil
	}

	err = bcrypt.CompareHashAndPassword([]byte(owner.PinHash), []byte(pin))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		s.logger.Error("stored pin hash is unusable",
			zap.String("owner_id", ownerID.String()),
			zap.Error(err))
		return false, fmt.Errorf("compare pin: %w", err)
	}
}

// SetPin stores newPin. When a PIN already exists oldPin must match it.
func (s *Service) SetPin(ctx context.Context, ownerID uuid.UUID, oldPin, newPin string) error {
	if !validation.IsValidPin(newPin) {
		return ErrInvalidPinFormat
	}

	owner, err := s.owners.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrOwnerNotFound) {
			return apperrors.ErrInvalidCredential
		}
		return err
	}
	if owner.HasPin() {
		ok, err := s.VerifyPin(ctx, ownerID, oldPin)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrInvalidCredential
		}
	}

	hash, err := HashPin(newPin, s.cost)
	if err != nil {
		return err
	}
	return s.owners.UpdatePinHash(ctx, ownerID, hash)
}

// HashPin bcrypt-hashes pin.
func HashPin(pin string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), cost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(hash), nil
}
