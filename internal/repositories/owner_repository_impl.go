package repositories

import (
	"context"
	"errors"
	"fmt"

	"bitcash/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ownerRepository struct {
	db *gorm.DB
}

func NewOwnerRepository(db *gorm.DB) OwnerRepository {
	return &ownerRepository{db: db}
}

func (r *ownerRepository) Create(ctx context.Context, owner *models.OwnerProfile) error {
	if err := r.db.WithContext(ctx).Create(owner).Error; err != nil {
		return fmt.Errorf("failed to create owner: %w", err)
	}
	return nil
}

func (r *ownerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.OwnerProfile, error) {
	var owner models.OwnerProfile
	if err := r.db.WithContext(ctx).First(&owner, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}
	return &owner, nil
}

func (r *ownerRepository) UpdatePinHash(ctx context.Context, id uuid.UUID, hash string) error {
	result := r.db.WithContext(ctx).
		Model(&models.OwnerProfile{}).
		Where("id = ?", id).
		Update("pin_hash", hash)
	if result.Error != nil {
		return fmt.Errorf("failed to update pin: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOwnerNotFound
	}
	return nil
}
