package repositories

import (
	"context"
	"errors"
	"fmt"

	"bitcash/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type feeRepository struct {
	db *gorm.DB
}

func NewFeeRepository(db *gorm.DB) FeeRepository {
	return &feeRepository{db: db}
}

func (r *feeRepository) Get(ctx context.Context, txType models.TransactionType) (*models.FeeConfig, error) {
	var fee models.FeeConfig
	if err := r.db.WithContext(ctx).First(&fee, "type = ?", txType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeeNotConfigured
		}
		return nil, fmt.Errorf("failed to get fee config: %w", err)
	}
	return &fee, nil
}

func (r *feeRepository) Upsert(ctx context.Context, fee *models.FeeConfig) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "type"}},
			DoUpdates: clause.AssignmentColumns([]string{"percentage", "updated_at"}),
		}).
		Create(fee).Error
	if err != nil {
		return fmt.Errorf("failed to save fee config: %w", err)
	}
	return nil
}
