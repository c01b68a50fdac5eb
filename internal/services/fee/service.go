// Package fee resolves per-type fee percentages from the database, cached in
// Redis, falling back to configured defaults.
package fee

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitcash/internal/models"
	"bitcash/internal/repositories"
	cachekeys "bitcash/internal/utils/cache"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidPercentage = errors.New("fee percentage must be between 0 and 100")
	maxPercentage        = decimal.NewFromInt(100)
)

// Cache is the subset of the Redis cache service the fee lookup uses.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Service struct {
	repo     repositories.FeeRepository
	cache    Cache
	defaults map[string]decimal.Decimal
	ttl      time.Duration
	logger   *zap.Logger
}

// NewService creates the fee service. cache may be nil.
func NewService(repo repositories.FeeRepository, cache Cache, defaults map[string]decimal.Decimal, ttl time.Duration, logger *zap.Logger) *Service {
	if repo == nil {
		panic("fee repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		defaults: defaults,
		ttl:      ttl,
		logger:   logger.Named("fee"),
	}
}

// GetFeePercentage returns the percentage charged on txType. Cache errors are
// logged and fall through to the database.
func (s *Service) GetFeePercentage(ctx context.Context, txType models.TransactionType) (decimal.Decimal, error) {
	key := cachekeys.GenerateKey(cachekeys.EntityFee, cachekeys.KeyTxType, txType)

	if s.cache != nil {
		var cached decimal.Decimal
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("fee cache read failed", zap.String("key", key), zap.Error(err))
		} else if found {
			return cached, nil
		}
	}

	var pct decimal.Decimal
	cfg, err := s.repo.Get(ctx, txType)
	switch {
	case err == nil:
		pct = cfg.Percentage
	case errors.Is(err, repositories.ErrFeeNotConfigured):
		pct = s.defaults[string(txType)]
	default:
		return decimal.Zero, fmt.Errorf("failed to load fee for %s: %w", txType, err)
	}

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, key, pct, s.ttl); err != nil {
			s.logger.Warn("fee cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return pct, nil
}

// SetFeePercentage stores a new percentage and drops the cached value.
func (s *Service) SetFeePercentage(ctx context.Context, txType models.TransactionType, pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(maxPercentage) {
		return ErrInvalidPercentage
	}
	if err := s.repo.Upsert(ctx, &models.FeeConfig{Type: txType, Percentage: pct, UpdatedAt: time.Now()}); err != nil {
		return err
	}
	if s.cache != nil {
		key := cachekeys.GenerateKey(cachekeys.EntityFee, cachekeys.KeyTxType, txType)
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("fee cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}
