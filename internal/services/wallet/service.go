package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "bitcash/internal/errors"
	"bitcash/internal/models"
	"bitcash/internal/repositories"
	cachekeys "bitcash/internal/utils/cache"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Cache is the subset of the Redis cache service used for wallet views.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Service struct {
	repo   repositories.WalletRepository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewService creates a new wallet service. cache may be nil.
func NewService(repo repositories.WalletRepository, cache Cache, ttl time.Duration, logger *zap.Logger) *Service {
	if repo == nil {
		panic("repo is required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, logger: logger.Named("wallet")}
}

func (s *Service) GetWallet(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	return s.cached(ctx, cachekeys.GenerateKey(cachekeys.EntityWallet, cachekeys.KeyID, id), func() (*models.Wallet, error) {
		return s.repo.GetByID(ctx, id)
	})
}

// GetWalletByOwner returns the owner's primary wallet.
func (s *Service) GetWalletByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error) {
	return s.cached(ctx, cachekeys.GenerateKey(cachekeys.EntityWallet, cachekeys.KeyOwner, ownerID), func() (*models.Wallet, error) {
		return s.repo.GetByOwner(ctx, ownerID, "")
	})
}

func (s *Service) cached(ctx context.Context, key string, load func() (*models.Wallet, error)) (*models.Wallet, error) {
	if s.cache != nil {
		var w models.Wallet
		found, err := s.cache.Get(ctx, key, &w)
		if err != nil {
			s.logger.Warn("wallet cache read failed", zap.String("key", key), zap.Error(err))
		} else if found {
			return &w, nil
		}
	}

	w, err := load()
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, key, w, s.ttl); err != nil {
			s.logger.Warn("wallet cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return w, nil
}

// ListTransactions returns the wallet's transactions, newest first.
func (s *Service) ListTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	txns, err := s.repo.ListTransactions(ctx, walletID, limit, offset)
	if err != nil {
		return nil, err
	}
	if txns == nil {
		txns = []models.Transaction{}
	}
	return txns, nil
}

// GetTransactionForWallet looks up a transaction by reference, visible only
// when walletID is one of its parties.
func (s *Service) GetTransactionForWallet(ctx context.Context, walletID uuid.UUID, reference string) (*models.Transaction, error) {
	txn, err := s.repo.GetTransactionByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, err
	}
	if !txn.Involves(walletID) {
		return nil, apperrors.ErrTransactionNotFound
	}
	return txn, nil
}

// InvalidateWallets drops every cached view of wallets.
func (s *Service) InvalidateWallets(ctx context.Context, wallets ...*models.Wallet) error {
	if s.cache == nil || len(wallets) == 0 {
		return nil
	}
	keys := make([]string, 0, 2*len(wallets))
	for _, w := range wallets {
		keys = append(keys,
			cachekeys.GenerateKey(cachekeys.EntityWallet, cachekeys.KeyID, w.ID),
			cachekeys.GenerateKey(cachekeys.EntityWallet, cachekeys.KeyOwner, w.OwnerID),
		)
	}
	return s.cache.Delete(ctx, keys...)
}
