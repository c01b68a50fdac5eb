package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitcash/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertSavepoint = "ledger_insert"

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) GetWallet(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	return findWallet(r.db.WithContext(ctx), id)
}

func (r *ledgerRepository) ExecuteInTransaction(ctx context.Context, lockIDs []uuid.UUID, fn func(LedgerTx) error) error {
	ids := SortedIDs(lockIDs)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// One statement per row keeps the acquisition order explicit.
		for _, id := range ids {
			var w models.Wallet
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Select("id").
				First(&w, "id = ?", id).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrWalletNotFound
				}
				return classify(err)
			}
		}
		return fn(&ledgerTx{db: tx})
	})
	return classify(err)
}

type ledgerTx struct {
	db *gorm.DB
}

func (t *ledgerTx) GetWallet(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	return findWallet(t.db.WithContext(ctx), id)
}

func (t *ledgerTx) UpdateWalletBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, at time.Time) error {
	result := t.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"balance":       balance,
			"last_activity": at,
			"updated_at":    at,
		})
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrWalletNotFound
	}
	return nil
}

func (t *ledgerTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	db := t.db.WithContext(ctx)
	if err := db.SavePoint(insertSavepoint).Error; err != nil {
		return classify(err)
	}
	if err := db.Create(txn).Error; err != nil {
		if isDuplicateKey(err) {
			if rbErr := db.RollbackTo(insertSavepoint).Error; rbErr != nil {
				return classify(rbErr)
			}
			return ErrDuplicateReference
		}
		return classify(err)
	}
	return nil
}

func (t *ledgerTx) SumCompletedSentSince(ctx context.Context, walletID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	return t.sumSince(ctx, "sender_wallet_id", walletID, since)
}

func (t *ledgerTx) SumCompletedReceivedSince(ctx context.Context, walletID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	return t.sumSince(ctx, "receiver_wallet_id", walletID, since)
}

func (t *ledgerTx) sumSince(ctx context.Context, column string, walletID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := t.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where(column+" = ? AND status = ? AND created_at >= ?", walletID, models.TransactionStatusCompleted, since).
		Select("COALESCE(SUM(amount), 0)").
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum daily transactions: %w", classify(err))
	}
	return total, nil
}

func findWallet(db *gorm.DB, id uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := db.First(&wallet, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", classify(err))
	}
	return &wallet, nil
}
