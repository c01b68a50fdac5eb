package repositories

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"time"

	"bitcash/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrOwnerNotFound       = errors.New("owner not found")
	ErrFeeNotConfigured    = errors.New("fee not configured")
	ErrDuplicateReference  = errors.New("duplicate transaction reference")
	// ErrSerialization marks a failure the caller may retry from the start of
	// the database transaction (serialization failure, deadlock, lock timeout).
	ErrSerialization = errors.New("concurrent update conflict")
)

// WalletStore reads and writes wallet rows inside a ledger transaction. Rows
// returned by GetWallet are locked for the lifetime of the transaction.
type WalletStore interface {
	GetWallet(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	UpdateWalletBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, at time.Time) error
}

// TransactionLog is the durable, append-only record of transactions.
type TransactionLog interface {
	// InsertTransaction returns ErrDuplicateReference when the reference is taken.
	// The surrounding transaction stays usable after that error.
	InsertTransaction(ctx context.Context, txn *models.Transaction) error
	SumCompletedSentSince(ctx context.Context, walletID uuid.UUID, since time.Time) (decimal.Decimal, error)
	SumCompletedReceivedSince(ctx context.Context, walletID uuid.UUID, since time.Time) (decimal.Decimal, error)
}

type LedgerTx interface {
	WalletStore
	TransactionLog
}

// LedgerRepository runs the atomic section of a transfer.
type LedgerRepository interface {
	// GetWallet is an unlocked read.
	GetWallet(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	// ExecuteInTransaction locks lockIDs in ascending order, then runs fn. Any
	// error from fn rolls everything back.
	ExecuteInTransaction(ctx context.Context, lockIDs []uuid.UUID, fn func(LedgerTx) error) error
}

// SortedIDs returns the distinct non-nil ids in ascending byte order, the
// global lock order for wallet rows.
func SortedIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}
