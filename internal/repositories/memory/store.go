// Package memory is an in-process ledger store with the same locking and
// rollback semantics as the Postgres repositories. It backs unit tests and
// database-free local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"bitcash/internal/models"
	"bitcash/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store keeps wallets and the transaction log in memory. Wallet locks are
// per-row mutexes taken in ascending id order, writes are staged and applied
// only when the transaction function returns nil.
type Store struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]models.Wallet
	txns    []models.Transaction
	refs    map[string]struct{}
	locks   map[uuid.UUID]*sync.Mutex

	failNextInsert     error
	serializationFails int
	lockOrder          []uuid.UUID
}

var (
	_ repositories.LedgerRepository = (*Store)(nil)
	_ repositories.WalletRepository = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		wallets: make(map[uuid.UUID]models.Wallet),
		refs:    make(map[string]struct{}),
		locks:   make(map[uuid.UUID]*sync.Mutex),
	}
}

// PutWallet inserts or replaces a wallet, assigning an id when missing.
func (s *Store) PutWallet(w models.Wallet) models.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.Status == "" {
		w.Status = models.WalletStatusActive
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	s.wallets[w.ID] = w
	return w
}

// PutTransaction appends a row to the log directly, bypassing locks.
func (s *Store) PutTransaction(txn models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	s.txns = append(s.txns, txn)
	s.refs[txn.Reference] = struct{}{}
}

// Transactions returns a snapshot of the log.
func (s *Store) Transactions() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Transaction, len(s.txns))
	copy(out, s.txns)
	return out
}

// FailNextInsert makes the next InsertTransaction return err.
func (s *Store) FailNextInsert(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNextInsert = err
}

// FailSerialization makes the next n transactions abort with
// repositories.ErrSerialization after their function ran.
func (s *Store) FailSerialization(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serializationFails = n
}

// LockOrder returns the wallet ids in the order their locks were taken.
func (s *Store) LockOrder() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uuid.UUID, len(s.lockOrder))
	copy(out, s.lockOrder)
	return out
}

func (s *Store) GetWallet(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	return &w, nil
}

func (s *Store) rowLock(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *Store) ExecuteInTransaction(ctx context.Context, lockIDs []uuid.UUID, fn func(repositories.LedgerTx) error) error {
	ids := repositories.SortedIDs(lockIDs)
	for _, id := range ids {
		l := s.rowLock(id)
		l.Lock()
		defer l.Unlock()

		s.mu.Lock()
		s.lockOrder = append(s.lockOrder, id)
		_, ok := s.wallets[id]
		s.mu.Unlock()
		if !ok {
			return repositories.ErrWalletNotFound
		}
	}

	tx := &memTx{
		store:   s,
		wallets: make(map[uuid.UUID]models.Wallet),
	}
	if err := fn(tx); err != nil {
		return err
	}
	return s.commit(tx)
}

func (s *Store) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.serializationFails > 0 {
		s.serializationFails--
		return repositories.ErrSerialization
	}
	for _, txn := range tx.txns {
		if _, dup := s.refs[txn.Reference]; dup {
			return repositories.ErrDuplicateReference
		}
	}
	for id, w := range tx.wallets {
		s.wallets[id] = w
	}
	for _, txn := range tx.txns {
		s.txns = append(s.txns, txn)
		s.refs[txn.Reference] = struct{}{}
	}
	return nil
}

type memTx struct {
	store   *Store
	wallets map[uuid.UUID]models.Wallet
	txns    []models.Transaction
}

func (t *memTx) GetWallet(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	if w, ok := t.wallets[id]; ok {
		return &w, nil
	}
	return t.store.GetWallet(ctx, id)
}

func (t *memTx) UpdateWalletBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, at time.Time) error {
	w, err := t.GetWallet(ctx, id)
	if err != nil {
		return err
	}
	w.Balance = balance
	w.LastActivity = &at
	w.UpdatedAt = at
	t.wallets[id] = *w
	return nil
}

func (t *memTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	t.store.mu.Lock()
	failure := t.store.failNextInsert
	t.store.failNextInsert = nil
	_, dup := t.store.refs[txn.Reference]
	t.store.mu.Unlock()

	if failure != nil {
		return failure
	}
	if dup {
		return repositories.ErrDuplicateReference
	}
	for _, staged := range t.txns {
		if staged.Reference == txn.Reference {
			return repositories.ErrDuplicateReference
		}
	}
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	t.txns = append(t.txns, *txn)
	return nil
}

func (t *memTx) SumCompletedSentSince(ctx context.Context, walletID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	return t.sum(func(txn *models.Transaction) *uuid.UUID { return txn.SenderWalletID }, walletID, since), nil
}

func (t *memTx) SumCompletedReceivedSince(ctx context.Context, walletID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	return t.sum(func(txn *models.Transaction) *uuid.UUID { return txn.ReceiverWalletID }, walletID, since), nil
}

func (t *memTx) sum(party func(*models.Transaction) *uuid.UUID, walletID uuid.UUID, since time.Time) decimal.Decimal {
	total := decimal.Zero
	add := func(txn *models.Transaction) {
		id := party(txn)
		if id == nil || *id != walletID {
			return
		}
		if txn.Status != models.TransactionStatusCompleted || txn.CreatedAt.Before(since) {
			return
		}
		total = total.Add(txn.Amount)
	}

	t.store.mu.Lock()
	for i := range t.store.txns {
		add(&t.store.txns[i])
	}
	t.store.mu.Unlock()
	for i := range t.txns {
		add(&t.txns[i])
	}
	return total
}

// WalletRepository

func (s *Store) Create(ctx context.Context, wallet *models.Wallet) error {
	*wallet = s.PutWallet(*wallet)
	return nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	return s.GetWallet(ctx, id)
}

func (s *Store) GetByOwner(ctx context.Context, ownerID uuid.UUID, currency string) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *models.Wallet
	for _, w := range s.wallets {
		if w.OwnerID != ownerID || (currency != "" && w.Currency != currency) {
			continue
		}
		if found == nil || w.CreatedAt.Before(found.CreatedAt) {
			w := w
			found = &w
		}
	}
	if found == nil {
		return nil, repositories.ErrWalletNotFound
	}
	return found, nil
}

func (s *Store) ListTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	s.mu.Lock()
	var out []models.Transaction
	for _, txn := range s.txns {
		if txn.Involves(walletID) {
			out = append(out, txn)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []models.Transaction{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, txn := range s.txns {
		if txn.Reference == reference {
			txn := txn
			return &txn, nil
		}
	}
	return nil, repositories.ErrTransactionNotFound
}
