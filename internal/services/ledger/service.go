// Package ledger moves money between wallets. ExecuteTransfer validates a
// request, then debits, credits and records the transaction in one database
// transaction holding row locks on every wallet involved.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "bitcash/internal/errors"
	"bitcash/internal/models"
	"bitcash/internal/repositories"
	"bitcash/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

type Service struct {
	repo        repositories.LedgerRepository
	credentials CredentialVerifier
	fees        FeeProvider
	notifier    Notifier
	cache       CacheInvalidator
	metrics     MetricsCollector
	config      Config
	logger      *zap.Logger

	now          func() time.Time
	newReference func(prefix string, now time.Time) string

	pending sync.WaitGroup
}

type Option func(*Service)

func WithCacheInvalidator(c CacheInvalidator) Option {
	return func(s *Service) { s.cache = c }
}

func WithMetrics(m MetricsCollector) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithReferenceGenerator replaces the reference source, mostly for tests that
// need collisions.
func WithReferenceGenerator(gen func(prefix string, now time.Time) string) Option {
	return func(s *Service) { s.newReference = gen }
}

// NewService creates a new ledger service. notifier may be nil.
func NewService(
	repo repositories.LedgerRepository,
	credentials CredentialVerifier,
	fees FeeProvider,
	notifier Notifier,
	config Config,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	if repo == nil {
		panic("ledger repository is required")
	}
	if credentials == nil {
		panic("credential verifier is required")
	}
	if fees == nil {
		panic("fee provider is required")
	}

	if config.Location == nil {
		config.Location = time.UTC
	}
	if !config.DefaultDailyLimit.IsPositive() {
		config.DefaultDailyLimit = decimal.NewFromInt(10000)
	}
	if config.MaxConflictRetries < 0 {
		config.MaxConflictRetries = 0
	}
	if config.MaxReferenceAttempts <= 0 {
		config.MaxReferenceAttempts = 3
	}
	if config.NotifyTimeout <= 0 {
		config.NotifyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		repo:         repo,
		credentials:  credentials,
		fees:         fees,
		notifier:     notifier,
		config:       config,
		logger:       logger.Named("ledger"),
		metrics:      &NoopMetricsCollector{},
		now:          time.Now,
		newReference: utils.GenerateReference,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// plan is a validated request, ready for the atomic section.
type plan struct {
	txType     models.TransactionType
	senderID   uuid.UUID
	receiverID uuid.UUID
	amount     decimal.Decimal
	fee        decimal.Decimal
	currency   string
	prefix     string
	agentID    uuid.UUID
	desc       string
	metadata   models.JSON
}

// ExecuteTransfer validates and applies req. On success the returned
// transaction is committed; post-commit notification runs in the background
// and never changes the result.
func (s *Service) ExecuteTransfer(ctx context.Context, req TransferRequest) (*models.Transaction, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration("execute_transfer", time.Since(start))
	}()

	txn, sender, receiver, err := s.executeTransfer(ctx, req)
	if err != nil {
		kind := string(apperrors.KindOf(err))
		if kind == "" {
			kind = "internal"
			s.logger.Error("transfer failed",
				zap.String("type", string(req.Type)),
				zap.Error(err))
		}
		s.metrics.RecordError(string(req.Type), kind)
		return nil, err
	}

	s.metrics.RecordTransaction(string(txn.Type), txn.Amount, txn.Fee)
	s.logger.Info("transaction completed",
		zap.String("reference", txn.Reference),
		zap.String("type", string(txn.Type)),
		zap.String("amount", txn.Amount.String()),
		zap.String("fee", txn.Fee.String()))

	s.afterCommit(txn, sender, receiver)
	return txn, nil
}

func (s *Service) executeTransfer(ctx context.Context, req TransferRequest) (*models.Transaction, *models.Wallet, *models.Wallet, error) {
	p, sender, receiver, err := s.prepare(ctx, req)
	if err != nil {
		return nil, nil, nil, err
	}

	// Nothing has been written yet, a cancelled caller can still back out.
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}

	// From here on the work runs to completion or rollback regardless of the caller.
	opCtx := context.WithoutCancel(ctx)
	lockIDs := []uuid.UUID{p.senderID, p.receiverID}

	var txn *models.Transaction
	for attempt := 0; ; attempt++ {
		txn, sender, receiver, err = s.apply(opCtx, p, lockIDs)
		if err == nil {
			return txn, sender, receiver, nil
		}
		if !retryable(err) {
			return nil, nil, nil, translate(err)
		}
		if attempt >= s.config.MaxConflictRetries {
			return nil, nil, nil, apperrors.Wrap(apperrors.ErrConflict, err)
		}
		s.metrics.RecordRetry("serialization")
		s.logger.Warn("retrying ledger transaction",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
}

// prepare runs every check that does not need row locks.
func (s *Service) prepare(ctx context.Context, req TransferRequest) (*plan, *models.Wallet, *models.Wallet, error) {
	rule, ok := typeRules[req.Type]
	if !ok {
		return nil, nil, nil, apperrors.ErrUnsupported
	}
	if !req.Amount.IsPositive() {
		return nil, nil, nil, apperrors.ErrInvalidAmount
	}

	sender, err := s.resolveParty(ctx, rule.sender, req.SenderWalletID)
	if err != nil {
		return nil, nil, nil, err
	}
	receiver, err := s.resolveParty(ctx, rule.receiver, req.ReceiverWalletID)
	if err != nil {
		return nil, nil, nil, err
	}
	if sender != nil && receiver != nil && sender.ID == receiver.ID {
		return nil, nil, nil, apperrors.ErrUnsupported
	}
	if req.Type == models.TransactionTypePayment && receiver.OwnerType != models.OwnerTypeMerchant {
		return nil, nil, nil, apperrors.ErrUnsupported
	}

	var currency string
	switch {
	case sender != nil && receiver != nil:
		if sender.Currency != receiver.Currency {
			return nil, nil, nil, apperrors.ErrUnsupported
		}
		currency = sender.Currency
	case sender != nil:
		currency = sender.Currency
	default:
		currency = receiver.Currency
	}
	scale := models.CurrencyScale(currency)
	if !req.Amount.Equal(req.Amount.Round(scale)) {
		return nil, nil, nil, apperrors.ErrInvalidAmount
	}

	if sender != nil {
		ok, err := s.credentials.VerifyPin(ctx, sender.OwnerID, req.PIN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("verify pin: %w", err)
		}
		if !ok {
			return nil, nil, nil, apperrors.ErrInvalidCredential
		}
	}

	agentMediated := req.AgentID != uuid.Nil ||
		(sender != nil && sender.OwnerType == models.OwnerTypeAgent) ||
		(receiver != nil && receiver.OwnerType == models.OwnerTypeAgent)

	fee := decimal.Zero
	if sender != nil && !agentMediated {
		pct, err := s.fees.GetFeePercentage(ctx, req.Type)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load fee percentage: %w", err)
		}
		if pct.IsPositive() {
			fee = req.Amount.Mul(pct).Div(hundred).Round(scale)
		}
	}

	prefix := rule.prefix
	if agentMediated {
		prefix = agentReferencePrefix
	}

	p := &plan{
		txType:   req.Type,
		amount:   req.Amount,
		fee:      fee,
		currency: currency,
		prefix:   prefix,
		agentID:  req.AgentID,
		desc:     req.Description,
		metadata: req.Metadata,
	}
	if sender != nil {
		p.senderID = sender.ID
	}
	if receiver != nil {
		p.receiverID = receiver.ID
	}
	return p, sender, receiver, nil
}

func (s *Service) resolveParty(ctx context.Context, rule partyRule, id uuid.UUID) (*models.Wallet, error) {
	switch {
	case rule == partyForbidden && id != uuid.Nil:
		return nil, apperrors.ErrUnsupported
	case rule == partyRequired && id == uuid.Nil:
		return nil, apperrors.ErrWalletNotFound
	case id == uuid.Nil:
		return nil, nil
	}

	w, err := s.repo.GetWallet(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if !w.IsActive() {
		return nil, apperrors.ErrWalletNotFound
	}
	return w, nil
}

// apply is the atomic section: lock, re-check, write, record.
func (s *Service) apply(ctx context.Context, p *plan, lockIDs []uuid.UUID) (*models.Transaction, *models.Wallet, *models.Wallet, error) {
	var (
		out      *models.Transaction
		sender   *models.Wallet
		receiver *models.Wallet
	)

	err := s.repo.ExecuteInTransaction(ctx, lockIDs, func(tx repositories.LedgerTx) error {
		now := s.now()
		dayStart := startOfDay(now, s.config.Location)

		var err error
		if p.senderID != uuid.Nil {
			if sender, err = lockedWallet(ctx, tx, p.senderID); err != nil {
				return err
			}
		}
		if p.receiverID != uuid.Nil {
			if receiver, err = lockedWallet(ctx, tx, p.receiverID); err != nil {
				return err
			}
		}

		debit := p.amount.Add(p.fee)
		if sender != nil {
			if sender.Balance.LessThan(debit) {
				return apperrors.ErrInsufficientBalance
			}
			spent, err := tx.SumCompletedSentSince(ctx, sender.ID, dayStart)
			if err != nil {
				return err
			}
			if spent.Add(p.amount).GreaterThan(s.dailyLimit(sender)) {
				return apperrors.ErrDailyLimitExceeded
			}
		} else {
			received, err := tx.SumCompletedReceivedSince(ctx, receiver.ID, dayStart)
			if err != nil {
				return err
			}
			if received.Add(p.amount).GreaterThan(s.dailyLimit(receiver)) {
				return apperrors.ErrDailyLimitExceeded
			}
		}

		if sender != nil {
			sender.Balance = sender.Balance.Sub(debit)
			sender.LastActivity = &now
			if err := tx.UpdateWalletBalance(ctx, sender.ID, sender.Balance, now); err != nil {
				return err
			}
		}
		if receiver != nil {
			receiver.Balance = receiver.Balance.Add(p.amount)
			receiver.LastActivity = &now
			if err := tx.UpdateWalletBalance(ctx, receiver.ID, receiver.Balance, now); err != nil {
				return err
			}
		}

		txn := &models.Transaction{
			Type:        p.txType,
			Amount:      p.amount,
			Fee:         p.fee,
			Currency:    p.currency,
			Status:      models.TransactionStatusCompleted,
			Description: p.desc,
			Metadata:    p.metadata,
			CreatedAt:   now,
		}
		if sender != nil {
			txn.SenderWalletID = &sender.ID
		}
		if receiver != nil {
			txn.ReceiverWalletID = &receiver.ID
		}
		if p.agentID != uuid.Nil {
			agentID := p.agentID
			txn.AgentID = &agentID
		}

		for attempt := 1; ; attempt++ {
			txn.Reference = s.newReference(p.prefix, now)
			err := tx.InsertTransaction(ctx, txn)
			if err == nil {
				break
			}
			if !errors.Is(err, repositories.ErrDuplicateReference) {
				return err
			}
			if attempt >= s.config.MaxReferenceAttempts {
				return apperrors.Wrap(apperrors.ErrConflict, err)
			}
			s.metrics.RecordRetry("reference")
		}

		out = txn
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return out, sender, receiver, nil
}

func lockedWallet(ctx context.Context, tx repositories.LedgerTx, id uuid.UUID) (*models.Wallet, error) {
	w, err := tx.GetWallet(ctx, id)
	if err != nil {
		return nil, err
	}
	if !w.IsActive() {
		return nil, apperrors.ErrWalletNotFound
	}
	return w, nil
}

func (s *Service) dailyLimit(w *models.Wallet) decimal.Decimal {
	if w.DailyLimit.IsPositive() {
		return w.DailyLimit
	}
	return s.config.DefaultDailyLimit
}

// afterCommit invalidates caches and notifies both parties. Failures are logged only.
func (s *Service) afterCommit(txn *models.Transaction, sender, receiver *models.Wallet) {
	if s.cache == nil && s.notifier == nil {
		return
	}

	event := models.TransactionEvent{Transaction: *txn}
	var wallets []*models.Wallet
	if sender != nil {
		event.SenderOwnerID = sender.OwnerID
		wallets = append(wallets, sender)
	}
	if receiver != nil {
		event.ReceiverOwnerID = receiver.OwnerID
		wallets = append(wallets, receiver)
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("post-commit hook panicked",
					zap.String("reference", txn.Reference),
					zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.config.NotifyTimeout)
		defer cancel()

		if s.cache != nil {
			if err := s.cache.InvalidateWallets(ctx, wallets...); err != nil {
				s.logger.Warn("wallet cache invalidation failed",
					zap.String("reference", txn.Reference),
					zap.Error(err))
			}
		}
		if s.notifier != nil {
			if err := s.notifier.Notify(ctx, models.EventTransactionCompleted, event); err != nil {
				s.logger.Warn("transaction notification failed",
					zap.String("reference", txn.Reference),
					zap.Error(err))
			}
		}
	}()
}

// Wait blocks until post-commit work started so far has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

func retryable(err error) bool {
	if apperrors.KindOf(err) != "" {
		return false
	}
	return errors.Is(err, repositories.ErrSerialization) ||
		errors.Is(err, repositories.ErrDuplicateReference)
}

// translate maps repository sentinels onto domain errors. Domain errors and
// unknown failures pass through.
func translate(err error) error {
	switch {
	case apperrors.KindOf(err) != "":
		return err
	case errors.Is(err, repositories.ErrWalletNotFound):
		return apperrors.ErrWalletNotFound
	default:
		return fmt.Errorf("execute transfer: %w", err)
	}
}
