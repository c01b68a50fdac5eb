package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "bitcash/internal/errors"
	"bitcash/internal/models"
	"bitcash/internal/repositories"
	"bitcash/internal/repositories/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCredentials struct {
	mock.Mock
}

func (m *MockCredentials) VerifyPin(ctx context.Context, ownerID uuid.UUID, pin string) (bool, error) {
	args := m.Called(ownerID, pin)
	return args.Bool(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event string, payload models.TransactionEvent) error {
	args := m.Called(event, payload)
	return args.Error(0)
}

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidateWallets(ctx context.Context, wallets ...*models.Wallet) error {
	args := m.Called(len(wallets))
	return args.Error(0)
}

type staticFees map[models.TransactionType]decimal.Decimal

func (f staticFees) GetFeePercentage(ctx context.Context, txType models.TransactionType) (decimal.Decimal, error) {
	return f[txType], nil
}

var tripoli = mustLocation("Africa/Tripoli")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	store *memory.Store
	creds *MockCredentials
	now   time.Time
}

func newFixture() *fixture {
	return &fixture{
		store: memory.NewStore(),
		creds: new(MockCredentials),
		now:   time.Date(2026, 3, 10, 12, 0, 0, 0, tripoli),
	}
}

func (f *fixture) wallet(ownerType models.OwnerType, balance string) models.Wallet {
	return f.store.PutWallet(models.Wallet{
		OwnerID:    uuid.New(),
		OwnerType:  ownerType,
		Balance:    d(balance),
		Currency:   "LYD",
		DailyLimit: d("10000"),
	})
}

func (f *fixture) service(fees staticFees, notifier Notifier, opts ...Option) *Service {
	cfg := Config{
		Location:             tripoli,
		DefaultDailyLimit:    d("10000"),
		MaxConflictRetries:   3,
		MaxReferenceAttempts: 3,
		NotifyTimeout:        time.Second,
	}
	opts = append([]Option{WithClock(func() time.Time { return f.now })}, opts...)
	return NewService(f.store, f.creds, fees, notifier, cfg, nil, opts...)
}

func (f *fixture) balance(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	w, err := f.store.GetWallet(context.Background(), id)
	require.NoError(t, err)
	return w.Balance
}

func onePercent() staticFees {
	return staticFees{
		models.TransactionTypeTransfer: d("1"),
		models.TransactionTypePayment:  d("1"),
	}
}

func TestExecuteTransfer_AppliesFee(t *testing.T) {
	f := newFixture()
	a := f.wallet(models.OwnerTypeCustomer, "1000")
	b := f.wallet(models.OwnerTypeCustomer, "200")
	f.creds.On("VerifyPin", a.OwnerID, "1234").Return(true, nil)

	svc := f.service(onePercent(), nil)
	txn, err := svc.ExecuteTransfer(context.Background(), TransferRequest{
		Type:             models.TransactionTypeTransfer,
		SenderWalletID:   a.ID,
		ReceiverWalletID: b.ID,
		Amount:           d("300"),
		PIN:              "1234",
	})
	require.NoError(t, err)

	assert.True(t, f.balance(t, a.ID).Equal(d("697")), f.balance(t, a.ID).String())
	assert.True(t, f.balance(t, b.ID).Equal(d("500")))
	assert.True(t, txn.Fee.Equal(d("3")))
	assert.True(t, txn.Amount.Equal(d("300")))
	assert.Equal(t, models.TransactionStatusCompleted, txn.Status)
	assert.Equal(t, "LYD", txn.Currency)
	assert.Regexp(t, `^TRF\d{13}[A-Z2-7]{6}$`, txn.Reference)
	assert.Equal(t, f.now, txn.CreatedAt)

	a2, _ := f.store.GetWallet(context.Background(), a.ID)
	require.NotNil(t, a2.LastActivity)
	assert.Equal(t, f.now, *a2.LastActivity)

	logged := f.store.Transactions()
	require.Len(t, logged, 1)
	assert.Equal(t, txn.Reference, logged[0].Reference)
}

func TestExecuteTransfer_FeeRoundsToCurrencyScale(t *testing.T) {
	f := newFixture()
	a := f.store.PutWallet(models.Wallet{OwnerID: uuid.New(), OwnerType: models.OwnerTypeCustomer, Balance: d("100"), Currency: "USD"})
	b := f.store.PutWallet(models.Wallet{OwnerID: uuid.New(), OwnerType: models.OwnerTypeCustomer, Currency: "USD"})
	f.creds.On("VerifyPin", a.OwnerID, "1234").Return(true, nil)

	svc := f.service(staticFees{models.TransactionTypeTransfer: d("1.5")}, nil)
	txn, err := svc.ExecuteTransfer(context.Background(), TransferRequest{
		Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, ReceiverWalletID: b.ID,
		Amount: d("10.33"), PIN: "1234",
	})
	require.NoError(t, err)
	// 10.33 * 1.5% = 0.15495
	assert.Equal(t, "0.15", txn.Fee.StringFixed(2))
	assert.True(t, f.balance(t, a.ID).Equal(d("89.52")))
}

func TestExecuteTransfer_WrongPinLeavesBalances(t *testing.T) {
	f := newFixture()
	a := f.wallet(models.OwnerTypeCustomer, "500")
	f.creds.On("VerifyPin", a.OwnerID, "0000").Return(false, nil)

	svc := f.service(onePercent(), nil)
	_, err := svc.ExecuteTransfer(context.Background(), TransferRequest{
		Type:           models.TransactionTypeWithdrawal,
		SenderWalletID: a.ID,
		Amount:         d("100"),
		PIN:            "0000",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredential)
	assert.Equal(t, "invalid credentials", err.Error())
	assert.True(t, f.balance(t, a.ID).Equal(d("500")))
	assert.Empty(t, f.store.Transactions())
}

func TestExecuteTransfer_DailyLimit(t *testing.T) {
	f := newFixture()
	a := f.store.PutWallet(models.Wallet{
		OwnerID: uuid.New(), OwnerType: models.OwnerTypeCustomer,
		Balance: d("5000"), Currency: "LYD", DailyLimit: d("1000"),
	})
	b := f.wallet(models.OwnerTypeCustomer, "0")
	f.creds.On("VerifyPin", a.OwnerID, "1234").Return(true, nil)

	f.store.PutTransaction(models.Transaction{
		Reference: "TRF-earlier", Type: models.TransactionTypeTransfer, Amount: d("900"),
		SenderWalletID: &a.ID, Status: models.TransactionStatusCompleted,
		CreatedAt: f.now.Add(-2 * time.Hour),
	})
	// Yesterday and failed rows do not count.
	f.store.PutTransaction(models.Transaction{
		Reference: "TRF-yesterday", Amount: d("900"), SenderWalletID: &a.ID,
		Status: models.TransactionStatusCompleted, CreatedAt: f.now.Add(-13 * time.Hour),
	})
	f.store.PutTransaction(models.Transaction{
		Reference: "TRF-failed", Amount: d("900"), SenderWalletID: &a.ID,
		Status: models.TransactionStatusFailed, CreatedAt: f.now.Add(-time.Hour),
	})

	svc := f.service(staticFees{}, nil)
	req := TransferRequest{
		Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, ReceiverWalletID: b.ID, PIN: "1234",
	}

	req.Amount = d("150")
	_, err := svc.ExecuteTransfer(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrDailyLimitExceeded)

	req.Amount = d("100")
	_, err = svc.ExecuteTransfer(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, f.balance(t, a.ID).Equal(d("4900")))

	req.Amount = d("0.001")
	_, err = svc.ExecuteTransfer(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrDailyLimitExceeded)
}

func TestExecuteTransfer_DailyLimitFallsBackToDefault(t *testing.T) {
	f := newFixture()
	a := f.store.PutWallet(models.Wallet{OwnerID: uuid.New(), OwnerType: models.OwnerTypeCustomer, Balance: d("20000"), Currency: "LYD"})
	b := f.wallet(models.OwnerTypeCustomer, "0")
	f.creds.On("VerifyPin", a.OwnerID, "1234").Return(true, nil)

	svc := f.service(staticFees{}, nil)
	_, err := svc.ExecuteTransfer(context.Background(), TransferRequest{
		Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, ReceiverWalletID: b.ID,
		Amount: d("10000.001"), PIN: "1234",
	})
	assert.ErrorIs(t, err, apperrors.ErrDailyLimitExceeded)
}

func TestExecuteTransfer_InsufficientFundsIncludesFee(t *testing.T) {
	f := newFixture()
	a := f.wallet(models.OwnerTypeCustomer, "100")
	b := f.wallet(models.OwnerTypeCustomer, "0")
	f.creds.On("VerifyPin", a.OwnerID, "1234").Return(true, nil)

	svc := f.service(onePercent(), nil)
	_, err := svc.ExecuteTransfer(context.Background(), TransferRequest{
		Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, ReceiverWalletID: b.ID,
		Amount: d("100"), PIN: "1234",
	})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	assert.True(t, f.balance(t, a.ID).Equal(d("100")))
	assert.True(t, f.balance(t, b.ID).IsZero())
}

func TestExecuteTransfer_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	f := newFixture()
	a := f.wallet(models.OwnerTypeCustomer, "1000")
	b := f.wallet(models.OwnerTypeCustomer, "0")
	f.creds.On("VerifyPin", a.OwnerID, "1234").Return(true, nil)
	svc := f.service(staticFees{}, nil)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		errs      = make(chan error, 2)
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ExecuteTransfer(context.Background(), TransferRequest{
				Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, ReceiverWalletID: b.ID,
				Amount: d("600"), PIN: "1234",
			})
			if err == nil {
				succeeded.Add(1)
				return
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	assert.Equal(t, int32(1), succeeded.Load())
	for err := range errs {
		assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	}
	assert.True(t, f.balance(t, a.ID).Equal(d("400")))
	assert.True(t, f.balance(t, b.ID).Equal(d("600")))
}

func TestExecuteTransfer_OpposingTransfersConserveMoney(t *testing.T) {
	f := newFixture()
	a := f.wallet(models.OwnerTypeCustomer, "1000")
	b := f.wallet(models.OwnerTypeCustomer, "1000")
	f.creds.On("VerifyPin", mock.Anything, "1234").Return(true, nil)
	svc := f.service(onePercent(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		from, to := a, b
		if i%2 == 1 {
			from, to = b, a
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.ExecuteTransfer(context.Background(), TransferRequest{
				Type: models.TransactionTypeTransfer, SenderWalletID: from.ID, ReceiverWalletID: to.ID,
				Amount: d("10"), PIN: "1234",
			})
		}()
	}
	wg.Wait()

	fees := decimal.Zero
	for _, txn := range f.store.Transactions() {
		fees = fees.Add(txn.Fee)
	}
	total := f.balance(t, a.ID).Add(f.balance(t, b.ID)).Add(fees)
	assert.True(t, total.Equal(d("2000")), total.String())
	assert.Len(t, f.store.Transactions(), 20)
}

func TestExecuteTransfer_InsertFailureRollsBack(t *testing.T) {
	f := newFixture()
	a := f.wallet(models.OwnerTypeCustomer, "1000")
	b := f.wallet(models.OwnerTypeCustomer, "200")
	f.creds.On("VerifyPin", a.OwnerID, "1234").Return(true, nil)
	f.store.FailNextInsert(errors.New("disk full"))

	svc := f.service(onePercent(), nil)
	_, err := svc.ExecuteTransfer(context.Background(), TransferRequest{
		Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, ReceiverWalletID: b.ID,
		Amount: d("300"), PIN: "1234",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.Kind(""), apperrors.KindOf(err))
	assert.True(t, f.balance(t, a.ID).Equal(d("1000")))
	assert.True(t, f.balance(t, b.ID).Equal(d("200")))
	assert.Empty(t, f.store.Transactions())
}

func TestExecuteTransfer_ReferenceCollision(t *testing.T) {
	t.Run("retries with a fresh reference", func(t *testing.T) {
		f := newFixture()
		a := f.wallet(models.OwnerTypeCustomer, "1000")
		b := f.wallet(models.OwnerTypeCustomer, "0")
		f.creds.On("VerifyPin", a.OwnerID, "1234").Return(true, nil)
		f.store.PutTransaction(models.Transaction{Reference: "TRF-taken"})

		calls := 0
		gen := func(prefix string, now time.Time) string {
			calls++
			if calls < 3 {
				return "TRF-taken"
			}
			return "TRF-fresh"
		}
		svc := f.service(staticFees{}, nil, WithReferenceGenerator(gen))
		txn, err := svc.ExecuteTransfer(context.Background(), TransferRequest{
			Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, ReceiverWalletID: b.ID,
			Amount: d("1"), PIN: "1234",
		})
		require.NoError(t, err)
		assert.Equal(t, "TRF-fresh", txn.Reference)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up with conflict", func(t *testing.T) {
		f := newFixture()
		a := f.wallet(models.OwnerTypeCustomer, "1000")
		b := f.wallet(models.OwnerTypeCustomer, "0")
		f.creds.On("VerifyPin", a.OwnerID, "1234").Return(true, nil)
		f.store.PutTransaction(models.Transaction{Reference: "TRF-taken"})

		gen := func(string, time.Time) string { return "TRF-taken" }
		svc := f.service(staticFees{}, nil, WithReferenceGenerator(gen))
		_, err := svc.ExecuteTransfer(context.Background(), TransferRequest{
			Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, ReceiverWalletID: b.ID,
			Amount: d("1"), PIN: "1234",
		})
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		assert.True(t, f.balance(t, a.ID).Equal(d("1000")))
		assert.Len(t, f.store.Transactions(), 1)
	})
}

func TestExecuteTransfer_SerializationRetries(t *testing.T) {
	f := newFixture()
	a := f.wallet(models.OwnerTypeCustomer, "1000")
	b := f.wallet(models.OwnerTypeCustomer, "0")
	f.creds.On("VerifyPin", a.OwnerID, "1234").Return(true, nil)
	svc := f.service(staticFees{}, nil)
	req := TransferRequest{
		Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, ReceiverWalletID: b.ID,
		Amount: d("10"), PIN: "1234",
	}

	f.store.FailSerialization(3)
	_, err := svc.ExecuteTransfer(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, f.balance(t, a.ID).Equal(d("990")))

	f.store.FailSerialization(4)
	_, err = svc.ExecuteTransfer(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.ErrorIs(t, err, repositories.ErrSerialization)
	assert.True(t, f.balance(t, a.ID).Equal(d("990")))
}

func TestExecuteTransfer_Validation(t *testing.T) {
	f := newFixture()
	a := f.wallet(models.OwnerTypeCustomer, "1000")
	b := f.wallet(models.OwnerTypeCustomer, "0")
	m := f.wallet(models.OwnerTypeMerchant, "0")
	usd := f.store.PutWallet(models.Wallet{OwnerID: uuid.New(), OwnerType: models.OwnerTypeCustomer, Currency: "USD"})
	suspended := f.store.PutWallet(models.Wallet{OwnerID: uuid.New(), OwnerType: models.OwnerTypeCustomer, Balance: d("100"), Currency: "LYD", Status: models.WalletStatusSuspended})
	f.creds.On("VerifyPin", mock.Anything, "1234").Return(true, nil)
	svc := f.service(onePercent(), nil)

	tests := []struct {
		name string
		req  TransferRequest
		want *apperrors.DomainError
	}{
		{"zero amount", TransferRequest{Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, ReceiverWalletID: b.ID, Amount: decimal.Zero}, apperrors.ErrInvalidAmount},
		{"negative amount", TransferRequest{Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, ReceiverWalletID: b.ID, Amount: d("-5")}, apperrors.ErrInvalidAmount},
		{"too many decimals", TransferRequest{Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, ReceiverWalletID: b.ID, Amount: d("1.0001"), PIN: "1234"}, apperrors.ErrInvalidAmount},
		{"conversion", TransferRequest{Type: models.TransactionTypeConversion, SenderWalletID: a.ID, ReceiverWalletID: b.ID, Amount: d("1")}, apperrors.ErrUnsupported},
		{"unknown type", TransferRequest{Type: "refund", SenderWalletID: a.ID, Amount: d("1")}, apperrors.ErrUnsupported},
		{"deposit with sender", TransferRequest{Type: models.TransactionTypeDeposit, SenderWalletID: a.ID, ReceiverWalletID: b.ID, Amount: d("1")}, apperrors.ErrUnsupported},
		{"self transfer", TransferRequest{Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, ReceiverWalletID: a.ID, Amount: d("1"), PIN: "1234"}, apperrors.ErrUnsupported},
		{"cross currency", TransferRequest{Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, ReceiverWalletID: usd.ID, Amount: d("1"), PIN: "1234"}, apperrors.ErrUnsupported},
		{"payment to customer", TransferRequest{Type: models.TransactionTypePayment, SenderWalletID: a.ID, ReceiverWalletID: b.ID, Amount: d("1"), PIN: "1234"}, apperrors.ErrUnsupported},
		{"unknown receiver", TransferRequest{Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, ReceiverWalletID: uuid.New(), Amount: d("1"), PIN: "1234"}, apperrors.ErrWalletNotFound},
		{"missing sender", TransferRequest{Type: models.TransactionTypePayment, ReceiverWalletID: m.ID, Amount: d("1"), PIN: "1234"}, apperrors.ErrWalletNotFound},
		{"missing receiver", TransferRequest{Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, Amount: d("1"), PIN: "1234"}, apperrors.ErrWalletNotFound},
		{"suspended sender", TransferRequest{Type: models.TransactionTypeTransfer, SenderWalletID: suspended.ID, ReceiverWalletID: b.ID, Amount: d("1"), PIN: "1234"}, apperrors.ErrWalletNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ExecuteTransfer(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, f.store.Transactions())
	assert.True(t, f.balance(t, a.ID).Equal(d("1000")))
}

func TestExecuteTransfer_NotFoundDoesNotNameWallet(t *testing.T) {
	f := newFixture()
	a := f.wallet(models.OwnerTypeCustomer, "1000")
	missing := uuid.New()
	svc := f.service(staticFees{}, nil)

	_, err := svc.ExecuteTransfer(context.Background(), TransferRequest{
		Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, ReceiverWalletID: missing,
		Amount: d("1"), PIN: "1234",
	})
	require.ErrorIs(t, err, apperrors.ErrWalletNotFound)
	assert.NotContains(t, err.Error(), missing.String())
	assert.NotContains(t, err.Error(), "receiver")
}

func TestExecuteTransfer_Payment(t *testing.T) {
	f := newFixture()
	a := f.wallet(models.OwnerTypeCustomer, "1000")
	m := f.wallet(models.OwnerTypeMerchant, "0")
	f.creds.On("VerifyPin", a.OwnerID, "1234").Return(true, nil)

	svc := f.service(onePercent(), nil)
	txn, err := svc.ExecuteTransfer(context.Background(), TransferRequest{
		Type: models.TransactionTypePayment, SenderWalletID: a.ID, ReceiverWalletID: m.ID,
		Amount: d("50"), PIN: "1234", Metadata: models.JSON{"order": "A-17"},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^PAY`, txn.Reference)
	assert.True(t, f.balance(t, a.ID).Equal(d("949.5")))
	assert.True(t, f.balance(t, m.ID).Equal(d("50")))
	assert.Equal(t, "A-17", txn.Metadata["order"])
}

func TestExecuteTransfer_Deposit(t *testing.T) {
	f := newFixture()
	b := f.store.PutWallet(models.Wallet{OwnerID: uuid.New(), OwnerType: models.OwnerTypeCustomer, Currency: "LYD", DailyLimit: d("500")})
	agent := uuid.New()
	svc := f.service(onePercent(), nil)

	txn, err := svc.ExecuteTransfer(context.Background(), TransferRequest{
		Type: models.TransactionTypeDeposit, ReceiverWalletID: b.ID, Amount: d("400"), AgentID: agent,
	})
	require.NoError(t, err)
	assert.True(t, f.balance(t, b.ID).Equal(d("400")))
	assert.True(t, txn.Fee.IsZero())
	assert.Nil(t, txn.SenderWalletID)
	require.NotNil(t, txn.AgentID)
	assert.Equal(t, agent, *txn.AgentID)
	assert.Regexp(t, `^AG`, txn.Reference)
	f.creds.AssertNotCalled(t, "VerifyPin", mock.Anything, mock.Anything)

	_, err = svc.ExecuteTransfer(context.Background(), TransferRequest{
		Type: models.TransactionTypeDeposit, ReceiverWalletID: b.ID, Amount: d("101"), AgentID: agent,
	})
	assert.ErrorIs(t, err, apperrors.ErrDailyLimitExceeded)
}

func TestExecuteTransfer_AgentCashOutHasNoFee(t *testing.T) {
	f := newFixture()
	c := f.wallet(models.OwnerTypeCustomer, "300")
	ag := f.wallet(models.OwnerTypeAgent, "1000")
	f.creds.On("VerifyPin", c.OwnerID, "4321").Return(true, nil)

	svc := f.service(staticFees{models.TransactionTypeWithdrawal: d("2")}, nil)
	txn, err := svc.ExecuteTransfer(context.Background(), TransferRequest{
		Type: models.TransactionTypeWithdrawal, SenderWalletID: c.ID, ReceiverWalletID: ag.ID,
		Amount: d("100"), PIN: "4321", AgentID: ag.OwnerID,
	})
	require.NoError(t, err)
	assert.True(t, txn.Fee.IsZero())
	assert.True(t, f.balance(t, c.ID).Equal(d("200")))
	assert.True(t, f.balance(t, ag.ID).Equal(d("1100")))
	assert.Regexp(t, `^AG`, txn.Reference)
}

func TestExecuteTransfer_WithdrawalWithoutReceiver(t *testing.T) {
	f := newFixture()
	c := f.wallet(models.OwnerTypeCustomer, "300")
	f.creds.On("VerifyPin", c.OwnerID, "4321").Return(true, nil)

	svc := f.service(staticFees{models.TransactionTypeWithdrawal: d("2")}, nil)
	txn, err := svc.ExecuteTransfer(context.Background(), TransferRequest{
		Type: models.TransactionTypeWithdrawal, SenderWalletID: c.ID, Amount: d("100"), PIN: "4321",
	})
	require.NoError(t, err)
	assert.True(t, txn.Fee.Equal(d("2")))
	assert.Nil(t, txn.ReceiverWalletID)
	assert.Regexp(t, `^WDR`, txn.Reference)
	assert.True(t, f.balance(t, c.ID).Equal(d("198")))
}

func TestExecuteTransfer_NotifierFailureIsIgnored(t *testing.T) {
	f := newFixture()
	a := f.wallet(models.OwnerTypeCustomer, "1000")
	b := f.wallet(models.OwnerTypeCustomer, "0")
	f.creds.On("VerifyPin", a.OwnerID, "1234").Return(true, nil)

	notifier := new(MockNotifier)
	notifier.On("Notify", models.EventTransactionCompleted, mock.MatchedBy(func(e models.TransactionEvent) bool {
		return e.SenderOwnerID == a.OwnerID && e.ReceiverOwnerID == b.OwnerID
	})).Return(errors.New("smtp down"))
	invalidator := new(MockInvalidator)
	invalidator.On("InvalidateWallets", 2).Return(errors.New("redis down"))

	svc := f.service(staticFees{}, notifier, WithCacheInvalidator(invalidator))
	txn, err := svc.ExecuteTransfer(context.Background(), TransferRequest{
		Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, ReceiverWalletID: b.ID,
		Amount: d("10"), PIN: "1234",
	})
	require.NoError(t, err)
	require.NotNil(t, txn)
	svc.Wait()

	notifier.AssertExpectations(t)
	invalidator.AssertExpectations(t)
	assert.Len(t, f.store.Transactions(), 1)
}

func TestExecuteTransfer_CancelledBeforeStart(t *testing.T) {
	f := newFixture()
	a := f.wallet(models.OwnerTypeCustomer, "1000")
	b := f.wallet(models.OwnerTypeCustomer, "0")
	f.creds.On("VerifyPin", a.OwnerID, "1234").Return(true, nil)
	svc := f.service(staticFees{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.ExecuteTransfer(ctx, TransferRequest{
		Type: models.TransactionTypeTransfer, SenderWalletID: a.ID, ReceiverWalletID: b.ID,
		Amount: d("10"), PIN: "1234",
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.store.Transactions())
}

func TestExecuteTransfer_LocksInAscendingOrder(t *testing.T) {
	f := newFixture()
	a := f.wallet(models.OwnerTypeCustomer, "1000")
	b := f.wallet(models.OwnerTypeCustomer, "1000")
	f.creds.On("VerifyPin", mock.Anything, "1234").Return(true, nil)
	svc := f.service(staticFees{}, nil)

	for _, pair := range [][2]uuid.UUID{{a.ID, b.ID}, {b.ID, a.ID}} {
		_, err := svc.ExecuteTransfer(context.Background(), TransferRequest{
			Type: models.TransactionTypeTransfer, SenderWalletID: pair[0], ReceiverWalletID: pair[1],
			Amount: d("1"), PIN: "1234",
		})
		require.NoError(t, err)
	}

	sorted := repositories.SortedIDs([]uuid.UUID{a.ID, b.ID})
	assert.Equal(t, append(append([]uuid.UUID{}, sorted...), sorted...), f.store.LockOrder())
}

func TestStartOfDay(t *testing.T) {
	// 23:30 UTC on the 9th is already the 10th in Tripoli (UTC+2).
	got := startOfDay(time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC), tripoli)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, tripoli), got)
}
