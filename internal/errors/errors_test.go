package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByKind(t *testing.T) {
	wrapped := Wrap(ErrInsufficientBalance, fmt.Errorf("wallet balance 10"))

	assert.True(t, stderrors.Is(wrapped, ErrInsufficientBalance))
	assert.False(t, stderrors.Is(wrapped, ErrDailyLimitExceeded))
	assert.Equal(t, KindInsufficientFunds, KindOf(fmt.Errorf("execute: %w", wrapped)))
}

func TestDomainError_NotFoundSentinelsShareKind(t *testing.T) {
	assert.True(t, stderrors.Is(ErrTransactionNotFound, ErrWalletNotFound))
}

func TestDomainError_ErrorString(t *testing.T) {
	assert.Equal(t, "invalid amount", ErrInvalidAmount.Error())
	err := Wrap(ErrConflict, stderrors.New("serialization failure"))
	assert.Contains(t, err.Error(), "serialization failure")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestKindOf_NonDomainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(stderrors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}
