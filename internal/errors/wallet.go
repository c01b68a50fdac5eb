package errors

var (
	ErrWalletNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "WALLET_NOT_FOUND",
		Message: "wallet not found",
	}
	ErrInvalidCredential = &DomainError{
		Kind:    KindInvalidCredential,
		Code:    "INVALID_CREDENTIAL",
		Message: "invalid credentials",
	}
	ErrInsufficientBalance = &DomainError{
		Kind:    KindInsufficientFunds,
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient wallet balance",
	}
	ErrDailyLimitExceeded = &DomainError{
		Kind:    KindDailyLimitExceeded,
		Code:    "DAILY_LIMIT_EXCEEDED",
		Message: "daily transaction limit exceeded",
	}
	ErrInvalidAmount = &DomainError{
		Kind:    KindInvalidAmount,
		Code:    "INVALID_AMOUNT",
		Message: "invalid amount",
	}
	ErrUnsupported = &DomainError{
		Kind:    KindUnsupported,
		Code:    "UNSUPPORTED_TRANSACTION",
		Message: "unsupported transaction",
	}
	ErrConflict = &DomainError{
		Kind:    KindConflict,
		Code:    "CONFLICT",
		Message: "transaction could not be completed, please retry",
	}
	ErrTransactionNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "TRANSACTION_NOT_FOUND",
		Message: "transaction not found",
	}
)
