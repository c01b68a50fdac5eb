// Package errors defines the domain error taxonomy shared by services and handlers.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a domain failure. The set is closed.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindInvalidCredential  Kind = "invalid_credential"
	KindInsufficientFunds  Kind = "insufficient_funds"
	KindDailyLimitExceeded Kind = "daily_limit_exceeded"
	KindInvalidAmount      Kind = "invalid_amount"
	KindUnsupported        Kind = "unsupported"
	KindConflict           Kind = "conflict"
)

// DomainError carries a stable code and a caller-safe message. Detail is kept for
// logs and never rendered to clients.
type DomainError struct {
	Kind    Kind
	Code    string
	Message string
	Detail  error
}

func (e *DomainError) Error() string {
	if e.Detail != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Detail)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Detail
}

// Is matches any DomainError of the same kind, so wrapped instances still
// satisfy errors.Is against the sentinels below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Wrap returns a copy of the sentinel with detail attached.
func Wrap(sentinel *DomainError, detail error) *DomainError {
	return &DomainError{
		Kind:    sentinel.Kind,
		Code:    sentinel.Code,
		Message: sentinel.Message,
		Detail:  detail,
	}
}

// KindOf extracts the kind of err, or "" when err is not a domain error.
func KindOf(err error) Kind {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Kind
	}
	return ""
}
