package types

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrorKind string

const (
	ProviderUnavailable ErrorKind = "ProviderUnavailable"
	ProviderRejected    ErrorKind = "ProviderRejected"
	VerificationFailed  ErrorKind = "VerificationFailed"
	PersistenceError    ErrorKind = "PersistenceError"
)

var (
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrProviderRejected    = errors.New("provider rejected the request")
	ErrNotFound            = errors.New("not found")
	ErrSessionNotFound     = errors.New("pairing session not found")
	ErrSessionClosed       = errors.New("pairing session is no longer waiting")
)

// WalletError carries an ErrorKind together with a message that can be shown to the user.
type WalletError struct {
	Kind       ErrorKind
	Message    string
	InstallURL string
	Err        error
}

func NewWalletError(kind ErrorKind, format string, args ...interface{}) *WalletError {
	return &WalletError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WrapWalletError(kind ErrorKind, err error, msg string) *WalletError {
	return &WalletError{Kind: kind, Message: msg, Err: err}
}

func (e *WalletError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *WalletError) Unwrap() error { return e.Err }

func AsWalletError(err error) (*WalletError, bool) {
	var we *WalletError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}

// KindOf maps an error returned by a provider or storage backend to its ErrorKind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if we, ok := AsWalletError(err); ok {
		return we.Kind
	}
	switch {
	case errors.Is(err, ErrProviderUnavailable):
		return ProviderUnavailable
	case errors.Is(err, ErrProviderRejected):
		return ProviderRejected
	}
	return ProviderRejected
}
