package auth

import (
	"errors"
	"fmt"

	"github.com/mobirithm/appkit/internal/client/identity"
	"github.com/mobirithm/appkit/internal/client/keychain"
	"github.com/mobirithm/appkit/internal/i18n"
)

// ErrorKind classifies why the manager entered the error state.
type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota
	ErrorCancelled
	ErrorFailed
	ErrorInvalidCredentials
	ErrorNetwork
	ErrorKeychain
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorCancelled:
		return "cancelled"
	case ErrorFailed:
		return "failed"
	case ErrorInvalidCredentials:
		return "invalidCredentials"
	case ErrorNetwork:
		return "networkError"
	case ErrorKeychain:
		return "keychainError"
	default:
		return "unknown"
	}
}

// Error is the payload of the error state. Err holds the keychain error for
// ErrorKeychain and the underlying cause for ErrorUnknown.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "auth: " + e.Kind.String()
	}
	return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Message renders the error for display in the translator's locale.
func (e *Error) Message(t *i18n.Translator) string {
	switch e.Kind {
	case ErrorCancelled:
		return t.T("auth.error.cancelled")
	case ErrorFailed:
		return t.T("auth.error.failed")
	case ErrorInvalidCredentials:
		return t.T("auth.error.invalidCredentials")
	case ErrorNetwork:
		return t.T("auth.error.network")
	case ErrorKeychain:
		key, args := keychain.MessageKey(e.Err)
		return t.T(key, args...)
	default:
		detail := "unknown"
		if e.Err != nil {
			detail = e.Err.Error()
		}
		return t.T("auth.error.unknown", detail)
	}
}

func keychainError(err error) *Error {
	return &Error{Kind: ErrorKeychain, Err: err}
}

// fromProviderError maps identity provider failures onto error kinds.
func fromProviderError(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch identity.CodeOf(err) {
	case identity.CodeCanceled:
		return &Error{Kind: ErrorCancelled, Err: err}
	case identity.CodeFailed, identity.CodeNotHandled:
		return &Error{Kind: ErrorFailed, Err: err}
	case identity.CodeInvalidResponse:
		return &Error{Kind: ErrorInvalidCredentials, Err: err}
	case identity.CodeNetwork:
		return &Error{Kind: ErrorNetwork, Err: err}
	default:
		return &Error{Kind: ErrorUnknown, Err: err}
	}
}
