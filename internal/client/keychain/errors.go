package keychain

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound      = errors.New("keychain item not found")
	ErrDuplicateItem     = errors.New("keychain item already exists")
	ErrInvalidItemFormat = errors.New("invalid keychain item format")
)

// UnknownStatus is the code used when the backend error carries none.
const UnknownStatus = -1

// StatusError is an unexpected backend failure. Code is the backend status
// (a SQLite result code, for instance) or UnknownStatus.
type StatusError struct {
	Op   string
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("keychain %s: unexpected status %d: %v", e.Op, e.Code, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// MessageKey returns the catalog key describing err, and its arguments.
func MessageKey(err error) (string, []any) {
	var se *StatusError
	switch {
	case errors.Is(err, ErrItemNotFound):
		return "error.keychain.itemNotFound", nil
	case errors.Is(err, ErrDuplicateItem):
		return "error.keychain.duplicateItem", nil
	case errors.Is(err, ErrInvalidItemFormat):
		return "error.keychain.invalidFormat", nil
	case errors.As(err, &se):
		return "error.keychain.unexpected", []any{se.Code}
	default:
		return "error.keychain.unexpected", []any{UnknownStatus}
	}
}
