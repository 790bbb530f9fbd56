package credentials

import (
	"context"
	"errors"
)

// Backend names accepted by configuration.
const (
	BackendKeyring = "keyring"
	BackendSQLite  = "sqlite"
	BackendRedis   = "redis"
	BackendMemory  = "memory"
)

var (
	// ErrDuplicate is returned by Set when the backend refuses to overwrite
	// an existing entry. Callers that want upsert semantics delete first.
	ErrDuplicate = errors.New("credential already exists")

	// ErrWrongPassphrase means the sqlite store was created with another passphrase.
	ErrWrongPassphrase = errors.New("credential store passphrase mismatch")
)

// Repository is a flat key/value store for one service namespace.
//
// Get returns common.ErrorNotFound for absent keys and
// common.ErrorInvalidFormat when a stored value cannot be decoded.
// Delete of an absent key is not an error.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}
