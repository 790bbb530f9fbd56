// Package keychain is the credential store used by the auth layer: small
// secrets addressed by string keys inside one service namespace.
package keychain

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/mobirithm/appkit/internal/client/repositories/credentials"
	"github.com/mobirithm/appkit/internal/common"
	"github.com/mobirithm/appkit/internal/logging"
)

// Store is what the auth layer needs from the credential store.
type Store interface {
	Save(ctx context.Context, key string, value []byte) error
	SaveString(ctx context.Context, key, value string) error
	Load(ctx context.Context, key string) ([]byte, error)
	LoadString(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) bool
	Delete(ctx context.Context, key string) error
	ClearAll(ctx context.Context) error
}

type Manager struct {
	repo    credentials.Repository
	service string
	log     logging.Logger
}

func NewManager(repo credentials.Repository, service string, log logging.Logger) *Manager {
	if service == "" {
		service = common.DefaultServiceName
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Manager{repo: repo, service: service, log: log.With("component", "keychain", "service", service)}
}

// Service is the namespace entries live in.
func (m *Manager) Service() string { return m.service }

type coder interface{ Code() int }

func statusError(op string, err error) error {
	code := UnknownStatus
	var c coder
	if errors.As(err, &c) {
		code = c.Code()
	}
	return &StatusError{Op: op, Code: code, Err: err}
}

func mapError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorNotFound):
		return ErrItemNotFound
	case errors.Is(err, common.ErrorInvalidFormat):
		return fmt.Errorf("%w: %v", ErrInvalidItemFormat, err)
	case errors.Is(err, credentials.ErrDuplicate):
		return ErrDuplicateItem
	default:
		return statusError(op, err)
	}
}

// Save stores value under key, replacing whatever was there.
func (m *Manager) Save(ctx context.Context, key string, value []byte) error {
	if err := m.repo.Delete(ctx, key); err != nil {
		m.log.Debug(ctx, "pre-save delete failed", "key", key, "error", err)
	}
	if err := m.repo.Set(ctx, key, value); err != nil {
		m.log.Warn(ctx, "save failed", "key", key, "error", err)
		return mapError("save", err)
	}
	return nil
}

func (m *Manager) SaveString(ctx context.Context, key, value string) error {
	if !utf8.ValidString(value) {
		return ErrInvalidItemFormat
	}
	return m.Save(ctx, key, []byte(value))
}

// Load returns ErrItemNotFound for absent keys and ErrInvalidItemFormat for
// values that cannot be decoded.
func (m *Manager) Load(ctx context.Context, key string) ([]byte, error) {
	v, err := m.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			m.log.Warn(ctx, "load failed", "key", key, "error", err)
		}
		return nil, mapError("load", err)
	}
	return v, nil
}

func (m *Manager) LoadString(ctx context.Context, key string) (string, error) {
	v, err := m.Load(ctx, key)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(v) {
		return "", ErrInvalidItemFormat
	}
	return string(v), nil
}

// Exists never fails: backend errors read as false. An entry that is
// present but undecodable still exists.
func (m *Manager) Exists(ctx context.Context, key string) bool {
	_, err := m.repo.Get(ctx, key)
	return err == nil || errors.Is(err, common.ErrorInvalidFormat)
}

// Delete succeeds when key is already absent.
func (m *Manager) Delete(ctx context.Context, key string) error {
	if err := m.repo.Delete(ctx, key); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return mapError("delete", err)
	}
	return nil
}

// ClearAll removes every entry of the service namespace.
func (m *Manager) ClearAll(ctx context.Context) error {
	if err := m.repo.Clear(ctx); err != nil {
		m.log.Error(ctx, "clear failed", "error", err)
		return mapError("clear", err)
	}
	m.log.Info(ctx, "cleared credential store")
	return nil
}

// Keys lists the keys currently stored.
func (m *Manager) Keys(ctx context.Context) ([]string, error) {
	keys, err := m.repo.List(ctx)
	if err != nil {
		return nil, mapError("list", err)
	}
	return keys, nil
}
