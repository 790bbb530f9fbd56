package credentials

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/mobirithm/appkit/internal/common"
	"github.com/zalando/go-keyring"
)

// KeyringRepository stores entries as generic passwords of the OS keyring,
// with the service name as the keyring service and the key as the account.
// Values are base64 encoded since keyring secrets are strings.
//
// OS keyrings cannot enumerate accounts, so List probes knownKeys.
type KeyringRepository struct {
	service   string
	knownKeys []string
}

func NewKeyringRepository(service string, knownKeys []string) *KeyringRepository {
	return &KeyringRepository{service: service, knownKeys: knownKeys}
}

func (r *KeyringRepository) Get(_ context.Context, key string) ([]byte, error) {
	secret, err := keyring.Get(r.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("keyring get %s: %w", key, err)
	}
	v, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("keyring value %s: %w", key, common.ErrorInvalidFormat)
	}
	return v, nil
}

func (r *KeyringRepository) Set(_ context.Context, key string, value []byte) error {
	if err := keyring.Set(r.service, key, base64.StdEncoding.EncodeToString(value)); err != nil {
		return fmt.Errorf("keyring set %s: %w", key, err)
	}
	return nil
}

func (r *KeyringRepository) Delete(_ context.Context, key string) error {
	err := keyring.Delete(r.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete %s: %w", key, err)
	}
	return nil
}

func (r *KeyringRepository) List(ctx context.Context) ([]string, error) {
	var keys []string
	for _, k := range r.knownKeys {
		_, err := r.Get(ctx, k)
		switch {
		case err == nil, errors.Is(err, common.ErrorInvalidFormat):
			keys = append(keys, k)
		case errors.Is(err, common.ErrorNotFound):
		default:
			return nil, err
		}
	}
	return keys, nil
}

func (r *KeyringRepository) Clear(_ context.Context) error {
	err := keyring.DeleteAll(r.service)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring clear %s: %w", r.service, err)
	}
	return nil
}
