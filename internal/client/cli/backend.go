package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/mobirithm/appkit/internal/client/config"
	"github.com/mobirithm/appkit/internal/client/keychain"
	"github.com/mobirithm/appkit/internal/client/repositories/credentials"
	"github.com/mobirithm/appkit/internal/common"
	"github.com/redis/go-redis/v9"
)

// openCredentials builds the credential backend named by the config. The
// returned closer, when non-nil, must be closed after use. passphrase is
// asked only for the sqlite backend when the config carries none.
func openCredentials(ctx context.Context, cfg *config.Config, db *sql.DB, passphrase func() ([]byte, error)) (credentials.Repository, io.Closer, error) {
	switch cfg.CredentialBackend {
	case credentials.BackendMemory:
		return credentials.NewMemoryRepository(), nil, nil

	case credentials.BackendKeyring:
		return credentials.NewKeyringRepository(cfg.ServiceName, keychain.AllKeys), nil, nil

	case credentials.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		return credentials.NewRedisRepository(rdb, cfg.ServiceName), rdb, nil

	case credentials.BackendSQLite:
		pw := []byte(cfg.Passphrase)
		if len(pw) == 0 {
			var err error
			if pw, err = passphrase(); err != nil {
				return nil, nil, fmt.Errorf("read passphrase: %w", err)
			}
		}
		defer common.WipeByteArray(pw)

		repo, err := credentials.NewSQLiteRepository(ctx, db, cfg.ServiceName, pw)
		if err != nil {
			return nil, nil, err
		}
		return repo, nil, nil

	default:
		return nil, nil, fmt.Errorf("%w: credential backend %q", common.ErrorUnsupported, cfg.CredentialBackend)
	}
}
