package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mobirithm/appkit/internal/common"
	"github.com/mobirithm/appkit/internal/cryptox"
	"github.com/mobirithm/appkit/internal/dbx"
)

const sqliteConstraint = 19

// SQLiteRepository keeps sealed entries in the credentials table. The
// sealing key is derived from a passphrase and a salt stored once per
// database in credential_keys.
type SQLiteRepository struct {
	db      dbx.DBTX
	service string
	sealer  *cryptox.Sealer
}

// NewSQLiteRepository unlocks (or on first use initializes) the store.
// A passphrase that does not match the stored verifier yields ErrWrongPassphrase.
func NewSQLiteRepository(ctx context.Context, db *sql.DB, service string, passphrase []byte) (*SQLiteRepository, error) {
	var key []byte

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var salt, verifier []byte
		err := tx.QueryRowContext(ctx, `SELECT salt, verifier FROM credential_keys WHERE id = 1`).Scan(&salt, &verifier)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			salt = cryptox.NewSalt()
			key = cryptox.DeriveKey(passphrase, salt)
			_, err = tx.ExecContext(ctx, `INSERT INTO credential_keys (id, salt, verifier) VALUES (1, ?, ?)`,
				salt, cryptox.Verifier(key))
			if err != nil {
				return fmt.Errorf("failed to init credential key: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("failed to read credential key: %w", err)
		}

		key = cryptox.DeriveKey(passphrase, salt)
		if !cryptox.CheckVerifier(key, verifier) {
			return ErrWrongPassphrase
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	sealer, err := cryptox.NewSealer(key)
	if err != nil {
		return nil, err
	}
	return &SQLiteRepository{db: db, service: service, sealer: sealer}, nil
}

func (r *SQLiteRepository) additional(key string) []byte {
	return []byte(r.service + "\x00" + key)
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var sealed []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM credentials WHERE service = ? AND key = ?`, r.service, key).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential[%s]: %w", key, err)
	}

	v, err := r.sealer.Open(sealed, r.additional(key))
	if err != nil {
		return nil, fmt.Errorf("credential[%s]: %w", key, common.ErrorInvalidFormat)
	}
	return v, nil
}

// Set inserts a new entry; an existing one yields ErrDuplicate.
func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credentials (service, key, value) VALUES (?, ?, ?)`,
		r.service, key, r.sealer.Seal(value, r.additional(key)))
	if err != nil {
		if code, ok := dbx.ErrorCode(err); ok && code&0xff == sqliteConstraint {
			return fmt.Errorf("credential[%s]: %w", key, ErrDuplicate)
		}
		return fmt.Errorf("failed to set credential[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE service = ? AND key = ?`, r.service, key)
	if err != nil {
		return fmt.Errorf("failed to delete credential[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key FROM credentials WHERE service = ? ORDER BY key`, r.service)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan credential row: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credential rows: %w", err)
	}
	return keys, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE service = ?`, r.service); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
