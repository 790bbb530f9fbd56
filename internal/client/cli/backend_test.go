package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mobirithm/appkit/internal/client/config"
	"github.com/mobirithm/appkit/internal/client/repositories/credentials"
	"github.com/mobirithm/appkit/internal/client/storage"
	"github.com/mobirithm/appkit/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func testConfig(backend string) *config.Config {
	var c config.Config
	c.LoadDefaults()
	c.ServiceName = "test.service"
	c.CredentialBackend = backend
	return &c
}

func noPassphrase() ([]byte, error) { return nil, errors.New("not asked") }

func roundTrip(t *testing.T, repo credentials.Repository) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, "user_id", []byte("U1")))
	got, err := repo.Get(ctx, "user_id")
	require.NoError(t, err)
	assert.Equal(t, []byte("U1"), got)
}

func TestOpenCredentials_Memory(t *testing.T) {
	repo, closer, err := openCredentials(context.Background(), testConfig(credentials.BackendMemory), nil, noPassphrase)
	require.NoError(t, err)
	assert.Nil(t, closer)
	roundTrip(t, repo)
}

func TestOpenCredentials_Keyring(t *testing.T) {
	keyring.MockInit()
	repo, _, err := openCredentials(context.Background(), testConfig(credentials.BackendKeyring), nil, noPassphrase)
	require.NoError(t, err)
	roundTrip(t, repo)
}

func TestOpenCredentials_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	c := testConfig(credentials.BackendRedis)
	c.RedisAddr = mr.Addr()

	repo, closer, err := openCredentials(context.Background(), c, nil, noPassphrase)
	require.NoError(t, err)
	require.NotNil(t, closer)
	t.Cleanup(func() { _ = closer.Close() })
	roundTrip(t, repo)
}

func TestOpenCredentials_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	c := testConfig(credentials.BackendRedis)
	c.RedisAddr = mr.Addr()
	mr.Close()

	_, closer, err := openCredentials(context.Background(), c, nil, noPassphrase)
	require.Error(t, err)
	assert.Nil(t, closer)
	assert.Contains(t, err.Error(), "connect redis")
}

func TestOpenCredentials_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(ctx, "file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c := testConfig(credentials.BackendSQLite)
	asked := 0
	prompt := func() ([]byte, error) {
		asked++
		return []byte("s3cret"), nil
	}

	repo, _, err := openCredentials(ctx, c, db, prompt)
	require.NoError(t, err)
	assert.Equal(t, 1, asked)
	roundTrip(t, repo)

	c.Passphrase = "s3cret"
	repo, _, err = openCredentials(ctx, c, db, prompt)
	require.NoError(t, err)
	assert.Equal(t, 1, asked)
	got, err := repo.Get(ctx, "user_id")
	require.NoError(t, err)
	assert.Equal(t, []byte("U1"), got)

	c.Passphrase = "other"
	_, _, err = openCredentials(ctx, c, db, prompt)
	require.ErrorIs(t, err, credentials.ErrWrongPassphrase)
}

func TestOpenCredentials_PassphrasePromptFails(t *testing.T) {
	_, _, err := openCredentials(context.Background(), testConfig(credentials.BackendSQLite), nil, noPassphrase)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read passphrase")
}

func TestOpenCredentials_Unsupported(t *testing.T) {
	_, _, err := openCredentials(context.Background(), testConfig("etcd"), nil, noPassphrase)
	require.ErrorIs(t, err, common.ErrorUnsupported)
}
