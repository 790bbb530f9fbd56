package auth

import (
	"errors"
	"testing"

	"github.com/mobirithm/appkit/internal/client/keychain"
	"github.com/mobirithm/appkit/internal/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Equal(t *testing.T) {
	u := User{ID: "1", Provider: ProviderNative}

	assert.True(t, Loading().Equal(Loading()))
	assert.True(t, SignedOut().Equal(SignedOut()))
	assert.True(t, SignedIn(u).Equal(SignedIn(u)))
	assert.False(t, SignedIn(u).Equal(SignedIn(User{ID: "2", Provider: ProviderNative})))
	assert.False(t, Loading().Equal(SignedOut()))

	// all error states compare equal; the detail stays available
	a := Failed(&Error{Kind: ErrorCancelled})
	b := Failed(&Error{Kind: ErrorKeychain, Err: keychain.ErrItemNotFound})
	assert.True(t, a.Equal(b))
	assert.NotEqual(t, a.Err.Kind, b.Err.Kind)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "loading", Loading().String())
	assert.Equal(t, "signedIn(U1, native)", SignedIn(User{ID: "U1", Provider: ProviderNative}).String())
	assert.Equal(t, "error(cancelled)", Failed(&Error{Kind: ErrorCancelled}).String())
}

func TestParseProvider(t *testing.T) {
	for _, s := range []string{"native", "thirdParty", "guest"} {
		p, err := ParseProvider(s)
		require.NoError(t, err)
		assert.Equal(t, Provider(s), p)
	}
	_, err := ParseProvider("apple")
	assert.Error(t, err)
}

func TestUser_DisplayName(t *testing.T) {
	assert.Equal(t, "Jane", User{ID: "1", Email: "e", FullName: "Jane"}.DisplayName())
	assert.Equal(t, "e", User{ID: "1", Email: "e"}.DisplayName())
	assert.Equal(t, "1", User{ID: "1"}.DisplayName())
}

func TestError_Messages(t *testing.T) {
	tr := i18n.Default()

	msgs := map[string]bool{}
	for _, e := range []*Error{
		{Kind: ErrorCancelled},
		{Kind: ErrorFailed},
		{Kind: ErrorInvalidCredentials},
		{Kind: ErrorNetwork},
		{Kind: ErrorKeychain, Err: keychain.ErrItemNotFound},
		{Kind: ErrorKeychain, Err: &keychain.StatusError{Op: "save", Code: 34, Err: errors.New("x")}},
		{Kind: ErrorUnknown, Err: errors.New("kaboom")},
	} {
		msg := e.Message(tr)
		assert.NotEmpty(t, msg)
		assert.False(t, msgs[msg], "duplicate message %q", msg)
		msgs[msg] = true
	}

	assert.Equal(t, "Sign in was cancelled", (&Error{Kind: ErrorCancelled}).Message(tr))
	assert.Equal(t, "Unexpected keychain error (status 34)",
		(&Error{Kind: ErrorKeychain, Err: &keychain.StatusError{Code: 34, Err: errors.New("x")}}).Message(tr))
	assert.Equal(t, "Unexpected error: kaboom", (&Error{Kind: ErrorUnknown, Err: errors.New("kaboom")}).Message(tr))

	tr.SetLocale(i18n.Turkish)
	assert.Equal(t, "Giriş iptal edildi", (&Error{Kind: ErrorCancelled}).Message(tr))
}

func TestError_Unwrap(t *testing.T) {
	e := &Error{Kind: ErrorKeychain, Err: keychain.ErrItemNotFound}
	assert.ErrorIs(t, e, keychain.ErrItemNotFound)
	assert.Equal(t, "auth: keychainError: keychain item not found", e.Error())
	assert.Equal(t, "auth: cancelled", (&Error{Kind: ErrorCancelled}).Error())
}
