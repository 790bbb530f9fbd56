package cli

import (
	"context"
	"testing"

	"github.com/mobirithm/appkit/internal/client/auth"
	"github.com/mobirithm/appkit/internal/client/entitlements"
	"github.com/mobirithm/appkit/internal/client/identity"
	"github.com/mobirithm/appkit/internal/client/paywall"
	"github.com/mobirithm/appkit/internal/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignInApple_ReadsTokenFromTerminal(t *testing.T) {
	ta := newTestApp(t, "tok123\n\n", true)

	require.NoError(t, ta.SignInApple(context.Background()))

	u, ok := ta.auth.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "apple-tok123", u.ID)
	assert.Equal(t, auth.ProviderNative, u.Provider)
	assert.Contains(t, ta.output(), ta.nat.LastURL)
	assert.Contains(t, ta.output(), "Paste the id_token returned by Apple")
	assert.Contains(t, ta.output(), "Signed in as apple-tok123")
}

func TestSignInApple_EmptyTokenCancels(t *testing.T) {
	ta := newTestApp(t, "\n", true)

	err := ta.SignInApple(context.Background())
	require.Error(t, err)
	assert.Contains(t, ta.output(), "Sign in was cancelled")
	assert.Equal(t, auth.StateError, ta.auth.State().Kind)
	assert.Equal(t, "(Error: cancelled)", ta.status())
}

func TestSignInGoogle_Profile(t *testing.T) {
	ta := newTestApp(t, "", true)
	verified := true
	ta.tp.Profile = identity.Profile{UserID: "G1", Email: "jane@example.com", Name: "Jane Doe", EmailVerified: &verified}
	ctx := context.Background()

	require.NoError(t, ta.SignInGoogle(ctx))
	ta.buf.Reset()
	require.NoError(t, ta.Profile(ctx))

	out := ta.output()
	assert.Contains(t, out, "User ID: G1")
	assert.Contains(t, out, "Name: Jane Doe")
	assert.Contains(t, out, "Email: jane@example.com")
	assert.Contains(t, out, "Provider: Google")
	assert.Contains(t, out, "Email verified: true")
	assert.Contains(t, out, "Pro: false")
}

func TestSignInGoogle_ProviderFailure(t *testing.T) {
	ta := newTestApp(t, "", true)
	ta.tp.Err = identity.NewError(identity.CodeNetwork, nil)

	require.Error(t, ta.SignInGoogle(context.Background()))
	assert.Contains(t, ta.output(), "Network error. Check your connection")
}

func TestGuest_ProfileAndSignOut(t *testing.T) {
	ta := newTestApp(t, "", true)
	ctx := context.Background()

	require.NoError(t, ta.ContinueAsGuest(ctx))
	assert.True(t, ta.isSignedIn())
	require.NoError(t, ta.Profile(ctx))
	assert.Contains(t, ta.output(), "Provider: Guest")

	require.NoError(t, ta.SignOut(ctx))
	assert.False(t, ta.isSignedIn())
	assert.Contains(t, ta.output(), "Signed out")

	ta.buf.Reset()
	require.NoError(t, ta.Profile(ctx))
	assert.Equal(t, "Signed out\n", ta.output())
}

func TestDeleteAccount(t *testing.T) {
	ta := newTestApp(t, "", true)
	ctx := context.Background()
	ta.tp.Profile = identity.Profile{UserID: "G1"}
	require.NoError(t, ta.SignInGoogle(ctx))

	require.NoError(t, ta.DeleteAccount(ctx))
	assert.Equal(t, auth.StateSignedOut, ta.auth.State().Kind)
}

func TestStatus(t *testing.T) {
	ta := newTestApp(t, "", true)
	ctx := context.Background()

	assert.Equal(t, "(Loading...)", ta.status())
	require.NoError(t, ta.auth.CheckAuthenticationState(ctx))
	assert.Equal(t, "(Signed out)", ta.status())

	ta.rc.Pro = true
	require.NoError(t, ta.ent.Configure(ctx, "k"))
	ta.tp.Profile = identity.Profile{UserID: "G1", Name: "Jane"}
	require.NoError(t, ta.SignInGoogle(ctx))
	assert.Equal(t, "(Jane Pro)", ta.status())

	ta.buf.Reset()
	require.NoError(t, ta.Status(ctx))
	assert.Equal(t, "Signed in as Jane\n", ta.output())
}

func TestPaywall_PurchaseThroughChooser(t *testing.T) {
	ta := newTestApp(t, "1\n", true)
	ctx := context.Background()
	ta.rc.Offering = &entitlements.Offering{ID: "default", Packages: []entitlements.Package{monthly}}
	ta.rc.Grant = true
	require.NoError(t, ta.ent.Configure(ctx, "k"))
	require.NoError(t, ta.paywall.Configure(ctx, "local"))

	require.NoError(t, ta.Paywall(ctx, []string{"feature_locked_themes"}))

	out := ta.output()
	assert.Contains(t, out, "Unlock Pro")
	assert.Contains(t, out, "1) Monthly - $4.99")
	assert.NotContains(t, out, "You already have Pro")
	assert.True(t, ta.ent.IsPro())
	assert.False(t, ta.paywall.IsPresented())
}

func TestPaywall_AlreadyPro(t *testing.T) {
	ta := newTestApp(t, "", true)
	ctx := context.Background()
	ta.rc.Pro = true
	require.NoError(t, ta.ent.Configure(ctx, "k"))
	require.NoError(t, ta.paywall.Configure(ctx, "local"))

	require.NoError(t, ta.Paywall(ctx, nil))
	assert.Contains(t, ta.output(), "You already have Pro")
}

func TestPaywall_NotConfigured(t *testing.T) {
	ta := newTestApp(t, "", true)

	err := ta.Paywall(context.Background(), []string{"custom_placement"})
	require.ErrorIs(t, err, paywall.ErrNotConfigured)
	assert.Contains(t, ta.output(), "Paywall is not configured")
}

func TestPurchase(t *testing.T) {
	ta := newTestApp(t, "", true)
	ctx := context.Background()

	require.ErrorIs(t, ta.Purchase(ctx, nil), errUsage)
	assert.Contains(t, ta.output(), "Usage: purchase <package>")

	require.ErrorIs(t, ta.Purchase(ctx, []string{monthly.ID}), entitlements.ErrNotConfigured)
	assert.Contains(t, ta.output(), "Purchases are not configured")

	ta.rc.Offering = &entitlements.Offering{Packages: []entitlements.Package{monthly}}
	require.NoError(t, ta.ent.Configure(ctx, "k"))

	ta.buf.Reset()
	require.NoError(t, ta.Purchase(ctx, []string{monthly.ID}))
	assert.Equal(t, "Purchase failed\n", ta.output())

	ta.rc.Grant = true
	ta.buf.Reset()
	require.NoError(t, ta.Purchase(ctx, []string{monthly.ID}))
	assert.Equal(t, "Purchase complete\n", ta.output())
}

func TestRestoreAndPro(t *testing.T) {
	ta := newTestApp(t, "", true)
	ctx := context.Background()
	require.ErrorIs(t, ta.Restore(ctx), entitlements.ErrNotConfigured)
	require.ErrorIs(t, ta.Pro(ctx), entitlements.ErrNotConfigured)

	require.NoError(t, ta.ent.Configure(ctx, "k"))
	ta.buf.Reset()
	require.NoError(t, ta.Restore(ctx))
	require.NoError(t, ta.Pro(ctx))
	assert.Equal(t, "No purchases to restore\nFree\n", ta.output())

	ta.rc.mu.Lock()
	ta.rc.Pro = true
	ta.rc.mu.Unlock()
	ta.buf.Reset()
	require.NoError(t, ta.Restore(ctx))
	require.NoError(t, ta.Pro(ctx))
	assert.Equal(t, "Purchases restored\nPro\n", ta.output())
}

func TestLocale_SwitchesLanguage(t *testing.T) {
	ta := newTestApp(t, "", true)
	ctx := context.Background()

	require.NoError(t, ta.Locale(ctx, nil))
	assert.Equal(t, "English (en) [en, tr, ar, he]\n", ta.output())

	ta.buf.Reset()
	require.NoError(t, ta.Locale(ctx, []string{"tr"}))
	assert.Equal(t, "Dil Türkçe olarak ayarlandı\n", ta.output())
	assert.Equal(t, i18n.Turkish, ta.prefs.Locale(ctx))

	ta.buf.Reset()
	require.NoError(t, ta.SignOut(ctx))
	assert.Equal(t, "Oturum kapalı\n", ta.output())

	require.Error(t, ta.Locale(ctx, []string{"klingon"}))
}

func TestTheme(t *testing.T) {
	ta := newTestApp(t, "", true)
	ctx := context.Background()

	require.NoError(t, ta.Theme(ctx, nil))
	require.NoError(t, ta.Theme(ctx, []string{"toggle"}))
	require.NoError(t, ta.Theme(ctx, []string{"light"}))
	assert.Equal(t, "System\nTheme set to Dark\nTheme set to Light\n", ta.output())

	require.Error(t, ta.Theme(ctx, []string{"sepia"}))
}

func TestPaywall_InvalidChoiceClosesWithoutPurchase(t *testing.T) {
	ta := newTestApp(t, "9\n", true)
	ctx := context.Background()
	ta.rc.Offering = &entitlements.Offering{Packages: []entitlements.Package{monthly}}
	ta.rc.Grant = true
	require.NoError(t, ta.ent.Configure(ctx, "k"))
	require.NoError(t, ta.paywall.Configure(ctx, "local"))

	require.NoError(t, ta.Paywall(ctx, []string{"onboarding_complete"}))
	assert.False(t, ta.ent.IsPro())
	assert.NoError(t, ta.paywall.LastError())
}
