// Package auth owns the authentication state machine: it restores a session
// from the credential store, runs native and third-party sign-in flows,
// persists the resulting user and publishes a single observable State.
//
// Every transition and every store access runs on a dispatch.Queue.
// Provider flows run on the caller's goroutine and hop back to the queue
// with their result. Overlapping sign-in attempts are not serialized
// against each other: whichever result reaches the queue last wins.
package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/mobirithm/appkit/internal/client/identity"
	"github.com/mobirithm/appkit/internal/client/keychain"
	"github.com/mobirithm/appkit/internal/common"
	"github.com/mobirithm/appkit/internal/dispatch"
	"github.com/mobirithm/appkit/internal/logging"
)

// EntitlementChecker is told about every successful sign-in.
type EntitlementChecker interface {
	Identify(ctx context.Context, appUserID string) error
	CheckCurrentEntitlement(ctx context.Context) error
}

type Options struct {
	// AllowFallbackUserID lets a third-party sign-in without a user id
	// proceed under a random id instead of failing with invalidCredentials.
	AllowFallbackUserID bool
}

type Deps struct {
	Store        keychain.Store
	Native       identity.NativeAuthorizer
	ThirdParty   identity.ThirdPartyProvider
	Entitlements EntitlementChecker
	Queue        *dispatch.Queue
	Log          logging.Logger
	Options      Options
}

const watchBuffer = 8

type Manager struct {
	store      keychain.Store
	native     identity.NativeAuthorizer
	thirdParty identity.ThirdPartyProvider
	ent        EntitlementChecker
	queue      *dispatch.Queue
	log        logging.Logger
	opts       Options

	mu       sync.RWMutex
	state    State
	watchers map[chan State]struct{}

	bg sync.WaitGroup
}

// NewManager builds a manager in the loading state. Call
// CheckAuthenticationState to restore a stored session.
func NewManager(d Deps) *Manager {
	log := d.Log
	if log == nil {
		log = logging.Nop{}
	}
	return &Manager{
		store:      d.Store,
		native:     d.Native,
		thirdParty: d.ThirdParty,
		ent:        d.Entitlements,
		queue:      d.Queue,
		log:        log.With("component", "auth"),
		opts:       d.Options,
		state:      Loading(),
		watchers:   make(map[chan State]struct{}),
	}
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CurrentUser returns the signed-in user, if any.
func (m *Manager) CurrentUser() (User, bool) {
	st := m.State()
	return st.User, st.Kind == StateSignedIn
}

func (m *Manager) IsSignedIn() bool {
	return m.State().Kind == StateSignedIn
}

// Watch streams the current state followed by every transition until ctx
// is done. A slow reader loses intermediate states, never the latest one.
func (m *Manager) Watch(ctx context.Context) <-chan State {
	ch := make(chan State, watchBuffer)

	m.mu.Lock()
	ch <- m.state
	m.watchers[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers, ch)
		close(ch)
		m.mu.Unlock()
	}()
	return ch
}

// setState must run on the queue.
func (m *Manager) setState(ctx context.Context, st State) {
	m.mu.Lock()
	m.state = st
	for ch := range m.watchers {
		select {
		case ch <- st:
		default:
			// drop the oldest so the newest always gets through
			select {
			case <-ch:
			default:
			}
			ch <- st
		}
	}
	m.mu.Unlock()

	switch st.Kind {
	case StateError:
		m.log.Warn(ctx, "auth state changed", "state", st.String(), "error", st.Err)
	case StateSignedIn:
		m.log.Info(ctx, "auth state changed", "state", st.Kind.String(), "provider", st.User.Provider,
			"has_email", st.User.Email != "", "has_name", st.User.FullName != "")
	default:
		m.log.Info(ctx, "auth state changed", "state", st.Kind.String())
	}
}

// onQueue runs fn on the queue. The hop ignores cancellation of ctx so a
// result that was already produced is always applied.
func (m *Manager) onQueue(ctx context.Context, fn func(ctx context.Context)) error {
	return m.queue.Do(context.WithoutCancel(ctx), fn)
}

// result returns the error carried by the state fn left behind.
func (m *Manager) result(ctx context.Context, fn func(ctx context.Context) State) error {
	var st State
	if err := m.onQueue(ctx, func(qctx context.Context) {
		st = fn(qctx)
		m.setState(qctx, st)
	}); err != nil {
		return err
	}
	if st.Kind == StateError {
		return st.Err
	}
	return nil
}

type providerKeys struct {
	provider Provider
	userID   string
	idToken  string
}

// Restore order: native first.
var restoreOrder = []providerKeys{
	{ProviderNative, keychain.KeyNativeUserID, keychain.KeyNativeIDToken},
	{ProviderThirdParty, keychain.KeyThirdPartyUserID, keychain.KeyThirdPartyIDToken},
}

func keysFor(p Provider) providerKeys {
	for _, k := range restoreOrder {
		if k.provider == p {
			return k
		}
	}
	return providerKeys{provider: p}
}

// CheckAuthenticationState restores the session from the credential store.
func (m *Manager) CheckAuthenticationState(ctx context.Context) error {
	return m.result(ctx, func(ctx context.Context) State {
		m.setState(ctx, Loading())

		for _, k := range restoreOrder {
			if !m.store.Exists(ctx, k.userID) {
				continue
			}
			id, err := m.store.LoadString(ctx, k.userID)
			if err != nil {
				return Failed(keychainError(err))
			}
			email := m.loadOptional(ctx, keychain.KeyUserEmail)
			return SignedIn(User{
				ID:              id,
				Email:           email,
				FullName:        m.loadOptional(ctx, keychain.KeyUserFullName),
				IsEmailVerified: email != "",
				Provider:        k.provider,
			})
		}
		return SignedOut()
	})
}

// loadOptional reads a best-effort field; any failure reads as empty.
func (m *Manager) loadOptional(ctx context.Context, key string) string {
	v, err := m.store.LoadString(ctx, key)
	if err != nil {
		if !errors.Is(err, keychain.ErrItemNotFound) {
			m.log.Debug(ctx, "optional field unreadable", "key", key, "error", err)
		}
		return ""
	}
	return v
}

func (m *Manager) saveOptional(ctx context.Context, key, value string) {
	if value == "" {
		return
	}
	if err := m.store.SaveString(ctx, key, value); err != nil {
		m.log.Warn(ctx, "failed to persist optional field", "key", key, "error", err)
	}
}

// setOptional stores value, or removes a stale entry when value is empty.
func (m *Manager) setOptional(ctx context.Context, key, value string) {
	if value == "" {
		if err := m.store.Delete(ctx, key); err != nil {
			m.log.Warn(ctx, "failed to drop stale optional field", "key", key, "error", err)
		}
		return
	}
	m.saveOptional(ctx, key, value)
}

// dropOtherProviders removes the ids and tokens of every provider but keep,
// so a restore can only find the latest signed-in user.
func (m *Manager) dropOtherProviders(ctx context.Context, keep Provider) error {
	for _, k := range restoreOrder {
		if k.provider == keep {
			continue
		}
		if err := m.store.Delete(ctx, k.userID); err != nil {
			return err
		}
		if err := m.store.Delete(ctx, k.idToken); err != nil {
			m.log.Warn(ctx, "failed to drop stale token", "key", k.idToken, "error", err)
		}
	}
	return nil
}

// storedProfileBelongsTo reports whether the stored email and name were
// written for p. An absent marker counts as a match.
func (m *Manager) storedProfileBelongsTo(ctx context.Context, p Provider) bool {
	marker := m.loadOptional(ctx, keychain.KeyAuthProvider)
	return marker == "" || marker == string(p)
}

// persist writes u and removes what another provider left behind. Only a
// failure on the user id keys is fatal.
func (m *Manager) persist(ctx context.Context, u User, token string) *Error {
	if err := m.dropOtherProviders(ctx, u.Provider); err != nil {
		return keychainError(err)
	}
	k := keysFor(u.Provider)
	if err := m.store.SaveString(ctx, k.userID, u.ID); err != nil {
		return keychainError(err)
	}
	m.setOptional(ctx, k.idToken, token)
	m.setOptional(ctx, keychain.KeyUserEmail, u.Email)
	m.setOptional(ctx, keychain.KeyUserFullName, u.FullName)
	m.saveOptional(ctx, keychain.KeyAuthProvider, string(u.Provider))
	return nil
}

func (m *Manager) notConfigured(ctx context.Context) error {
	return m.result(ctx, func(context.Context) State {
		return Failed(&Error{Kind: ErrorFailed, Err: common.ErrorNotConfigured})
	})
}

// SignInWithApple runs the native flow. The returned error is the *Error
// of the resulting error state, if any.
func (m *Manager) SignInWithApple(ctx context.Context) error {
	if m.native == nil {
		return m.notConfigured(ctx)
	}
	raw, err := identity.RandomNonce(identity.NonceLength)
	if err != nil {
		return m.result(ctx, func(context.Context) State { return Failed(&Error{Kind: ErrorUnknown, Err: err}) })
	}

	cred, err := m.native.Authorize(ctx, identity.NativeRequest{
		Nonce:  identity.SHA256Hex(raw),
		Scopes: []identity.Scope{identity.ScopeFullName, identity.ScopeEmail},
	})

	return m.result(ctx, func(ctx context.Context) State {
		if err != nil {
			return Failed(fromProviderError(err))
		}

		// The provider shares email and name on the first authorization only.
		email, name := cred.Email, cred.FullName()
		if m.storedProfileBelongsTo(ctx, ProviderNative) {
			if email == "" {
				email = m.loadOptional(ctx, keychain.KeyUserEmail)
			}
			if name == "" {
				name = m.loadOptional(ctx, keychain.KeyUserFullName)
			}
		}

		u := User{
			ID:              cred.UserID,
			Email:           email,
			FullName:        name,
			IsEmailVerified: email != "",
			Provider:        ProviderNative,
		}
		if e := m.persist(ctx, u, cred.IdentityToken); e != nil {
			return Failed(e)
		}
		m.afterSignIn(ctx, u)
		return SignedIn(u)
	})
}

// SignInWithGoogle runs the third-party flow.
func (m *Manager) SignInWithGoogle(ctx context.Context) error {
	if m.thirdParty == nil {
		return m.notConfigured(ctx)
	}
	prof, err := m.thirdParty.SignIn(ctx)

	return m.result(ctx, func(ctx context.Context) State {
		if err != nil {
			return Failed(fromProviderError(err))
		}

		id := prof.UserID
		if id == "" {
			if !m.opts.AllowFallbackUserID {
				return Failed(&Error{Kind: ErrorInvalidCredentials, Err: errors.New("provider returned no user id")})
			}
			id = uuid.NewString()
			m.log.Warn(ctx, "third-party sign-in without user id, using random fallback", "user_id", id)
		}

		verified := prof.PictureURL != ""
		if prof.EmailVerified != nil {
			verified = *prof.EmailVerified
		}

		u := User{
			ID:              id,
			Email:           prof.Email,
			FullName:        prof.Name,
			IsEmailVerified: verified && prof.Email != "",
			Provider:        ProviderThirdParty,
		}
		if e := m.persist(ctx, u, prof.IDToken); e != nil {
			return Failed(e)
		}
		m.afterSignIn(ctx, u)
		return SignedIn(u)
	})
}

// ContinueAsGuest signs in an anonymous user for this process only. Any
// stored session is cleared and only the provider marker is written, so a
// restart signs out.
func (m *Manager) ContinueAsGuest(ctx context.Context) error {
	return m.result(ctx, func(ctx context.Context) State {
		if err := m.store.ClearAll(ctx); err != nil {
			return Failed(keychainError(err))
		}
		u := User{ID: uuid.NewString(), Provider: ProviderGuest}
		m.saveOptional(ctx, keychain.KeyAuthProvider, string(ProviderGuest))
		return SignedIn(u)
	})
}

// SignOut clears the third-party session (when that provider is current)
// and then the whole credential store.
func (m *Manager) SignOut(ctx context.Context) error {
	st := m.State()
	if st.Kind == StateSignedIn && st.User.Provider == ProviderThirdParty && m.thirdParty != nil {
		if err := m.thirdParty.SignOut(ctx); err != nil {
			m.log.Warn(ctx, "third-party sign-out failed", "error", err)
		}
	}

	return m.result(ctx, func(ctx context.Context) State {
		if err := m.store.ClearAll(ctx); err != nil {
			return Failed(keychainError(err))
		}
		return SignedOut()
	})
}

// DeleteAccount is SignOut. No remote account is deleted.
func (m *Manager) DeleteAccount(ctx context.Context) error {
	m.log.Info(ctx, "account deletion requested; signing out locally only")
	return m.SignOut(ctx)
}

// afterSignIn kicks off an entitlement re-check. Its outcome never touches
// the auth state.
func (m *Manager) afterSignIn(ctx context.Context, u User) {
	if m.ent == nil {
		return
	}
	m.log.Debug(ctx, "scheduling entitlement check", "provider", u.Provider)
	m.bg.Add(1)
	go func() {
		defer m.bg.Done()
		ctx := context.Background()
		if err := m.ent.Identify(ctx, u.ID); err != nil {
			m.log.Warn(ctx, "entitlement identify failed", "error", err)
			return
		}
		if err := m.ent.CheckCurrentEntitlement(ctx); err != nil {
			m.log.Warn(ctx, "entitlement check failed", "error", err)
		}
	}()
}

// Wait blocks until background entitlement checks have finished.
func (m *Manager) Wait() {
	m.bg.Wait()
}
