package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/mobirithm/appkit/internal/client/identity"
	"github.com/mobirithm/appkit/internal/client/keychain"
	"github.com/mobirithm/appkit/internal/client/repositories/credentials"
	"github.com/mobirithm/appkit/internal/dispatch"
)

// callLog records cross-fake call order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, s)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// fakeStore is a real keychain over memory with injectable failures.
type fakeStore struct {
	*keychain.Manager
	log *callLog

	SaveErr   map[string]error
	LoadErr   map[string]error
	DeleteErr map[string]error
	ClearErr  error
}

func newFakeStore(log *callLog) *fakeStore {
	return &fakeStore{
		Manager: keychain.NewManager(credentials.NewMemoryRepository(), "test.service", nil),
		log:     log,
		SaveErr:   map[string]error{},
		LoadErr:   map[string]error{},
		DeleteErr: map[string]error{},
	}
}

func (s *fakeStore) SaveString(ctx context.Context, key, value string) error {
	if err := s.SaveErr[key]; err != nil {
		return err
	}
	return s.Manager.SaveString(ctx, key, value)
}

func (s *fakeStore) LoadString(ctx context.Context, key string) (string, error) {
	if err := s.LoadErr[key]; err != nil {
		return "", err
	}
	return s.Manager.LoadString(ctx, key)
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	if err := s.DeleteErr[key]; err != nil {
		return err
	}
	return s.Manager.Delete(ctx, key)
}

func (s *fakeStore) ClearAll(ctx context.Context) error {
	if s.log != nil {
		s.log.add("store.ClearAll")
	}
	if s.ClearErr != nil {
		return s.ClearErr
	}
	return s.Manager.ClearAll(ctx)
}

func (s *fakeStore) seed(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		if err := s.Manager.SaveString(context.Background(), k, v); err != nil {
			t.Fatalf("seed %s: %v", k, err)
		}
	}
}

type fakeNative struct {
	Cred        identity.NativeCredential
	Err         error
	LastRequest identity.NativeRequest
	Calls       int
}

func (f *fakeNative) Authorize(_ context.Context, req identity.NativeRequest) (identity.NativeCredential, error) {
	f.Calls++
	f.LastRequest = req
	return f.Cred, f.Err
}

type fakeThirdParty struct {
	Profile      identity.Profile
	Err          error
	SignOutErr   error
	SignOutCalls int
	log          *callLog
}

func (f *fakeThirdParty) SignIn(context.Context) (identity.Profile, error) {
	return f.Profile, f.Err
}

func (f *fakeThirdParty) SignOut(context.Context) error {
	f.SignOutCalls++
	if f.log != nil {
		f.log.add("thirdParty.SignOut")
	}
	return f.SignOutErr
}

type fakeEntitlements struct {
	mu           sync.Mutex
	IdentifiedAs []string
	Checks       int
	IdentifyErr  error
}

func (f *fakeEntitlements) Identify(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.IdentifiedAs = append(f.IdentifiedAs, id)
	return f.IdentifyErr
}

func (f *fakeEntitlements) CheckCurrentEntitlement(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Checks++
	return nil
}

type fixture struct {
	m     *Manager
	store *fakeStore
	nat   *fakeNative
	tp    *fakeThirdParty
	ent   *fakeEntitlements
	log   *callLog
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := &callLog{}
	f := &fixture{
		store: newFakeStore(log),
		nat:   &fakeNative{},
		tp:    &fakeThirdParty{log: log},
		ent:   &fakeEntitlements{},
		log:   log,
	}
	f.m = NewManager(Deps{
		Store:        f.store,
		Native:       f.nat,
		ThirdParty:   f.tp,
		Entitlements: f.ent,
		Queue:        dispatch.Start(ctx),
		Options:      opts,
	})
	return f
}
