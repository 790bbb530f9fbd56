package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/mobirithm/appkit/internal/client/auth"
	"github.com/mobirithm/appkit/internal/client/config"
	"github.com/mobirithm/appkit/internal/client/entitlements"
	"github.com/mobirithm/appkit/internal/client/identity"
	"github.com/mobirithm/appkit/internal/client/keychain"
	"github.com/mobirithm/appkit/internal/client/paywall"
	"github.com/mobirithm/appkit/internal/client/repositories/credentials"
	"github.com/mobirithm/appkit/internal/client/repositories/preferences"
	"github.com/mobirithm/appkit/internal/client/services"
	"github.com/mobirithm/appkit/internal/client/storage"
	"github.com/mobirithm/appkit/internal/dispatch"
	"github.com/mobirithm/appkit/internal/i18n"
	"github.com/mobirithm/appkit/internal/logging"
	"github.com/stretchr/testify/require"
)

// fakeNative drives the App's apple presenter and turns the pasted token
// into a user id.
type fakeNative struct {
	app     *App
	LastURL string
}

func (f *fakeNative) Authorize(ctx context.Context, _ identity.NativeRequest) (identity.NativeCredential, error) {
	f.LastURL = "https://appleid.apple.com/auth/authorize?client_id=test"
	resp, err := f.app.applePresenter().Present(ctx, f.LastURL)
	if err != nil {
		return identity.NativeCredential{}, identity.NewError(identity.CodeCanceled, err)
	}
	return identity.NativeCredential{UserID: "apple-" + resp.IDToken}, nil
}

type fakeThirdParty struct {
	Profile identity.Profile
	Err     error
}

func (f *fakeThirdParty) SignIn(context.Context) (identity.Profile, error) { return f.Profile, f.Err }
func (f *fakeThirdParty) SignOut(context.Context) error                   { return nil }

type fakeRC struct {
	mu       sync.Mutex
	Offering *entitlements.Offering
	Pro      bool
	Grant    bool
}

func (f *fakeRC) CurrentOffering(context.Context, string) (*entitlements.Offering, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Offering, nil
}

func (f *fakeRC) CustomerInfo(_ context.Context, id string) (entitlements.CustomerInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info := entitlements.CustomerInfo{AppUserID: id}
	if f.Pro {
		info.Active = []string{"pro"}
	}
	return info, nil
}

func (f *fakeRC) Purchase(_ context.Context, id string, _ entitlements.Package) (entitlements.CustomerInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Grant {
		f.Pro = true
	}
	return entitlements.CustomerInfo{AppUserID: id}, nil
}

func (f *fakeRC) Restore(ctx context.Context, id string) (entitlements.CustomerInfo, error) {
	return f.CustomerInfo(ctx, id)
}

var monthly = entitlements.Package{ID: "$rc_monthly", Title: "Monthly", Price: "$4.99"}

type testApp struct {
	*App
	buf   *bytes.Buffer
	store *keychain.Manager
	nat   *fakeNative
	tp  *fakeThirdParty
	rc  *fakeRC
}

func (ta *testApp) output() string { return ta.buf.String() }

// newTestApp wires an App over in-memory storage with fake providers.
// With startQueue false the caller must run the queue (App.Run does).
func newTestApp(t *testing.T, input string, startQueue bool) *testApp {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db, err := storage.Open(ctx, "file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	q := dispatch.New(64)
	if startQueue {
		go func() { _ = q.Run(ctx) }()
	}

	var cfg config.Config
	cfg.LoadDefaults()
	cfg.CredentialBackend = credentials.BackendMemory
	cfg.EntitlementRefreshInterval = 0

	buf := &bytes.Buffer{}
	tr := i18n.Default()
	a := &App{
		config: &cfg,
		log:    logging.Nop{},
		tr:     tr,
		queue:  q,
		reader: bufio.NewReader(strings.NewReader(input)),
		out:    buf,
	}
	ta := &testApp{
		App:   a,
		buf:   buf,
		store: keychain.NewManager(credentials.NewMemoryRepository(), "test.service", nil),
		nat:   &fakeNative{app: a},
		tp:    &fakeThirdParty{},
		rc:    &fakeRC{},
	}

	a.prefs = services.NewPreferencesService(preferences.NewSQLiteRepository(db), tr, nil)
	a.ent = entitlements.NewManager(func(string) (entitlements.Backend, error) { return ta.rc, nil }, nil)
	a.paywall = paywall.NewManager(paywall.LocalFactory(a.ent, a), nil)
	a.auth = auth.NewManager(auth.Deps{
		Store:        ta.store,
		Native:       ta.nat,
		ThirdParty:   ta.tp,
		Entitlements: a.ent,
		Queue:        q,
	})
	t.Cleanup(a.auth.Wait)
	return ta
}
