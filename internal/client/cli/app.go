package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/mobirithm/appkit/internal/client/auth"
	"github.com/mobirithm/appkit/internal/client/config"
	"github.com/mobirithm/appkit/internal/client/entitlements"
	"github.com/mobirithm/appkit/internal/client/identity"
	"github.com/mobirithm/appkit/internal/client/identity/apple"
	"github.com/mobirithm/appkit/internal/client/identity/google"
	"github.com/mobirithm/appkit/internal/client/keychain"
	"github.com/mobirithm/appkit/internal/client/paywall"
	"github.com/mobirithm/appkit/internal/client/repositories/preferences"
	"github.com/mobirithm/appkit/internal/client/services"
	"github.com/mobirithm/appkit/internal/client/storage"
	"github.com/mobirithm/appkit/internal/dispatch"
	"github.com/mobirithm/appkit/internal/filex"
	"github.com/mobirithm/appkit/internal/i18n"
	"github.com/mobirithm/appkit/internal/logging"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config  *config.Config
	log     logging.Logger
	tr      *i18n.Translator
	queue   *dispatch.Queue
	auth    *auth.Manager
	ent     *entitlements.Manager
	paywall *paywall.Manager
	prefs   services.PreferencesService
	reader  *bufio.Reader
	out     io.Writer
	closers []io.Closer
}

// NewApp opens local storage and the credential backend and wires every
// manager. Close releases what it opened.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	a := &App{
		config: c,
		log:    log,
		tr:     i18n.Default(),
		queue:  dispatch.New(64),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	dir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(ctx, filepath.Join(dir, storage.DefaultFileName))
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}
	a.closers = append(a.closers, db)

	if err := a.wire(ctx, db); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context, db *sql.DB) error {
	c := a.config

	a.prefs = services.NewPreferencesService(preferences.NewSQLiteRepository(db), a.tr, a.log)
	locale, err := c.ParsedLocale()
	if err != nil {
		return err
	}
	if locale == "" {
		locale = a.prefs.Locale(ctx)
	}
	a.tr.SetLocale(locale)

	repo, closer, err := openCredentials(ctx, c, db, func() ([]byte, error) {
		return getPassword("Credential store passphrase", a.out)
	})
	if err != nil {
		return err
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	store := keychain.NewManager(repo, c.ServiceName, a.log)

	a.ent = entitlements.NewManager(entitlements.RevenueCatFactory(entitlements.RevenueCatConfig{
		BaseURL: c.RevenueCatBaseURL,
	}), a.log)

	a.paywall = paywall.NewManager(paywall.LocalFactory(a.ent, a), a.log)
	a.paywall.SetAnalytics(paywall.LogAnalytics{Log: a.log})

	var native identity.NativeAuthorizer
	if c.AppleClientID != "" {
		native = apple.New(ctx, apple.Config{ClientID: c.AppleClientID, RedirectURL: c.AppleRedirectURL}, a.applePresenter(), a.log)
	}
	var thirdParty identity.ThirdPartyProvider
	if c.GoogleClientID != "" {
		thirdParty = google.New(ctx, google.Config{ClientID: c.GoogleClientID, ClientSecret: c.GoogleClientSecret}, a.googlePresenter(), a.log)
	}

	a.auth = auth.NewManager(auth.Deps{
		Store:        store,
		Native:       native,
		ThirdParty:   thirdParty,
		Entitlements: a.ent,
		Queue:        a.queue,
		Log:          a.log,
		Options:      auth.Options{AllowFallbackUserID: c.AllowFallbackUserID},
	})
	return nil
}

// Close releases storage handles in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// startup restores the session and configures purchases and paywalls.
func (a *App) startup(ctx context.Context) {
	if err := a.auth.CheckAuthenticationState(ctx); err != nil {
		a.report(ctx, err)
	}
	if u, ok := a.auth.CurrentUser(); ok && u.Provider != auth.ProviderGuest {
		if err := a.ent.Identify(ctx, u.ID); err != nil {
			a.log.Warn(ctx, "entitlement identify failed", "error", err)
		}
	}
	if err := a.ent.Configure(ctx, a.config.RevenueCatAPIKey); err != nil {
		a.log.Info(ctx, "purchases disabled", "error", err)
	}
	if err := a.paywall.Configure(ctx, a.config.PaywallAPIKey); err != nil {
		a.log.Info(ctx, "paywall disabled", "error", err)
	}
}

// watchPro logs entitlement changes until ctx is done.
func (a *App) watchPro(ctx context.Context) {
	for pro := range a.ent.Watch(ctx) {
		a.log.Info(ctx, "entitlement status", "pro", pro)
	}
}

// Run starts the dispatch queue and the entitlement watcher, then serves
// the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.queue.Run(gctx) })
	g.Go(func() error { return a.ent.Run(gctx, a.config.EntitlementRefreshInterval) })
	g.Go(func() error {
		a.watchPro(gctx)
		return nil
	})

	fmtln(a.out, a.tr.T("cli.welcome"))
	a.startup(gctx)

	// The REPL blocks on input; it is not part of the group so a cancelled
	// ctx can return without waiting for a line.
	replDone := make(chan struct{})
	go func() {
		defer close(replDone)
		runREPL(gctx, a, a.tr, a.status, a.reader, a.out)
	}()

	select {
	case <-replDone:
	case <-gctx.Done():
	}
	cancel()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.auth.Wait()
	return nil
}
