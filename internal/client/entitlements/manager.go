// Package entitlements tracks whether the current app user holds an active
// subscription entitlement and exposes the packages that can be bought.
package entitlements

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mobirithm/appkit/internal/logging"
)

const anonymousPrefix = "$RCAnonymousID:"

// AnonymousID builds an app user id for a user that has not signed in.
func AnonymousID() string {
	return anonymousPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// IsAnonymous reports whether id was produced by AnonymousID.
func IsAnonymous(id string) bool {
	return strings.HasPrefix(id, anonymousPrefix)
}

type Manager struct {
	factory BackendFactory
	log     logging.Logger

	mu         sync.RWMutex
	backend    Backend
	configured bool
	appUserID  string
	isPro      bool
	loading    int
	packages   []Package
	watchers   map[chan bool]struct{}
}

func NewManager(factory BackendFactory, log logging.Logger) *Manager {
	if log == nil {
		log = logging.Nop{}
	}
	return &Manager{
		factory:   factory,
		log:       log.With("component", "entitlements"),
		appUserID: AnonymousID(),
		watchers:  make(map[chan bool]struct{}),
	}
}

// Configure binds the manager to apiKey and refreshes. Only the first
// successful call has any effect. An empty key leaves the manager
// unconfigured.
func (m *Manager) Configure(ctx context.Context, apiKey string) error {
	m.mu.Lock()
	if m.configured {
		m.mu.Unlock()
		m.log.Debug(ctx, "already configured, skipping")
		return nil
	}
	if apiKey == "" {
		m.mu.Unlock()
		m.log.Warn(ctx, "no purchases api key, entitlements disabled")
		return ErrNotConfigured
	}
	b, err := m.factory(apiKey)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.backend = b
	m.configured = true
	m.mu.Unlock()

	m.log.Info(ctx, "configured", "key_prefix", keyPrefix(apiKey))
	if err := m.Refresh(ctx); err != nil {
		m.log.Warn(ctx, "initial refresh failed", "error", err)
	}
	return nil
}

func keyPrefix(k string) string {
	if len(k) > 6 {
		return k[:6] + "..."
	}
	return "..."
}

func (m *Manager) IsConfigured() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configured
}

func (m *Manager) IsLoading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading > 0
}

func (m *Manager) IsPro() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isPro
}

// AppUserID is the id purchases are attributed to.
func (m *Manager) AppUserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.appUserID
}

// Packages returns a copy of the packages of the current offering.
func (m *Manager) Packages() []Package {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Package(nil), m.packages...)
}

// Watch streams the pro flag, starting with the current value, until ctx is
// done.
func (m *Manager) Watch(ctx context.Context) <-chan bool {
	ch := make(chan bool, 1)

	m.mu.Lock()
	ch <- m.isPro
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

// session returns the backend and user id, or ErrNotConfigured.
func (m *Manager) session() (Backend, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.configured {
		return nil, "", ErrNotConfigured
	}
	return m.backend, m.appUserID, nil
}

func (m *Manager) begin() func() {
	m.mu.Lock()
	m.loading++
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		m.loading--
		m.mu.Unlock()
	}
}

func (m *Manager) setPro(ctx context.Context, pro bool) {
	m.mu.Lock()
	changed := m.isPro != pro
	m.isPro = pro
	if changed {
		for ch := range m.watchers {
			select {
			case <-ch:
			default:
			}
			ch <- pro
		}
	}
	m.mu.Unlock()

	if changed {
		m.log.Info(ctx, "entitlement changed", "pro", pro)
	}
}

// Identify attributes purchases to appUserID from now on and re-reads the
// entitlement. Before Configure the id is only remembered.
func (m *Manager) Identify(ctx context.Context, appUserID string) error {
	if appUserID == "" {
		return errors.New("entitlements: empty app user id")
	}
	m.mu.Lock()
	prev := m.appUserID
	m.appUserID = appUserID
	configured := m.configured
	m.mu.Unlock()

	if prev != appUserID {
		m.log.Debug(ctx, "identified app user", "anonymous_before", IsAnonymous(prev))
	}
	if !configured {
		return nil
	}
	return m.CheckCurrentEntitlement(ctx)
}

// Refresh reloads the current offering and then the entitlement. A failed
// offering fetch keeps the previous packages.
func (m *Manager) Refresh(ctx context.Context) error {
	b, id, err := m.session()
	if err != nil {
		return err
	}
	done := m.begin()
	off, offErr := b.CurrentOffering(ctx, id)
	done()

	switch {
	case offErr != nil:
		m.log.Warn(ctx, "fetching offerings failed", "error", offErr)
	case off == nil:
		m.log.Warn(ctx, "no current offering")
	default:
		m.mu.Lock()
		m.packages = append([]Package(nil), off.Packages...)
		m.mu.Unlock()
		m.log.Debug(ctx, "offering loaded", "offering", off.ID, "packages", len(off.Packages))
	}

	if err := m.CheckCurrentEntitlement(ctx); err != nil {
		return err
	}
	return offErr
}

// CheckCurrentEntitlement re-reads customer info and updates IsPro.
func (m *Manager) CheckCurrentEntitlement(ctx context.Context) error {
	b, id, err := m.session()
	if err != nil {
		return err
	}
	info, err := b.CustomerInfo(ctx, id)
	if err != nil {
		m.log.Warn(ctx, "fetching customer info failed", "error", err)
		return err
	}
	m.setPro(ctx, info.IsPro())
	return nil
}

func (m *Manager) findPackage(id string) (Package, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.packages {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}

// Purchase buys packageID and reports whether the user is pro afterwards.
func (m *Manager) Purchase(ctx context.Context, packageID string) bool {
	b, id, err := m.session()
	if err != nil {
		m.log.Warn(ctx, "purchase without configuration")
		return false
	}
	pkg, ok := m.findPackage(packageID)
	if !ok {
		m.log.Warn(ctx, "purchase of unknown package", "package", packageID, "error", ErrPackageNotFound)
		return false
	}

	done := m.begin()
	_, err = b.Purchase(ctx, id, pkg)
	done()
	switch {
	case errors.Is(err, ErrPurchaseUnsupported):
		m.log.Warn(ctx, "purchases unsupported by backend", "package", packageID)
		return false
	case errors.Is(err, context.Canceled):
		m.log.Info(ctx, "purchase cancelled", "package", packageID)
	case err != nil:
		m.log.Warn(ctx, "purchase failed", "package", packageID, "error", err)
	default:
		m.log.Info(ctx, "purchase completed", "package", packageID)
	}

	if err := m.CheckCurrentEntitlement(ctx); err != nil {
		return false
	}
	return m.IsPro()
}

// Restore re-syncs previous purchases and reports whether the user is pro.
func (m *Manager) Restore(ctx context.Context) bool {
	b, id, err := m.session()
	if err != nil {
		m.log.Warn(ctx, "restore without configuration")
		return false
	}
	done := m.begin()
	_, err = b.Restore(ctx, id)
	done()
	if err != nil {
		m.log.Warn(ctx, "restore failed", "error", err)
	}

	if err := m.CheckCurrentEntitlement(ctx); err != nil {
		return false
	}
	return m.IsPro()
}

// Run refreshes every interval until ctx is done. Failures are logged.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if !m.IsConfigured() {
				continue
			}
			if err := m.Refresh(ctx); err != nil && ctx.Err() == nil {
				m.log.Warn(ctx, "periodic refresh failed", "error", err)
			}
		}
	}
}
