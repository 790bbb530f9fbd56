// Package paywall shows subscription offers at named placements and
// reports what the user did with them.
package paywall

import (
	"context"
	"errors"
	"sync"

	"github.com/mobirithm/appkit/internal/logging"
)

// Info identifies the paywall a callback is about.
type Info struct {
	PlacementID string
}

// Delegate is told about paywall lifecycle changes by a Backend.
type Delegate interface {
	DidPresent(ctx context.Context, info Info)
	DidDismiss(ctx context.Context, info Info)
	DidPurchase(ctx context.Context, productID, price string, info Info)
	DidFailToPurchase(ctx context.Context, productID string, info Info, err error)
}

// Backend registers a placement, presenting a paywall when the placement's
// rules call for one.
type Backend interface {
	Register(ctx context.Context, placement string, d Delegate) error
}

type BackendFactory func(apiKey string) (Backend, error)

type Manager struct {
	factory BackendFactory
	log     logging.Logger

	mu         sync.RWMutex
	backend    Backend
	configured bool
	presented  bool
	lastErr    error
	analytics  AnalyticsDelegate
}

func NewManager(factory BackendFactory, log logging.Logger) *Manager {
	if log == nil {
		log = logging.Nop{}
	}
	return &Manager{factory: factory, log: log.With("component", "paywall")}
}

// SetAnalytics replaces the analytics delegate; nil disables forwarding.
func (m *Manager) SetAnalytics(a AnalyticsDelegate) {
	m.mu.Lock()
	m.analytics = a
	m.mu.Unlock()
}

func (m *Manager) setErr(err error) error {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
	return err
}

// Configure binds the manager to apiKey.
func (m *Manager) Configure(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		m.log.Warn(ctx, "paywall api key is empty")
		return m.setErr(ErrInvalidAPIKey)
	}
	b, err := m.factory(apiKey)
	if err != nil {
		m.log.Error(ctx, "paywall configuration failed", "error", err)
		return m.setErr(&PresentationError{Reason: "configuration failed", Err: err})
	}

	m.mu.Lock()
	m.backend = b
	m.configured = true
	m.lastErr = nil
	m.mu.Unlock()
	m.log.Info(ctx, "paywall configured")
	return nil
}

func (m *Manager) IsConfigured() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configured
}

func (m *Manager) IsPresented() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.presented
}

// LastError is the outcome of the last operation, nil on success.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Manager) PresentPaywall(ctx context.Context, e Event) error {
	return m.PresentIdentifier(ctx, string(e))
}

// PresentIdentifier registers an arbitrary placement.
func (m *Manager) PresentIdentifier(ctx context.Context, placement string) error {
	m.mu.RLock()
	b, ok := m.backend, m.configured
	m.mu.RUnlock()
	if !ok {
		m.log.Warn(ctx, "paywall not configured", "placement", placement)
		return m.setErr(ErrNotConfigured)
	}

	if err := b.Register(ctx, placement, m); err != nil {
		var pres *PresentationError
		if !errors.As(err, &pres) {
			err = &EventRegistrationError{Event: placement, Err: err}
		}
		m.log.Warn(ctx, "paywall placement failed", "placement", placement, "error", err)
		return m.setErr(err)
	}
	m.log.Debug(ctx, "paywall placement registered", "placement", placement)
	return m.setErr(nil)
}

func (m *Manager) emit(ctx context.Context, event string, props map[string]any) {
	m.mu.RLock()
	a := m.analytics
	m.mu.RUnlock()
	if a != nil {
		a.TrackPaywallEvent(ctx, event, props)
	}
	m.log.Debug(ctx, "paywall analytics", "event", event)
}

func (m *Manager) setPresented(v bool) {
	m.mu.Lock()
	m.presented = v
	m.mu.Unlock()
}

func (m *Manager) DidPresent(ctx context.Context, info Info) {
	m.setPresented(true)
	m.emit(ctx, AnalyticsPaywallPresented, map[string]any{
		"paywall_id":   info.PlacementID,
		"paywall_name": info.PlacementID,
	})
}

func (m *Manager) DidDismiss(ctx context.Context, info Info) {
	m.setPresented(false)
	m.emit(ctx, AnalyticsPaywallDismissed, map[string]any{
		"paywall_id":   info.PlacementID,
		"paywall_name": info.PlacementID,
	})
}

func (m *Manager) DidPurchase(ctx context.Context, productID, price string, info Info) {
	m.emit(ctx, AnalyticsPurchaseComplete, map[string]any{
		"product_id": productID,
		"paywall_id": info.PlacementID,
		"price":      price,
	})
}

func (m *Manager) DidFailToPurchase(ctx context.Context, productID string, info Info, err error) {
	m.emit(ctx, AnalyticsPurchaseFailed, map[string]any{
		"product_id": productID,
		"paywall_id": info.PlacementID,
		"error":      err.Error(),
	})
}

var _ Delegate = (*Manager)(nil)
