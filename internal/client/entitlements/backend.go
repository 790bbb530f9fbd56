package entitlements

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured       = errors.New("entitlements: not configured")
	ErrPackageNotFound     = errors.New("entitlements: package not found")
	ErrPurchaseUnsupported = errors.New("entitlements: backend cannot make purchases")
	ErrUnauthorized        = errors.New("entitlements: api key rejected")
)

// Package is one purchasable option of the current offering.
type Package struct {
	ID    string
	Title string
	Price string
}

// Offering groups the packages shown on a paywall.
type Offering struct {
	ID       string
	Packages []Package
}

// CustomerInfo lists the entitlements active for an app user.
type CustomerInfo struct {
	AppUserID string
	Active    []string
}

// IsPro is true when any entitlement is active.
func (c CustomerInfo) IsPro() bool { return len(c.Active) > 0 }

// Backend talks to the purchases vendor on behalf of one app user.
type Backend interface {
	// CurrentOffering returns nil when the project has no current offering.
	CurrentOffering(ctx context.Context, appUserID string) (*Offering, error)
	CustomerInfo(ctx context.Context, appUserID string) (CustomerInfo, error)
	Purchase(ctx context.Context, appUserID string, pkg Package) (CustomerInfo, error)
	Restore(ctx context.Context, appUserID string) (CustomerInfo, error)
}

// BackendFactory builds a backend for an API key.
type BackendFactory func(apiKey string) (Backend, error)
