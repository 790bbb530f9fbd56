package paywall

import (
	"context"
	"errors"

	"github.com/mobirithm/appkit/internal/client/entitlements"
)

var errPurchaseFailed = errors.New("purchase did not unlock an entitlement")

// Entitlements is what the local presenter needs from the entitlement
// manager.
type Entitlements interface {
	IsPro() bool
	Packages() []entitlements.Package
	Purchase(ctx context.Context, packageID string) bool
}

// Chooser shows packages to the user and returns the chosen package id,
// or "" when the paywall is closed without choosing.
type Chooser interface {
	Choose(ctx context.Context, placement string, pkgs []entitlements.Package) (string, error)
}

type ChooserFunc func(ctx context.Context, placement string, pkgs []entitlements.Package) (string, error)

func (f ChooserFunc) Choose(ctx context.Context, placement string, pkgs []entitlements.Package) (string, error) {
	return f(ctx, placement, pkgs)
}

// Local presents paywalls in-process from the entitlement manager's
// packages. Users that are already pro never see one.
type Local struct {
	ent     Entitlements
	chooser Chooser
}

func NewLocal(ent Entitlements, chooser Chooser) *Local {
	return &Local{ent: ent, chooser: chooser}
}

// LocalFactory ignores the api key.
func LocalFactory(ent Entitlements, chooser Chooser) BackendFactory {
	return func(string) (Backend, error) {
		return NewLocal(ent, chooser), nil
	}
}

func (l *Local) Register(ctx context.Context, placement string, d Delegate) error {
	if l.ent.IsPro() {
		return nil
	}
	pkgs := l.ent.Packages()
	if len(pkgs) == 0 {
		return &PresentationError{Reason: "no packages available"}
	}

	info := Info{PlacementID: placement}
	d.DidPresent(ctx, info)
	defer d.DidDismiss(ctx, info)

	id, err := l.chooser.Choose(ctx, placement, pkgs)
	if err != nil {
		return &PresentationError{Reason: "choice failed", Err: err}
	}
	if id == "" {
		return nil
	}

	var price string
	for _, p := range pkgs {
		if p.ID == id {
			price = p.Price
		}
	}
	if l.ent.Purchase(ctx, id) {
		d.DidPurchase(ctx, id, price, info)
	} else {
		d.DidFailToPurchase(ctx, id, info, errPurchaseFailed)
	}
	return nil
}

var _ Backend = (*Local)(nil)
