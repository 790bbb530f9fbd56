package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/mobirithm/appkit/internal/client/entitlements"
	"github.com/mobirithm/appkit/internal/client/identity/apple"
	"github.com/mobirithm/appkit/internal/client/identity/google"
)

// applePresenter prints the authorize URL and reads the posted-back
// id_token and user fields from the terminal. An empty token cancels.
func (a *App) applePresenter() apple.Presenter {
	return apple.PresenterFunc(func(ctx context.Context, authURL string) (apple.Response, error) {
		fmtln(a.out, a.tr.T("auth.apple.prompt"))
		fmtln(a.out, authURL)

		token, err := getSimpleText(a.reader, a.tr.T("auth.apple.token"), a.out)
		if err != nil {
			return apple.Response{}, err
		}
		if token == "" {
			return apple.Response{}, context.Canceled
		}
		user, err := getSimpleText(a.reader, a.tr.T("auth.apple.user"), a.out)
		if err != nil {
			return apple.Response{}, err
		}
		return apple.Response{IDToken: token, User: user}, nil
	})
}

// googlePresenter prints the consent URL; the browser delivers the result
// to the loopback listener.
func (a *App) googlePresenter() google.Presenter {
	return google.PresenterFunc(func(ctx context.Context, authURL string) error {
		fmtln(a.out, a.tr.T("auth.google.prompt"))
		fmtln(a.out, authURL)
		fmtln(a.out, a.tr.T("auth.google.waiting"))
		return nil
	})
}

// Choose lists packages and reads the user's pick. It makes App the
// paywall's chooser.
func (a *App) Choose(ctx context.Context, placement string, pkgs []entitlements.Package) (string, error) {
	fmtln(a.out, a.tr.T("paywall.title"))
	fmtln(a.out, a.tr.T("paywall.subtitle"))
	for i, p := range pkgs {
		line := fmt.Sprintf("%d) %s", i+1, p.Title)
		if p.Price != "" {
			line += " - " + p.Price
		}
		fmtln(a.out, line)
	}

	n, err := GetChoice(a.reader, a.tr.T("paywall.choose"), a.out, len(pkgs))
	if errors.Is(err, ErrInvalidChoice) {
		a.log.Debug(ctx, "invalid paywall choice", "placement", placement, "error", err)
		return "", nil
	}
	if err != nil || n == 0 {
		return "", err
	}
	return pkgs[n-1].ID, nil
}
