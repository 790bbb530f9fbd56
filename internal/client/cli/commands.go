package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mobirithm/appkit/internal/client/auth"
	"github.com/mobirithm/appkit/internal/client/entitlements"
	"github.com/mobirithm/appkit/internal/client/paywall"
	"github.com/mobirithm/appkit/internal/client/services"
	"github.com/mobirithm/appkit/internal/i18n"
)

var errUsage = errors.New("usage")

func (a *App) isSignedIn() bool {
	return a.auth.IsSignedIn()
}

// report prints err for the user in the active language.
func (a *App) report(ctx context.Context, err error) {
	var (
		ae   *auth.Error
		reg  *paywall.EventRegistrationError
		pres *paywall.PresentationError
	)
	switch {
	case errors.As(err, &ae):
		fmtln(a.out, ae.Message(a.tr))
	case errors.As(err, &reg), errors.As(err, &pres),
		errors.Is(err, paywall.ErrNotConfigured), errors.Is(err, paywall.ErrInvalidAPIKey):
		fmtln(a.out, paywall.Message(err, a.tr))
	default:
		fmtln(a.out, err.Error())
	}
	a.log.Debug(ctx, "command failed", "error", err)
}

func (a *App) providerName(p auth.Provider) string {
	return a.tr.T("auth.provider." + string(p))
}

// status is the prompt label.
func (a *App) status() string {
	st := a.auth.State()
	switch st.Kind {
	case auth.StateSignedIn:
		s := st.User.DisplayName()
		if a.ent.IsPro() {
			s += " " + a.tr.T("entitlements.status.pro")
		}
		return "(" + s + ")"
	case auth.StateLoading:
		return "(" + a.tr.T("auth.state.loading") + ")"
	case auth.StateError:
		return "(" + a.tr.T("auth.state.error", st.Err.Kind.String()) + ")"
	default:
		return "(" + a.tr.T("auth.state.signedOut") + ")"
	}
}

func (a *App) signedIn(ctx context.Context, err error) error {
	if err != nil {
		a.report(ctx, err)
		return err
	}
	u, _ := a.auth.CurrentUser()
	fmtln(a.out, a.tr.T("auth.state.signedIn", u.DisplayName()))
	return nil
}

func (a *App) SignInApple(ctx context.Context) error {
	return a.signedIn(ctx, a.auth.SignInWithApple(ctx))
}

func (a *App) SignInGoogle(ctx context.Context) error {
	return a.signedIn(ctx, a.auth.SignInWithGoogle(ctx))
}

func (a *App) ContinueAsGuest(ctx context.Context) error {
	return a.signedIn(ctx, a.auth.ContinueAsGuest(ctx))
}

func (a *App) SignOut(ctx context.Context) error {
	if err := a.auth.SignOut(ctx); err != nil {
		a.report(ctx, err)
		return err
	}
	fmtln(a.out, a.tr.T("auth.state.signedOut"))
	return nil
}

func (a *App) DeleteAccount(ctx context.Context) error {
	if err := a.auth.DeleteAccount(ctx); err != nil {
		a.report(ctx, err)
		return err
	}
	fmtln(a.out, a.tr.T("auth.state.signedOut"))
	return nil
}

func (a *App) Status(context.Context) error {
	st := a.auth.State()
	switch st.Kind {
	case auth.StateSignedIn:
		fmtln(a.out, a.tr.T("auth.state.signedIn", st.User.DisplayName()))
	case auth.StateLoading:
		fmtln(a.out, a.tr.T("auth.state.loading"))
	case auth.StateError:
		fmtln(a.out, a.tr.T("auth.state.error", st.Err.Message(a.tr)))
	default:
		fmtln(a.out, a.tr.T("auth.state.signedOut"))
	}
	return nil
}

func (a *App) Profile(context.Context) error {
	u, ok := a.auth.CurrentUser()
	if !ok {
		fmtln(a.out, a.tr.T("auth.state.signedOut"))
		return nil
	}
	fmtln(a.out, a.tr.T("profile.id", u.ID))
	if u.FullName != "" {
		fmtln(a.out, a.tr.T("profile.name", u.FullName))
	}
	if u.Email != "" {
		fmtln(a.out, a.tr.T("profile.email", u.Email))
	}
	fmtln(a.out, a.tr.T("profile.provider", a.providerName(u.Provider)))
	fmtln(a.out, a.tr.T("profile.verified", u.IsEmailVerified))
	fmtln(a.out, a.tr.T("profile.pro", a.ent.IsPro()))
	return nil
}

func (a *App) printPro() {
	if a.ent.IsPro() {
		fmtln(a.out, a.tr.T("entitlements.status.pro"))
	} else {
		fmtln(a.out, a.tr.T("entitlements.status.free"))
	}
}

func (a *App) Pro(ctx context.Context) error {
	if !a.ent.IsConfigured() {
		fmtln(a.out, a.tr.T("entitlements.notConfigured"))
		return entitlements.ErrNotConfigured
	}
	if err := a.ent.CheckCurrentEntitlement(ctx); err != nil {
		a.report(ctx, err)
	}
	a.printPro()
	return nil
}

func (a *App) Paywall(ctx context.Context, args []string) error {
	placement := string(paywall.EventFeatureLockedPremium)
	if len(args) > 0 {
		placement = args[0]
	}

	wasPro := a.ent.IsPro()
	var err error
	if e, ok := paywall.ParseEvent(placement); ok {
		err = a.paywall.PresentPaywall(ctx, e)
	} else {
		err = a.paywall.PresentIdentifier(ctx, placement)
	}
	if err != nil {
		a.report(ctx, err)
		return err
	}
	if wasPro {
		fmtln(a.out, a.tr.T("paywall.alreadyPro"))
	}
	return nil
}

func (a *App) Purchase(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmtln(a.out, a.tr.T("cli.usage", "purchase <package>"))
		return errUsage
	}
	if !a.ent.IsConfigured() {
		fmtln(a.out, a.tr.T("entitlements.notConfigured"))
		return entitlements.ErrNotConfigured
	}
	if !a.ent.Purchase(ctx, args[0]) {
		fmtln(a.out, a.tr.T("entitlements.purchase.failed"))
		return nil
	}
	fmtln(a.out, a.tr.T("entitlements.purchase.success"))
	return nil
}

func (a *App) Restore(ctx context.Context) error {
	if !a.ent.IsConfigured() {
		fmtln(a.out, a.tr.T("entitlements.notConfigured"))
		return entitlements.ErrNotConfigured
	}
	if a.ent.Restore(ctx) {
		fmtln(a.out, a.tr.T("entitlements.restore.success"))
	} else {
		fmtln(a.out, a.tr.T("entitlements.restore.nothing"))
	}
	return nil
}

func (a *App) Locale(ctx context.Context, args []string) error {
	if len(args) == 0 {
		cur := a.tr.Locale()
		var codes []string
		for _, l := range i18n.Supported() {
			codes = append(codes, string(l))
		}
		fmtln(a.out, fmt.Sprintf("%s (%s) [%s]", cur.DisplayName(), cur, strings.Join(codes, ", ")))
		return nil
	}
	l, err := i18n.ParseLocale(args[0])
	if err != nil {
		a.report(ctx, err)
		return err
	}
	if err := a.prefs.SetLocale(ctx, l); err != nil {
		a.report(ctx, err)
		return err
	}
	fmtln(a.out, a.tr.T("settings.locale.changed", l.DisplayName()))
	return nil
}

func (a *App) themeName(m services.ThemeMode) string {
	return a.tr.T("settings.theme." + string(m))
}

func (a *App) Theme(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmtln(a.out, a.themeName(a.prefs.Theme(ctx)))
		return nil
	}

	var (
		mode services.ThemeMode
		err  error
	)
	if args[0] == "toggle" {
		mode, err = a.prefs.ToggleTheme(ctx)
	} else if mode, err = services.ParseThemeMode(args[0]); err == nil {
		err = a.prefs.SetTheme(ctx, mode)
	}
	if err != nil {
		a.report(ctx, err)
		return err
	}
	fmtln(a.out, a.tr.T("settings.theme.changed", a.themeName(mode)))
	return nil
}
