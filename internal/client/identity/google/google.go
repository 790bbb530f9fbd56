// Package google implements Google sign-in for installed apps: OAuth 2.0
// authorization code with PKCE, delivered to a loopback redirect listener,
// followed by OpenID Connect ID token verification.
package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/chi/v5"
	"github.com/mobirithm/appkit/internal/client/identity"
	"github.com/mobirithm/appkit/internal/common"
	"github.com/mobirithm/appkit/internal/logging"
	"golang.org/x/oauth2"
)

const (
	Issuer  = "https://accounts.google.com"
	KeysURL = "https://www.googleapis.com/oauth2/v3/certs"

	DefaultListenAddr = "127.0.0.1:0"
	callbackPath      = "/oauth2/callback"
)

// Endpoint is Google's OAuth 2.0 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

type Config struct {
	ClientID     string
	ClientSecret string
	// Endpoint defaults to Google's.
	Endpoint oauth2.Endpoint
	// ListenAddr is where the loopback redirect listener binds.
	ListenAddr string
	// Timeout bounds how long SignIn waits for the browser. Zero waits until
	// the caller cancels. An expired timeout is a failure, not a cancellation.
	Timeout time.Duration
	// HTTPClient is used for the token exchange when set.
	HTTPClient *http.Client
}

// Presenter shows the consent URL to the user (opens a browser, prints it).
// It returns once the URL is shown; the result arrives on the redirect.
type Presenter interface {
	Present(ctx context.Context, authURL string) error
}

type PresenterFunc func(ctx context.Context, authURL string) error

func (f PresenterFunc) Present(ctx context.Context, authURL string) error { return f(ctx, authURL) }

type Provider struct {
	cfg       Config
	verifier  *oidc.IDTokenVerifier
	presenter Presenter
	log       logging.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

// New verifies tokens against Google's remote key set.
func New(ctx context.Context, cfg Config, presenter Presenter, log logging.Logger) *Provider {
	keys := oidc.NewRemoteKeySet(ctx, KeysURL)
	return NewWithVerifier(cfg, oidc.NewVerifier(Issuer, keys, &oidc.Config{ClientID: cfg.ClientID}), presenter, log)
}

func NewWithVerifier(cfg Config, verifier *oidc.IDTokenVerifier, presenter Presenter, log logging.Logger) *Provider {
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = Endpoint
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Provider{cfg: cfg, verifier: verifier, presenter: presenter, log: log.With("provider", "google")}
}

type callbackResult struct {
	code string
	err  error
}

func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	router := chi.NewRouter()
	router.Get(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("state") != state:
			res.err = identity.NewError(identity.CodeInvalidResponse, errors.New("state mismatch"))
		case q.Get("error") == "access_denied":
			res.err = identity.NewError(identity.CodeCanceled, nil)
		case q.Get("error") != "":
			res.err = identity.NewError(identity.CodeFailed, errors.New(q.Get("error")))
		case q.Get("code") == "":
			res.err = identity.NewError(identity.CodeInvalidResponse, errors.New("missing code"))
		default:
			res.code = q.Get("code")
		}

		if res.err != nil {
			http.Error(w, "Sign in failed. You can close this window.", http.StatusBadRequest)
		} else {
			_, _ = fmt.Fprintln(w, "Signed in. You can close this window.")
		}

		select {
		case results <- res:
		default:
		}
	})
	return router
}

type claims struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (p *Provider) SignIn(ctx context.Context) (identity.Profile, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	ln, err := net.Listen("tcp", p.cfg.ListenAddr)
	if err != nil {
		return identity.Profile{}, identity.NewError(identity.CodeFailed, fmt.Errorf("listen %s: %w", p.cfg.ListenAddr, err))
	}

	state, err := common.MakeRandHexString(16)
	if err != nil {
		_ = ln.Close()
		return identity.Profile{}, identity.NewError(identity.CodeFailed, err)
	}
	nonce, err := identity.RandomNonce(identity.NonceLength)
	if err != nil {
		_ = ln.Close()
		return identity.Profile{}, identity.NewError(identity.CodeFailed, err)
	}
	pkce := oauth2.GenerateVerifier()

	oc := &oauth2.Config{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		Endpoint:     p.cfg.Endpoint,
		RedirectURL:  "http://" + ln.Addr().String() + callbackPath,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}

	results := make(chan callbackResult, 1)
	srv := &http.Server{Handler: callbackHandler(state, results), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.log.Warn(ctx, "callback listener stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := oc.AuthCodeURL(state, oauth2.S256ChallengeOption(pkce), oidc.Nonce(nonce))
	if err := p.presenter.Present(ctx, authURL); err != nil {
		if errors.Is(err, context.Canceled) {
			return identity.Profile{}, identity.NewError(identity.CodeCanceled, err)
		}
		return identity.Profile{}, identity.NewError(identity.CodeFailed, err)
	}

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return identity.Profile{}, identity.NewError(identity.CodeFailed, fmt.Errorf("no browser response: %w", ctx.Err()))
		}
		return identity.Profile{}, identity.NewError(identity.CodeCanceled, ctx.Err())
	}
	if res.err != nil {
		return identity.Profile{}, res.err
	}

	if p.cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.cfg.HTTPClient)
	}
	tok, err := oc.Exchange(ctx, res.code, oauth2.VerifierOption(pkce))
	if err != nil {
		return identity.Profile{}, exchangeError(err)
	}

	rawID, ok := tok.Extra("id_token").(string)
	if !ok || rawID == "" {
		return identity.Profile{}, identity.NewError(identity.CodeInvalidResponse, errors.New("token response without id_token"))
	}
	idt, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return identity.Profile{}, identity.Classify(fmt.Errorf("verify id_token: %w", err), identity.CodeInvalidResponse)
	}
	if idt.Nonce != nonce {
		return identity.Profile{}, identity.NewError(identity.CodeInvalidResponse, errors.New("nonce mismatch"))
	}

	var c claims
	if err := idt.Claims(&c); err != nil {
		return identity.Profile{}, identity.NewError(identity.CodeInvalidResponse, err)
	}

	p.mu.Lock()
	p.token = tok
	p.mu.Unlock()

	p.log.Debug(ctx, "signed in", "sub", idt.Subject)
	return identity.Profile{
		UserID:        idt.Subject,
		Email:         c.Email,
		Name:          c.Name,
		PictureURL:    c.Picture,
		EmailVerified: c.EmailVerified,
		IDToken:       rawID,
	}, nil
}

func exchangeError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return identity.NewError(identity.CodeFailed, err)
	}
	return identity.Classify(err, identity.CodeFailed)
}

// SignOut forgets the cached token. Nothing is revoked remotely.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.token = nil
	p.mu.Unlock()
	p.log.Debug(ctx, "local session cleared")
	return nil
}

// SignedIn reports whether a token from a previous SignIn is cached.
func (p *Provider) SignedIn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token != nil
}
