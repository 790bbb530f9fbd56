// Package apple implements Sign in with Apple as an identity.NativeAuthorizer.
//
// The authorize URL is handed to a Presenter (a browser, or the CLI asking
// the user to paste what Apple posted back). The returned ID token is
// verified against Apple's published keys and must carry the request nonce.
package apple

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/mobirithm/appkit/internal/client/identity"
	"github.com/mobirithm/appkit/internal/common"
	"github.com/mobirithm/appkit/internal/logging"
)

const (
	Issuer       = "https://appleid.apple.com"
	AuthorizeURL = Issuer + "/auth/authorize"
	KeysURL      = Issuer + "/auth/keys"

	// errUserCancelled is the error value Apple posts back when the user backs out.
	errUserCancelled = "user_cancelled_authorize"
)

type Config struct {
	// ClientID is the Services ID; it is the expected token audience.
	ClientID    string
	RedirectURL string
	// AuthURL overrides AuthorizeURL.
	AuthURL string
	// RequireState rejects responses without a state. Set it when the
	// presenter receives the full redirect post rather than a pasted token.
	RequireState bool
}

// Response carries the fields Apple posts to the redirect URL.
type Response struct {
	IDToken string
	Code    string
	State   string
	// User is the JSON "user" field, sent on the first authorization only.
	User  string
	Error string
}

// Presenter shows the authorize URL and collects the response.
type Presenter interface {
	Present(ctx context.Context, authURL string) (Response, error)
}

type PresenterFunc func(ctx context.Context, authURL string) (Response, error)

func (f PresenterFunc) Present(ctx context.Context, authURL string) (Response, error) {
	return f(ctx, authURL)
}

type Authorizer struct {
	cfg       Config
	verifier  *oidc.IDTokenVerifier
	presenter Presenter
	log       logging.Logger
}

// New verifies tokens with Apple's remote key set. Keys are fetched lazily.
func New(ctx context.Context, cfg Config, presenter Presenter, log logging.Logger) *Authorizer {
	keys := oidc.NewRemoteKeySet(ctx, KeysURL)
	return NewWithVerifier(cfg, oidc.NewVerifier(Issuer, keys, &oidc.Config{ClientID: cfg.ClientID}), presenter, log)
}

func NewWithVerifier(cfg Config, verifier *oidc.IDTokenVerifier, presenter Presenter, log logging.Logger) *Authorizer {
	if cfg.AuthURL == "" {
		cfg.AuthURL = AuthorizeURL
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Authorizer{cfg: cfg, verifier: verifier, presenter: presenter, log: log.With("provider", "apple")}
}

// AuthURL builds the authorize URL for req.
func (a *Authorizer) AuthURL(req identity.NativeRequest, state string) string {
	scopes := make([]string, 0, len(req.Scopes))
	for _, s := range req.Scopes {
		scopes = append(scopes, string(s))
	}

	q := url.Values{}
	q.Set("client_id", a.cfg.ClientID)
	q.Set("redirect_uri", a.cfg.RedirectURL)
	q.Set("response_type", "code id_token")
	q.Set("state", state)
	q.Set("nonce", req.Nonce)
	if len(scopes) > 0 {
		q.Set("scope", strings.Join(scopes, " "))
		// Apple requires form_post whenever scopes are requested.
		q.Set("response_mode", "form_post")
	}
	return a.cfg.AuthURL + "?" + q.Encode()
}

type userField struct {
	Name struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"name"`
	Email string `json:"email"`
}

type tokenClaims struct {
	Email string `json:"email"`
}

func (a *Authorizer) Authorize(ctx context.Context, req identity.NativeRequest) (identity.NativeCredential, error) {
	state, err := common.MakeRandHexString(16)
	if err != nil {
		return identity.NativeCredential{}, identity.NewError(identity.CodeFailed, err)
	}

	resp, err := a.presenter.Present(ctx, a.AuthURL(req, state))
	if err != nil {
		var ae *identity.AuthorizationError
		if errors.As(err, &ae) {
			return identity.NativeCredential{}, err
		}
		if errors.Is(err, context.Canceled) {
			return identity.NativeCredential{}, identity.NewError(identity.CodeCanceled, err)
		}
		return identity.NativeCredential{}, identity.NewError(identity.CodeFailed, err)
	}

	switch {
	case resp.Error == errUserCancelled:
		return identity.NativeCredential{}, identity.NewError(identity.CodeCanceled, nil)
	case resp.Error != "":
		return identity.NativeCredential{}, identity.NewError(identity.CodeFailed, errors.New(resp.Error))
	case resp.State == "" && a.cfg.RequireState:
		return identity.NativeCredential{}, identity.NewError(identity.CodeInvalidResponse, errors.New("missing state"))
	// A pasted token comes without state; the nonce check below still binds
	// the token to this request.
	case resp.State != "" && resp.State != state:
		return identity.NativeCredential{}, identity.NewError(identity.CodeInvalidResponse, errors.New("state mismatch"))
	case resp.IDToken == "":
		return identity.NativeCredential{}, identity.NewError(identity.CodeInvalidResponse, errors.New("missing id_token"))
	}

	tok, err := a.verifier.Verify(ctx, resp.IDToken)
	if err != nil {
		return identity.NativeCredential{}, identity.Classify(fmt.Errorf("verify id_token: %w", err), identity.CodeInvalidResponse)
	}
	if tok.Nonce != req.Nonce {
		return identity.NativeCredential{}, identity.NewError(identity.CodeInvalidResponse, errors.New("nonce mismatch"))
	}

	var claims tokenClaims
	if err := tok.Claims(&claims); err != nil {
		return identity.NativeCredential{}, identity.NewError(identity.CodeInvalidResponse, err)
	}

	cred := identity.NativeCredential{
		UserID:        tok.Subject,
		Email:         claims.Email,
		IdentityToken: resp.IDToken,
	}

	if resp.User != "" {
		var u userField
		if err := json.Unmarshal([]byte(resp.User), &u); err != nil {
			a.log.Warn(ctx, "ignoring malformed user field", "error", err)
		} else {
			cred.GivenName = u.Name.FirstName
			cred.FamilyName = u.Name.LastName
			if cred.Email == "" {
				cred.Email = u.Email
			}
		}
	}

	a.log.Debug(ctx, "authorized", "sub", cred.UserID, "has_email", cred.Email != "")
	return cred, nil
}
