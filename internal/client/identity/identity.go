// Package identity defines what the auth layer expects from identity
// providers, plus the helpers shared by their implementations.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/mobirithm/appkit/internal/netx"
)

// NativeRequest is what the native authorizer needs to start a request.
// Nonce is already hashed; the raw value never leaves the auth manager.
type NativeRequest struct {
	Nonce  string
	Scopes []Scope
}

type Scope string

const (
	ScopeFullName Scope = "name"
	ScopeEmail    Scope = "email"
)

// NativeCredential is the result of a native authorization. Email and name
// parts are empty when the provider did not share them (it only does so on
// the first authorization).
type NativeCredential struct {
	UserID        string
	Email         string
	GivenName     string
	FamilyName    string
	IdentityToken string
}

// FullName joins the name components that are present.
func (c NativeCredential) FullName() string {
	switch {
	case c.GivenName != "" && c.FamilyName != "":
		return c.GivenName + " " + c.FamilyName
	case c.GivenName != "":
		return c.GivenName
	default:
		return c.FamilyName
	}
}

// NativeAuthorizer runs the platform sign-in flow.
type NativeAuthorizer interface {
	Authorize(ctx context.Context, req NativeRequest) (NativeCredential, error)
}

// Profile is a third-party provider sign-in result.
type Profile struct {
	UserID     string
	Email      string
	Name       string
	PictureURL string
	// EmailVerified is nil when the provider did not send the claim.
	EmailVerified *bool
	IDToken       string
}

// ThirdPartyProvider runs a third-party sign-in flow. SignOut only drops
// the provider's local session.
type ThirdPartyProvider interface {
	SignIn(ctx context.Context) (Profile, error)
	SignOut(ctx context.Context) error
}

// Code classifies provider failures.
type Code int

const (
	CodeUnknown Code = iota
	CodeCanceled
	CodeFailed
	CodeInvalidResponse
	CodeNotHandled
	// CodeNetwork is a transport failure talking to the provider.
	CodeNetwork
)

func (c Code) String() string {
	switch c {
	case CodeCanceled:
		return "canceled"
	case CodeFailed:
		return "failed"
	case CodeInvalidResponse:
		return "invalidResponse"
	case CodeNotHandled:
		return "notHandled"
	case CodeNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// AuthorizationError is returned by providers for classified failures.
type AuthorizationError struct {
	Code Code
	Err  error
}

func (e *AuthorizationError) Error() string {
	if e.Err == nil {
		return "authorization " + e.Code.String()
	}
	return fmt.Sprintf("authorization %s: %v", e.Code, e.Err)
}

func (e *AuthorizationError) Unwrap() error { return e.Err }

// NewError builds an AuthorizationError.
func NewError(code Code, err error) *AuthorizationError {
	return &AuthorizationError{Code: code, Err: err}
}

// Classify wraps err as CodeNetwork when it is a transport failure and as
// fallback otherwise.
func Classify(err error, fallback Code) *AuthorizationError {
	if netx.IsNetworkError(err) {
		return NewError(CodeNetwork, err)
	}
	return NewError(fallback, err)
}

// CodeOf extracts the code of err. Context cancellation counts as
// CodeCanceled; anything unclassified is CodeUnknown.
func CodeOf(err error) Code {
	var ae *AuthorizationError
	if errors.As(err, &ae) {
		return ae.Code
	}
	if errors.Is(err, context.Canceled) {
		return CodeCanceled
	}
	return CodeUnknown
}
