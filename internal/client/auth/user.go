package auth

import "fmt"

// Provider tags which identity provider issued a user id.
type Provider string

const (
	ProviderNative     Provider = "native"
	ProviderThirdParty Provider = "thirdParty"
	ProviderGuest      Provider = "guest"
)

func ParseProvider(s string) (Provider, error) {
	switch p := Provider(s); p {
	case ProviderNative, ProviderThirdParty, ProviderGuest:
		return p, nil
	default:
		return "", fmt.Errorf("unknown auth provider %q", s)
	}
}

// User is rebuilt on every sign-in or restore; it is never patched in place.
// Email and FullName are empty when unknown.
type User struct {
	ID              string
	Email           string
	FullName        string
	IsEmailVerified bool
	Provider        Provider
}

// DisplayName picks the best human label available.
func (u User) DisplayName() string {
	switch {
	case u.FullName != "":
		return u.FullName
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}
