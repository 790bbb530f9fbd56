package auth

import "fmt"

type StateKind int

const (
	StateLoading StateKind = iota
	StateSignedOut
	StateSignedIn
	StateError
)

func (k StateKind) String() string {
	switch k {
	case StateLoading:
		return "loading"
	case StateSignedOut:
		return "signedOut"
	case StateSignedIn:
		return "signedIn"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
}

// State is the single observable authentication state. User is set only
// for StateSignedIn and Err only for StateError.
type State struct {
	Kind StateKind
	User User
	Err  *Error
}

func Loading() State   { return State{Kind: StateLoading} }
func SignedOut() State { return State{Kind: StateSignedOut} }

func SignedIn(u User) State { return State{Kind: StateSignedIn, User: u} }

func Failed(err *Error) State { return State{Kind: StateError, Err: err} }

// Equal compares states for transition purposes: every error state equals
// every other error state. Use Err for the detail.
func (s State) Equal(o State) bool {
	if s.Kind != o.Kind {
		return false
	}
	if s.Kind == StateSignedIn {
		return s.User == o.User
	}
	return true
}

func (s State) String() string {
	switch s.Kind {
	case StateSignedIn:
		return fmt.Sprintf("signedIn(%s, %s)", s.User.ID, s.User.Provider)
	case StateError:
		if s.Err != nil {
			return "error(" + s.Err.Kind.String() + ")"
		}
		return "error"
	default:
		return s.Kind.String()
	}
}
