package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mobirithm/appkit/internal/i18n"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isSignedIn() bool
	SignInApple(ctx context.Context) error
	SignInGoogle(ctx context.Context) error
	ContinueAsGuest(ctx context.Context) error
	SignOut(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	Profile(ctx context.Context) error
	Pro(ctx context.Context) error
	Paywall(ctx context.Context, args []string) error
	Purchase(ctx context.Context, args []string) error
	Restore(ctx context.Context) error
	Locale(ctx context.Context, args []string) error
	Theme(ctx context.Context, args []string) error
	Status(ctx context.Context) error
}

func fmtln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

// runREPL starts a simple read-eval-print loop for the appkit CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF, when ctx is done, or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Signed out:
//	  - help                   - show available commands
//	  - signin-apple | apple   - Sign in with Apple
//	  - signin-google | google - Sign in with Google
//	  - guest                  - continue without an account
//
//	Signed in:
//	  - profile                - show the current user
//	  - pro                    - show entitlement status
//	  - paywall [placement]    - present a paywall
//	  - purchase <package>     - buy a package
//	  - restore                - restore purchases
//	  - signout                - sign out
//	  - delete-account         - sign out and forget local data
//
//	Always:
//	  - locale [code]          - show or change the language
//	  - theme [mode|toggle]    - show or change the theme
//	  - status                 - show the authentication state
//	  - exit | quit            - leave the program
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, tr *i18n.Translator, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		_, _ = fmt.Fprintf(w, "appkit %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isSignedIn() {
				fmtln(w, tr.T("cli.help.signedIn"))
			} else {
				fmtln(w, tr.T("cli.help.signedOut"))
			}

		case "signin-apple", "apple":
			_ = a.SignInApple(ctx)

		case "signin-google", "google":
			_ = a.SignInGoogle(ctx)

		case "guest":
			_ = a.ContinueAsGuest(ctx)

		case "signout", "logout":
			_ = a.SignOut(ctx)

		case "delete-account":
			_ = a.DeleteAccount(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "pro":
			_ = a.Pro(ctx)

		case "paywall":
			_ = a.Paywall(ctx, args)

		case "purchase":
			_ = a.Purchase(ctx, args)

		case "restore":
			_ = a.Restore(ctx)

		case "locale":
			_ = a.Locale(ctx, args)

		case "theme":
			_ = a.Theme(ctx, args)

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			fmtln(w, tr.T("cli.bye"))
			return

		default:
			fmtln(w, tr.T("cli.unknownCommand", cmd))
		}
	}
}
