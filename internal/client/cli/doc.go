// Package cli provides the interactive appkit command-line client.
//
// It wires configuration, the credential store, the identity providers, the
// entitlement and paywall managers, and an interactive REPL that drives the
// authentication state machine. Typical flow: restore the stored session,
// configure purchases, start the background entitlement watcher and execute
// user commands.
//
// Key features:
//   - Sign in with Apple, Google, or as a guest; sign out; delete account
//   - Profile and entitlement status
//   - Paywall placements, purchase and restore
//   - Interface language and theme preferences
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, openCredentials, and runREPL for details.
package cli
