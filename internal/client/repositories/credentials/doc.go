// Package credentials holds the storage backends behind the keychain.
//
// Every backend scopes entries to a service namespace and implements
// Repository:
//
//   - KeyringRepository: the OS secure store (macOS Keychain, Secret Service,
//     Windows Credential Manager) through go-keyring.
//   - SQLiteRepository: a file-backed store for headless hosts; values are
//     sealed with AES-GCM under a passphrase-derived key.
//   - RedisRepository: a shared store keyed "<service>:<key>".
//   - MemoryRepository: process-local, for guests and tests.
package credentials
