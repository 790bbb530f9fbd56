// Package cryptox seals small secrets at rest. It is used by the sqlite
// credential backend, which has no OS-level protection of its own.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/mobirithm/appkit/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeySize is the AES-256 key length produced by DeriveKey.
const KeySize = 32

// SaltSize is the length of salts created by NewSalt.
const SaltSize = 16

// ErrCiphertextTooShort is returned by Open when the input cannot even hold a nonce.
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// DeriveKey stretches a passphrase into an AES-256 key with Argon2id.
func DeriveKey(passphrase []byte, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
}

// Verifier is a digest of key that can be stored next to the salt to detect
// a wrong passphrase without decrypting anything.
func Verifier(key []byte) []byte {
	sum := sha256.Sum256(key)
	return sum[:]
}

// CheckVerifier compares in constant time.
func CheckVerifier(key, verifier []byte) bool {
	return subtle.ConstantTimeCompare(Verifier(key), verifier) == 1
}

// NewSalt returns SaltSize random bytes.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// Sealer encrypts values with AES-GCM. The output layout is nonce||ciphertext.
type Sealer struct {
	aead cipher.AEAD
}

func NewSealer(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext. additional is authenticated but not encrypted;
// callers bind the storage key there so values cannot be swapped between rows.
func (s *Sealer) Seal(plaintext, additional []byte) []byte {
	nonce := common.GenerateRandByteArray(s.aead.NonceSize())
	out := make([]byte, 0, len(nonce)+len(plaintext)+s.aead.Overhead())
	out = append(out, nonce...)
	return s.aead.Seal(out, nonce, plaintext, additional)
}

// Open reverses Seal.
func (s *Sealer) Open(sealed, additional []byte) ([]byte, error) {
	ns := s.aead.NonceSize()
	if len(sealed) < ns {
		return nil, ErrCiphertextTooShort
	}
	plaintext, err := s.aead.Open(nil, sealed[:ns], sealed[ns:], additional)
	if err != nil {
		return nil, fmt.Errorf("open sealed value: %w", err)
	}
	return plaintext, nil
}
