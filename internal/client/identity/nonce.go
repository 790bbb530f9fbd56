package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// NonceCharset is the alphabet nonces are drawn from. It has 64 symbols.
const NonceCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVXYZabcdefghijklmnopqrstuvwxyz-._"

// NonceLength is the length used for sign-in requests.
const NonceLength = 32

var randReader io.Reader = rand.Reader

// RandomNonce returns n characters from NonceCharset. Bytes are drawn from
// crypto/rand and rejected when they would bias the distribution.
func RandomNonce(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	limit := 256 - 256%len(NonceCharset)

	out := make([]byte, 0, n)
	buf := make([]byte, 16)
	for len(out) < n {
		if _, err := io.ReadFull(randReader, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, NonceCharset[int(b)%len(NonceCharset)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// SHA256Hex is the lowercase hex SHA-256 of s.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
