// Package pkce generates PKCE verifier/challenge pairs and the random nonces used as OAuth state.
package pkce

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/oauth2"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Verifier length bounds from RFC 7636 section 4.1.
const (
	MinVerifierLength = 43
	MaxVerifierLength = 128
)

// maxUnbiased is the largest multiple of len(alphabet) that fits in a byte.
// Bytes at or above it are discarded so every symbol is equally likely.
const maxUnbiased = 256 - (256 % len(alphabet))

// Pair is a PKCE verifier and its S256 challenge.
type Pair struct {
	CodeVerifier  string
	CodeChallenge string
}

// Reader is the entropy source; tests may replace it.
var Reader io.Reader = rand.Reader

// RandomString returns n symbols drawn uniformly from [A-Za-z0-9].
func RandomString(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid random string length %d", n)
	}

	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := io.ReadFull(Reader, buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// Generate returns a verifier of the given length and its base64url SHA-256 challenge.
func Generate(length int) (Pair, error) {
	if length < MinVerifierLength || length > MaxVerifierLength {
		return Pair{}, errors.New("pkce verifier length must be between 43 and 128")
	}
	verifier, err := RandomString(length)
	if err != nil {
		return Pair{}, fmt.Errorf("generate verifier: %w", err)
	}
	return Pair{
		CodeVerifier:  verifier,
		CodeChallenge: oauth2.S256ChallengeFromVerifier(verifier),
	}, nil
}
