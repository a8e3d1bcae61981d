// Package auth implements the bearer-token authorization core for Custos.
package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Hasher performs one-way password storage and verification using
// PBKDF2-SHA512 with a per-password random salt. The stored form is a
// single opaque string: the decimal iteration count, a '$' separator,
// then hex(salt) immediately followed by hex(derivedKey).
type Hasher struct {
	iterations int
}

// NewHasher creates a Hasher. Iteration counts below MinHashIterations are
// raised to DefaultHashIterations.
func NewHasher(iterations int) *Hasher {
	if iterations < MinHashIterations {
		iterations = DefaultHashIterations
	}
	return &Hasher{iterations: iterations}
}

// Hash derives an opaque hash from a plaintext password.
// Returns ErrPasswordEmpty for an empty password.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrPasswordEmpty
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(plaintext), salt, h.iterations, keyLength, sha512.New)
	return strconv.Itoa(h.iterations) + "$" + hex.EncodeToString(salt) + hex.EncodeToString(key), nil
}

// Verify reports whether plaintext matches the stored hash. An empty stored
// hash is a defined non-authenticating state (the user has no password yet)
// and yields false, never an error. The derivation uses the iteration count
// embedded in the stored hash, so raising the configured count only affects
// newly hashed passwords. The comparison is constant time.
func (h *Hasher) Verify(stored, plaintext string) bool {
	if stored == "" || plaintext == "" {
		return false
	}

	iterText, encoded, ok := strings.Cut(stored, "$")
	if !ok {
		return false
	}
	iterations, err := strconv.Atoi(iterText)
	if err != nil || iterations < 1 {
		return false
	}
	if len(encoded) != (saltLength+keyLength)*2 {
		return false
	}

	salt, err := hex.DecodeString(encoded[:saltLength*2])
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(encoded[saltLength*2:])
	if err != nil {
		return false
	}

	got := pbkdf2.Key([]byte(plaintext), salt, iterations, keyLength, sha512.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
