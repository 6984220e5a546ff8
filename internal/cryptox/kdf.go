// Package cryptox implements the two cryptographic primitives AcqBridge
// relies on: a password-based key derivation function and an authenticated
// cipher. Everything above this package works with opaque byte slices.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the derived key length in bytes (AES-256).
	KeySize = 32

	// SaltSize is the password salt length in bytes, generated once at
	// password setup and never changed afterwards.
	SaltSize = 16

	// DefaultKDFIterations is the PBKDF2 iteration count written into new
	// password records. Existing records keep whatever count they were
	// created with; it is never rewritten.
	DefaultKDFIterations = 200_000
)

// DeriveKey derives a 32-byte key-encryption-key from a password, salt and
// iteration count using PBKDF2-SHA256.
//
// The function is deterministic: the same inputs always produce the same
// key. An empty password is permitted here; rejecting weak passwords is a
// UI-layer decision.
func DeriveKey(password, salt []byte, iterations int) []byte {
	return pbkdf2.Key(password, salt, iterations, KeySize, sha256.New)
}

// KeysEqual compares two derived keys in constant time.
func KeysEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
