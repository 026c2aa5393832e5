// Package crypto provides password hashing for the credential store.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the byte length of per-user password salts.
const SaltSize = 16

// Argon2id parameters. Changing these invalidates stored hashes.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// GenerateSalt returns a random salt for password hashing.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("crypto: generate salt: %w", err)
	}
	return salt, nil
}

// HashPassword hashes a password with Argon2id under the given salt.
func HashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// VerifyPassword reports whether password hashes to hash under salt.
// The comparison is constant-time.
func VerifyPassword(password string, salt, hash []byte) bool {
	candidate := HashPassword(password, salt)
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}
