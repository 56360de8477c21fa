package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// SecretEnvKey is the env var name for the shared signing secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	SecretEnvKey = "RG_TOKEN_SECRET"

	// MinSecretBytes is the minimum accepted secret size for HMAC-SHA256.
	MinSecretBytes = 32

	// KeySize is the size of derived signing keys.
	KeySize = 32
)

// Sign returns HMAC-SHA256(msg, key). Same msg and key always yield the same tag.
func Sign(msg, key []byte) []byte {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write(msg)
	return m.Sum(nil)
}

// Verify recomputes the tag for msg and compares it with tag in constant time.
func Verify(msg, tag, key []byte) bool {
	if len(tag) != sha256.Size {
		return false
	}
	return hmac.Equal(Sign(msg, key), tag)
}

// SecretFromEnv returns the configured secret bytes (trimmed), enforcing a minimum byte length.
// If the env var is missing/blank -> ErrSecretMissing.
// If too short -> ErrSecretTooShort.
func SecretFromEnv(minBytes int) ([]byte, error) {
	return ParseSecret(os.Getenv(SecretEnvKey), minBytes)
}

// ParseSecret applies the same rules as SecretFromEnv to an already loaded value.
func ParseSecret(raw string, minBytes int) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrSecretMissing
	}
	// Measured in bytes, not runes: the secret is used as raw key material.
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrSecretTooShort
	}
	return b, nil
}

// DeriveKey derives a KeySize-byte key for purpose from secret using HKDF-SHA256.
func DeriveKey(secret []byte, purpose string) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrSecretMissing
	}
	r := hkdf.New(sha256.New, secret, nil, []byte(purpose))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}
