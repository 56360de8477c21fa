package app

import (
	"errors"
	"fmt"

	"resumegate/cmd/security/token"
)

// ValidateSecurityConfig enforces the signing-secret policy at startup.
// Decision links are bearer capabilities, so a weak or missing secret is fatal.
func ValidateSecurityConfig(cfg Config) error {
	// Measured in bytes, not runes: the secret is used as raw key material.
	if _, err := token.ParseSecret(cfg.TokenSecret, token.MinSecretBytes); err != nil {
		switch {
		case errors.Is(err, token.ErrSecretMissing):
			return fmt.Errorf("security policy: %s is required", token.SecretEnvKey)
		case errors.Is(err, token.ErrSecretTooShort):
			return fmt.Errorf("security policy: %s is too short (min %d bytes)", token.SecretEnvKey, token.MinSecretBytes)
		default:
			return err
		}
	}
	return nil
}
