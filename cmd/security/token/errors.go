package token

import "errors"

// Public, stable errors for callers.
var (
	ErrSecretMissing  = errors.New("token secret missing")
	ErrSecretTooShort = errors.New("token secret too short")

	// ErrInvalidToken covers every decode failure. Callers must not learn which check failed.
	ErrInvalidToken = errors.New("invalid token")
)
