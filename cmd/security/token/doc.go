// Package token provides the signing primitives behind decision links.
//
// A decision token is a bearer capability: base64url(JSON claims) "." base64url(tag),
// where tag is HMAC-SHA256 over the raw claims bytes. Claims are not encrypted;
// holders can read them but cannot forge or alter them without the key.
//
// Environment:
//   - RG_TOKEN_SECRET: shared secret (>= 32 bytes) loaded once at startup.
//
// Keys used for signing are derived from the secret per purpose (HKDF-SHA256),
// so the same secret can never produce a valid tag for another purpose.
package token
