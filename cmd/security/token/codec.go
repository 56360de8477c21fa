package token

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"
)

// DecisionPurpose is the HKDF info string for decision-link keys.
const DecisionPurpose = "resumegate/decision-link/v1"

// DefaultTTL is how long a decision link stays usable after issue.
const DefaultTTL = 168 * time.Hour

// Action is the decision a token authorizes.
type Action string

const (
	ActionApprove Action = "approve"
	ActionDeny    Action = "deny"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	return a == ActionApprove || a == ActionDeny
}

// Claims is the payload carried by a decision token.
// Field order is fixed, which keeps the encoded bytes canonical.
type Claims struct {
	ID     string `json:"id"`
	Action Action `json:"action"`
	Exp    int64  `json:"exp"`
}

// ExpiresAt returns Exp as a UTC time.
func (c Claims) ExpiresAt() time.Time {
	return time.Unix(c.Exp, 0).UTC()
}

// Expired reports whether now is past the expiry instant.
func (c Claims) Expired(now time.Time) bool {
	return now.Unix() > c.Exp
}

func (c Claims) wellFormed() bool {
	return strings.TrimSpace(c.ID) != "" && c.Action.Valid() && c.Exp > 0
}

// Codec encodes and decodes signed decision tokens under one key.
type Codec struct {
	key []byte
}

// NewCodec derives the decision-link key from secret.
func NewCodec(secret []byte) (*Codec, error) {
	key, err := DeriveKey(secret, DecisionPurpose)
	if err != nil {
		return nil, err
	}
	return &Codec{key: key}, nil
}

// Issue mints a token for id and action that expires ttl after now.
func (c *Codec) Issue(id string, action Action, now time.Time, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return c.Encode(Claims{ID: id, Action: action, Exp: now.Add(ttl).Unix()})
}

// Encode signs claims and returns the compact token string.
func (c *Codec) Encode(claims Claims) (string, error) {
	if c == nil || len(c.key) == 0 {
		return "", ErrSecretMissing
	}
	if !claims.wellFormed() {
		return "", ErrInvalidToken
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	tag := Sign(payload, c.key)
	return b64.EncodeToString(payload) + "." + b64.EncodeToString(tag), nil
}

// Decode verifies tok and returns its claims. Expiry is not checked here.
// Every failure is reported as ErrInvalidToken.
func (c *Codec) Decode(tok string) (Claims, error) {
	if c == nil || len(c.key) == 0 {
		return Claims{}, ErrInvalidToken
	}
	parts := strings.Split(strings.TrimSpace(tok), ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Claims{}, ErrInvalidToken
	}
	payload, err := b64.DecodeString(parts[0])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	tag, err := b64.DecodeString(parts[1])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	if !Verify(payload, tag, c.key) {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&claims); err != nil {
		return Claims{}, ErrInvalidToken
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Claims{}, ErrInvalidToken
	}
	if !claims.wellFormed() {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

var b64 = base64.RawURLEncoding.Strict()
