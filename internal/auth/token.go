// Package auth implements the bearer-token authorization core for Custos.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// Claims is the verified payload of a bearer token.
type Claims struct {
	// Subject is the principal (user) id the token was issued for.
	Subject int64 `json:"sub"`

	// IssuedAt is the issuance instant, Unix seconds.
	IssuedAt int64 `json:"iat"`

	// ExpiresAt is the expiry instant, Unix seconds. The token is valid
	// strictly before this instant; there is no grace period.
	ExpiresAt int64 `json:"exp"`

	// Extra carries optional additional claims set at issuance.
	Extra map[string]string `json:"extra,omitempty"`
}

// IssuedToken is the result of issuing a bearer token.
type IssuedToken struct {
	// Token is the encoded token string.
	Token string `json:"bearer_token"`

	// IssuedAt is the issuance instant.
	IssuedAt time.Time `json:"issued_at"`

	// ExpiresAt is the expiry instant.
	ExpiresAt time.Time `json:"expires_at"`

	// LifetimeSeconds is the validity window in seconds.
	LifetimeSeconds int64 `json:"lifetime_seconds"`
}

// Codec issues and verifies bearer tokens. A token is two base64url
// segments separated by a dot: the JSON claims and an HMAC-SHA256 signature
// over the encoded claims segment, keyed by the server secret. Decoding is a
// pure function of (token, secret, current time); the codec holds no state
// beyond the immutable secret and is safe for concurrent use.
type Codec struct {
	secret   []byte
	lifetime time.Duration

	// now is the clock; overridable in tests.
	now func() time.Time
}

// NewCodec creates a Codec with the given signing secret and default token
// lifetime. A non-positive lifetime falls back to DefaultTokenLifetime.
func NewCodec(secret string, lifetime time.Duration) *Codec {
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	return &Codec{
		secret:   []byte(secret),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Lifetime returns the default token lifetime.
func (c *Codec) Lifetime() time.Duration {
	return c.lifetime
}

// Issue creates a signed token for the given principal. A non-positive
// lifetime uses the codec default. Timestamps are at second granularity, so
// two tokens for the same principal issued at least one second apart differ.
func (c *Codec) Issue(principalID int64, lifetime time.Duration, extra map[string]string) (*IssuedToken, error) {
	if lifetime <= 0 {
		lifetime = c.lifetime
	}

	issuedAt := c.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(lifetime)

	claims := Claims{
		Subject:   principalID,
		IssuedAt:  issuedAt.Unix(),
		ExpiresAt: expiresAt.Unix(),
		Extra:     extra,
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return nil, err
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	signature := c.sign(encoded)

	return &IssuedToken{
		Token:           encoded + "." + signature,
		IssuedAt:        issuedAt,
		ExpiresAt:       expiresAt,
		LifetimeSeconds: int64(lifetime / time.Second),
	}, nil
}

// Decode verifies the signature and expiry of a token and returns its
// claims. Returns ErrTokenMalformed for bad encoding or a signature
// mismatch, ErrTokenExpired once the expiry instant has passed. Claims are
// never trusted before the signature is verified.
func (c *Codec) Decode(token string) (*Claims, error) {
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || signature == "" {
		return nil, ErrTokenMalformed
	}

	want := c.sign(encoded)
	if !hmac.Equal([]byte(signature), []byte(want)) {
		return nil, ErrTokenMalformed
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrTokenMalformed
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrTokenMalformed
	}
	if claims.Subject == 0 || claims.ExpiresAt == 0 {
		return nil, ErrTokenMalformed
	}

	if !c.now().UTC().Before(time.Unix(claims.ExpiresAt, 0)) {
		return nil, ErrTokenExpired
	}

	return &claims, nil
}

// sign computes the base64url HMAC-SHA256 signature of the encoded claims.
func (c *Codec) sign(encoded string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
