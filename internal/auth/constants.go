// Package auth implements the bearer-token authorization core for Custos:
// password hashing, token issuance and verification, right resolution over
// the user-role-right graph, and the request guard that ties them together.
package auth

import "time"

const (
	// AuthorizationHeader is the HTTP header carrying the credential.
	AuthorizationHeader = "Authorization"

	// BearerScheme is the only supported authorization scheme.
	BearerScheme = "Bearer"

	// DefaultTokenLifetime is the token validity window when the
	// configuration does not override it.
	DefaultTokenLifetime = 30 * time.Minute

	// DefaultHashIterations is the PBKDF2 iteration count used for
	// password hashing when not configured. Must stay >= MinHashIterations.
	DefaultHashIterations = 120000

	// MinHashIterations is the lowest iteration count accepted from
	// configuration.
	MinHashIterations = 100000

	// saltLength is the random salt size in bytes.
	saltLength = 32

	// keyLength is the PBKDF2 derived key size in bytes (SHA-512 output).
	keyLength = 64
)
