// Package domain contains the core business entities for Custos.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the identity and authorization system.
package domain

import (
	"time"
)

// User represents a principal: an identity subject to authorization checks.
// Users connect to roles many-to-many; a user's effective rights are the
// distinct union of the rights of all its roles, recomputed at every check.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"id"`

	// Username is the unique login name.
	// Constraints: 3-255 characters.
	Username string `json:"username"`

	// FirstName is the optional given name for display.
	FirstName string `json:"first_name,omitempty"`

	// LastName is the optional family name for display.
	LastName string `json:"last_name,omitempty"`

	// Email is the optional email address for the user.
	Email string `json:"email,omitempty"`

	// PasswordHash is the PBKDF2 hash of the user's password, encoded as
	// salt followed by derived key. It is write-only: set through
	// SetPassword paths and never exposed in API responses.
	PasswordHash string `json:"-"`

	// IsActive indicates whether the account is enabled.
	// Inactive users cannot authenticate.
	IsActive bool `json:"is_active"`

	// IsVerified indicates whether the account has been verified.
	// Unverified users cannot authenticate.
	IsVerified bool `json:"is_verified"`

	// LastLoginAt is the timestamp of the last successful login.
	// Updated only on successful authentication, nil before the first one.
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	// CreatedAt is the timestamp when the user was created.
	// Server-assigned, immutable by clients.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new User with default values. New accounts start
// inactive and unverified and must be enabled explicitly before they can
// authenticate.
func NewUser(username, email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     false,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CanAuthenticate returns true if the user is allowed to authenticate.
// Both the active and verified flags must be set.
func (u *User) CanAuthenticate() bool {
	return u.IsActive && u.IsVerified
}

// DisplayName returns a human-readable name, falling back to the username.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}
