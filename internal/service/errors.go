// Package service provides business logic services for Custos.
package service

import "errors"

// Common service errors.
var (
	// Validation errors
	ErrInvalidUsername = errors.New("invalid username: must be 3-255 characters")
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrInvalidPassword = errors.New("invalid password: must be at least 8 characters")
	ErrInvalidRoleName = errors.New("invalid role name: must be 1-255 characters")
	ErrInvalidRight    = errors.New("invalid right name: must be 1-255 characters")

	// Login errors
	ErrRateLimited = errors.New("too many login attempts")

	// General errors
	ErrInternalError = errors.New("internal server error")
)
