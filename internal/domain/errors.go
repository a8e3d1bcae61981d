// Package domain contains the core business entities for Custos.
package domain

import (
	"errors"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a user with the same username/email exists.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrUserInactive indicates the user account is disabled or unverified.
	ErrUserInactive = errors.New("user account is inactive")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRoleNotFound indicates the requested role does not exist.
	ErrRoleNotFound = errors.New("role not found")

	// ErrRoleAlreadyExists indicates a role with the same name exists.
	ErrRoleAlreadyExists = errors.New("role already exists")

	// ErrRightNotFound indicates the requested right does not exist.
	ErrRightNotFound = errors.New("right not found")

	// ErrRightAlreadyExists indicates a right with the same name exists.
	ErrRightAlreadyExists = errors.New("right already exists")
)
