// Package domain contains the core business entities for Custos.
package domain

import (
	"time"
)

// Role is a named bundle of rights, assignable to users many-to-many.
type Role struct {
	// ID is the unique identifier for the role (auto-generated).
	ID int64 `json:"id"`

	// Name is the unique role name. Constraints: 1-255 characters.
	Name string `json:"name"`

	// Description is an optional human-readable description.
	Description string `json:"description,omitempty"`

	// HomeRoute is a hint for UI clients: the route a user holding this
	// role lands on after login. Irrelevant to authorization itself.
	HomeRoute string `json:"home_route,omitempty"`

	// CreatedAt is the timestamp when the role was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the role was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRole creates a new Role.
func NewRole(name, description, homeRoute string) *Role {
	now := time.Now().UTC()
	return &Role{
		Name:        name,
		Description: description,
		HomeRoute:   homeRoute,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Right is an atomic named permission (e.g. "create_user").
type Right struct {
	// ID is the unique identifier for the right (auto-generated).
	ID int64 `json:"id"`

	// Name is the unique right name.
	Name string `json:"name"`

	// Description is an optional human-readable description.
	Description string `json:"description,omitempty"`

	// CreatedAt is the timestamp when the right was created.
	CreatedAt time.Time `json:"created_at"`
}

// NewRight creates a new Right.
func NewRight(name, description string) *Right {
	return &Right{
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}
