// Package repository defines data access interfaces for Custos.
// These interfaces abstract database operations, allowing for different
// implementations (SQLite, PostgreSQL, in-memory for testing) while keeping
// the service layer clean.
package repository

import (
	"context"

	"github.com/custos-id/custos/internal/domain"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *domain.User) error

	// Delete deletes a user by ID. Role memberships are detached by the
	// same operation (cascade), never left dangling.
	Delete(ctx context.Context, id int64) error

	// List returns all users with pagination.
	List(ctx context.Context, opts ListOptions) (*ListResult[domain.User], error)

	// ExistsByUsername checks if a user with the given username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// AttachRole attaches a role to a user. Attaching an already-attached
	// role is a no-op, not an error.
	AttachRole(ctx context.Context, userID, roleID int64) error

	// DetachRole detaches a role from a user. Detaching a role that is not
	// attached is a no-op.
	DetachRole(ctx context.Context, userID, roleID int64) error

	// ListRoleIDs returns the ids of all roles attached to a user.
	ListRoleIDs(ctx context.Context, userID int64) ([]int64, error)
}

// RoleRepository defines the interface for role data access.
type RoleRepository interface {
	// Create creates a new role.
	Create(ctx context.Context, role *domain.Role) error

	// GetByID retrieves a role by ID.
	GetByID(ctx context.Context, id int64) (*domain.Role, error)

	// GetByName retrieves a role by name.
	GetByName(ctx context.Context, name string) (*domain.Role, error)

	// Update updates an existing role.
	Update(ctx context.Context, role *domain.Role) error

	// Delete deletes a role by ID, cascade-detaching its user memberships
	// and right attachments.
	Delete(ctx context.Context, id int64) error

	// List returns all roles.
	List(ctx context.Context) ([]*domain.Role, error)

	// AttachRight attaches a right to a role. Idempotent.
	AttachRight(ctx context.Context, roleID, rightID int64) error

	// DetachRight detaches a right from a role. Idempotent.
	DetachRight(ctx context.Context, roleID, rightID int64) error

	// ListRightNames returns the names of all rights attached to a role.
	ListRightNames(ctx context.Context, roleID int64) ([]string, error)

	// ListUserIDs returns the ids of all users holding a role.
	ListUserIDs(ctx context.Context, roleID int64) ([]int64, error)
}

// RightRepository defines the interface for right data access.
type RightRepository interface {
	// Create creates a new right.
	Create(ctx context.Context, right *domain.Right) error

	// GetByID retrieves a right by ID.
	GetByID(ctx context.Context, id int64) (*domain.Right, error)

	// GetByName retrieves a right by name.
	GetByName(ctx context.Context, name string) (*domain.Right, error)

	// Delete deletes a right by ID, cascade-detaching it from every role.
	Delete(ctx context.Context, id int64) error

	// List returns all rights.
	List(ctx context.Context) ([]*domain.Right, error)
}

// AuditRepository defines the interface for the append-only audit trail.
type AuditRepository interface {
	// Record appends an audit event.
	Record(ctx context.Context, event *domain.AuditEvent) error

	// ListAfter returns up to limit events with ID greater than afterID,
	// oldest first. Used by the archiver to page through the trail.
	ListAfter(ctx context.Context, afterID int64, limit int) ([]*domain.AuditEvent, error)

	// DeleteThrough deletes all events with ID up to and including throughID.
	// Called after a successful archive upload.
	DeleteThrough(ctx context.Context, throughID int64) (int64, error)
}

// ListOptions contains common pagination options.
type ListOptions struct {
	// Offset is the number of records to skip.
	Offset int

	// Limit is the maximum number of records to return.
	Limit int
}

// ListResult is a generic paginated list result.
type ListResult[T any] struct {
	// Items is the list of items.
	Items []*T

	// Total is the total number of items (without pagination).
	Total int64

	// Offset is the current offset.
	Offset int

	// Limit is the current limit.
	Limit int
}
