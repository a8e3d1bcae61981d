// Package repository provides the data access layer for Custos.
// This file bundles repository instances for wiring at startup.
package repository

import (
	"context"
)

// Repositories holds all repository instances.
type Repositories struct {
	User  UserRepository
	Role  RoleRepository
	Right RightRepository
	Audit AuditRepository
}

// DatabaseHealth is an interface for database health checks.
// This interface satisfies handler.DatabaseChecker for health endpoints.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}
