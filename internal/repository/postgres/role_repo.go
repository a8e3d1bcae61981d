package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/custos-id/custos/internal/domain"
	"github.com/custos-id/custos/internal/repository"
)

// roleRepository implements repository.RoleRepository for PostgreSQL.
type roleRepository struct {
	db *DB
}

// NewRoleRepository creates a new PostgreSQL role repository.
func NewRoleRepository(db *DB) repository.RoleRepository {
	return &roleRepository{db: db}
}

// Create creates a new role.
func (r *roleRepository) Create(ctx context.Context, role *domain.Role) error {
	query := `
		INSERT INTO roles (name, description, home_route, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		role.Name,
		role.Description,
		role.HomeRoute,
		role.CreatedAt,
		role.UpdatedAt,
	).Scan(&role.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: role name already exists", domain.ErrRoleAlreadyExists)
		}
		return fmt.Errorf("failed to create role: %w", err)
	}

	return nil
}

// GetByID retrieves a role by ID.
func (r *roleRepository) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	return r.getBy(ctx, `WHERE id = $1`, id)
}

// GetByName retrieves a role by name.
func (r *roleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	return r.getBy(ctx, `WHERE name = $1`, name)
}

func (r *roleRepository) getBy(ctx context.Context, where string, arg interface{}) (*domain.Role, error) {
	query := `SELECT id, name, description, home_route, created_at, updated_at FROM roles ` + where

	role := &domain.Role{}
	err := r.db.Pool.QueryRow(ctx, query, arg).Scan(
		&role.ID,
		&role.Name,
		&role.Description,
		&role.HomeRoute,
		&role.CreatedAt,
		&role.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	return role, nil
}

// Update updates an existing role.
func (r *roleRepository) Update(ctx context.Context, role *domain.Role) error {
	role.UpdatedAt = time.Now().UTC()

	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE roles SET name = $1, description = $2, home_route = $3, updated_at = $4 WHERE id = $5`,
		role.Name,
		role.Description,
		role.HomeRoute,
		role.UpdatedAt,
		role.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: role name already exists", domain.ErrRoleAlreadyExists)
		}
		return fmt.Errorf("failed to update role: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

// Delete deletes a role by ID. The user_roles and role_rights cascades
// detach every membership so the resolver never traverses a dangling join.
func (r *roleRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

// List returns all roles.
func (r *roleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, name, description, home_route, created_at, updated_at FROM roles ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*domain.Role
	for rows.Next() {
		role := &domain.Role{}
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.HomeRoute, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}
	return roles, nil
}

// AttachRight attaches a right to a role. ON CONFLICT DO NOTHING keeps it
// idempotent.
func (r *roleRepository) AttachRight(ctx context.Context, roleID, rightID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO role_rights (role_id, right_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		roleID, rightID,
	)
	if err != nil {
		return fmt.Errorf("failed to attach right: %w", err)
	}
	return nil
}

// DetachRight detaches a right from a role.
func (r *roleRepository) DetachRight(ctx context.Context, roleID, rightID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM role_rights WHERE role_id = $1 AND right_id = $2`,
		roleID, rightID,
	)
	if err != nil {
		return fmt.Errorf("failed to detach right: %w", err)
	}
	return nil
}

// ListRightNames returns the names of all rights attached to a role.
func (r *roleRepository) ListRightNames(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT rights.name
		FROM role_rights
		JOIN rights ON rights.id = role_rights.right_id
		WHERE role_rights.role_id = $1
		ORDER BY rights.name
	`, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list right names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan right name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating right names: %w", err)
	}
	return names, nil
}

// ListUserIDs returns the ids of all users holding a role.
func (r *roleRepository) ListUserIDs(ctx context.Context, roleID int64) ([]int64, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT user_id FROM user_roles WHERE role_id = $1 ORDER BY user_id`,
		roleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user IDs: %w", err)
	}
	defer rows.Close()

	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user ID: %w", err)
		}
		userIDs = append(userIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user IDs: %w", err)
	}
	return userIDs, nil
}

// Ensure roleRepository implements repository.RoleRepository.
var _ repository.RoleRepository = (*roleRepository)(nil)
