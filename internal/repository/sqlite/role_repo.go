package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/custos-id/custos/internal/domain"
	"github.com/custos-id/custos/internal/repository"
)

// roleRepository implements repository.RoleRepository for SQLite.
type roleRepository struct {
	db *DB
}

// NewRoleRepository creates a new SQLite role repository.
func NewRoleRepository(db *DB) repository.RoleRepository {
	return &roleRepository{db: db}
}

// Create creates a new role.
func (r *roleRepository) Create(ctx context.Context, role *domain.Role) error {
	query := `
		INSERT INTO roles (name, description, home_route, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		role.Name,
		role.Description,
		role.HomeRoute,
		role.CreatedAt.Format(time.RFC3339),
		role.UpdatedAt.Format(time.RFC3339),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: role name already exists", domain.ErrRoleAlreadyExists)
		}
		return fmt.Errorf("failed to create role: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	role.ID = id

	return nil
}

// GetByID retrieves a role by ID.
func (r *roleRepository) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	return r.getBy(ctx, `WHERE id = ?`, id)
}

// GetByName retrieves a role by name.
func (r *roleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	return r.getBy(ctx, `WHERE name = ?`, name)
}

func (r *roleRepository) getBy(ctx context.Context, where string, arg interface{}) (*domain.Role, error) {
	query := `SELECT id, name, description, home_route, created_at, updated_at FROM roles ` + where

	role := &domain.Role{}
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&role.ID,
		&role.Name,
		&role.Description,
		&role.HomeRoute,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	role.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	role.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return role, nil
}

// Update updates an existing role.
func (r *roleRepository) Update(ctx context.Context, role *domain.Role) error {
	role.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx,
		`UPDATE roles SET name = ?, description = ?, home_route = ?, updated_at = ? WHERE id = ?`,
		role.Name,
		role.Description,
		role.HomeRoute,
		role.UpdatedAt.Format(time.RFC3339),
		role.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: role name already exists", domain.ErrRoleAlreadyExists)
		}
		return fmt.Errorf("failed to update role: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

// Delete deletes a role by ID. The user_roles and role_rights cascades
// detach every membership so the resolver never traverses a dangling join.
func (r *roleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

// List returns all roles.
func (r *roleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, home_route, created_at, updated_at FROM roles ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*domain.Role
	for rows.Next() {
		role := &domain.Role{}
		var createdAt, updatedAt string
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.HomeRoute, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		role.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		role.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}
	return roles, nil
}

// AttachRight attaches a right to a role. Idempotent via INSERT OR IGNORE.
func (r *roleRepository) AttachRight(ctx context.Context, roleID, rightID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO role_rights (role_id, right_id) VALUES (?, ?)`,
		roleID, rightID,
	)
	if err != nil {
		return fmt.Errorf("failed to attach right: %w", err)
	}
	return nil
}

// DetachRight detaches a right from a role.
func (r *roleRepository) DetachRight(ctx context.Context, roleID, rightID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM role_rights WHERE role_id = ? AND right_id = ?`,
		roleID, rightID,
	)
	if err != nil {
		return fmt.Errorf("failed to detach right: %w", err)
	}
	return nil
}

// ListRightNames returns the names of all rights attached to a role.
func (r *roleRepository) ListRightNames(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT rights.name
		FROM role_rights
		JOIN rights ON rights.id = role_rights.right_id
		WHERE role_rights.role_id = ?
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
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM user_roles WHERE role_id = ? ORDER BY user_id`,
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
