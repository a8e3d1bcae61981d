package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/custos-id/custos/internal/domain"
	"github.com/custos-id/custos/internal/repository"
)

// rightRepository implements repository.RightRepository for SQLite.
type rightRepository struct {
	db *DB
}

// NewRightRepository creates a new SQLite right repository.
func NewRightRepository(db *DB) repository.RightRepository {
	return &rightRepository{db: db}
}

// Create creates a new right.
func (r *rightRepository) Create(ctx context.Context, right *domain.Right) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO rights (name, description, created_at) VALUES (?, ?, ?)`,
		right.Name,
		right.Description,
		right.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: right name already exists", domain.ErrRightAlreadyExists)
		}
		return fmt.Errorf("failed to create right: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	right.ID = id

	return nil
}

// GetByID retrieves a right by ID.
func (r *rightRepository) GetByID(ctx context.Context, id int64) (*domain.Right, error) {
	return r.getBy(ctx, `WHERE id = ?`, id)
}

// GetByName retrieves a right by name.
func (r *rightRepository) GetByName(ctx context.Context, name string) (*domain.Right, error) {
	return r.getBy(ctx, `WHERE name = ?`, name)
}

func (r *rightRepository) getBy(ctx context.Context, where string, arg interface{}) (*domain.Right, error) {
	right := &domain.Right{}
	var createdAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM rights `+where, arg,
	).Scan(&right.ID, &right.Name, &right.Description, &createdAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrRightNotFound
		}
		return nil, fmt.Errorf("failed to get right: %w", err)
	}

	right.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return right, nil
}

// Delete deletes a right by ID. The role_rights cascade removes it from
// every role's right-set in the same statement.
func (r *rightRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rights WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete right: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrRightNotFound
	}
	return nil
}

// List returns all rights.
func (r *rightRepository) List(ctx context.Context) ([]*domain.Right, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM rights ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rights: %w", err)
	}
	defer rows.Close()

	var rights []*domain.Right
	for rows.Next() {
		right := &domain.Right{}
		var createdAt string
		if err := rows.Scan(&right.ID, &right.Name, &right.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan right: %w", err)
		}
		right.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		rights = append(rights, right)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rights: %w", err)
	}
	return rights, nil
}

// Ensure rightRepository implements repository.RightRepository.
var _ repository.RightRepository = (*rightRepository)(nil)
