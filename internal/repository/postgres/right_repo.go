package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/custos-id/custos/internal/domain"
	"github.com/custos-id/custos/internal/repository"
)

// rightRepository implements repository.RightRepository for PostgreSQL.
type rightRepository struct {
	db *DB
}

// NewRightRepository creates a new PostgreSQL right repository.
func NewRightRepository(db *DB) repository.RightRepository {
	return &rightRepository{db: db}
}

// Create creates a new right.
func (r *rightRepository) Create(ctx context.Context, right *domain.Right) error {
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO rights (name, description, created_at) VALUES ($1, $2, $3) RETURNING id`,
		right.Name,
		right.Description,
		right.CreatedAt,
	).Scan(&right.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: right name already exists", domain.ErrRightAlreadyExists)
		}
		return fmt.Errorf("failed to create right: %w", err)
	}

	return nil
}

// GetByID retrieves a right by ID.
func (r *rightRepository) GetByID(ctx context.Context, id int64) (*domain.Right, error) {
	return r.getBy(ctx, `WHERE id = $1`, id)
}

// GetByName retrieves a right by name.
func (r *rightRepository) GetByName(ctx context.Context, name string) (*domain.Right, error) {
	return r.getBy(ctx, `WHERE name = $1`, name)
}

func (r *rightRepository) getBy(ctx context.Context, where string, arg interface{}) (*domain.Right, error) {
	right := &domain.Right{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, name, description, created_at FROM rights `+where, arg,
	).Scan(&right.ID, &right.Name, &right.Description, &right.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRightNotFound
		}
		return nil, fmt.Errorf("failed to get right: %w", err)
	}
	return right, nil
}

// Delete deletes a right by ID. The role_rights cascade removes it from
// every role's right-set in the same statement.
func (r *rightRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM rights WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete right: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRightNotFound
	}
	return nil
}

// List returns all rights.
func (r *rightRepository) List(ctx context.Context) ([]*domain.Right, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, name, description, created_at FROM rights ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rights: %w", err)
	}
	defer rows.Close()

	var rights []*domain.Right
	for rows.Next() {
		right := &domain.Right{}
		if err := rows.Scan(&right.ID, &right.Name, &right.Description, &right.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan right: %w", err)
		}
		rights = append(rights, right)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rights: %w", err)
	}
	return rights, nil
}

// Ensure rightRepository implements repository.RightRepository.
var _ repository.RightRepository = (*rightRepository)(nil)
