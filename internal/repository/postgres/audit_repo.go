package postgres

import (
	"context"
	"fmt"

	"github.com/custos-id/custos/internal/domain"
	"github.com/custos-id/custos/internal/repository"
)

// auditRepository implements repository.AuditRepository for PostgreSQL.
type auditRepository struct {
	db *DB
}

// NewAuditRepository creates a new PostgreSQL audit repository.
func NewAuditRepository(db *DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

// Record appends an audit event.
func (r *auditRepository) Record(ctx context.Context, event *domain.AuditEvent) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO audit_events (action, actor_id, subject_id, detail, remote_addr, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		string(event.Action),
		event.ActorID,
		event.SubjectID,
		event.Detail,
		event.RemoteAddr,
		event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}

	return nil
}

// ListAfter returns up to limit events with ID greater than afterID,
// oldest first.
func (r *auditRepository) ListAfter(ctx context.Context, afterID int64, limit int) ([]*domain.AuditEvent, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, action, actor_id, subject_id, detail, remote_addr, created_at
		FROM audit_events
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []*domain.AuditEvent
	for rows.Next() {
		event := &domain.AuditEvent{}
		var action string
		if err := rows.Scan(&event.ID, &action, &event.ActorID, &event.SubjectID, &event.Detail, &event.RemoteAddr, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		event.Action = domain.AuditAction(action)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

// DeleteThrough deletes all events with ID up to and including throughID.
func (r *auditRepository) DeleteThrough(ctx context.Context, throughID int64) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM audit_events WHERE id <= $1`, throughID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ensure auditRepository implements repository.AuditRepository.
var _ repository.AuditRepository = (*auditRepository)(nil)
