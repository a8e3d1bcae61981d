package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/custos-id/custos/internal/domain"
	"github.com/custos-id/custos/internal/repository"
)

// auditRepository implements repository.AuditRepository for SQLite.
type auditRepository struct {
	db *DB
}

// NewAuditRepository creates a new SQLite audit repository.
func NewAuditRepository(db *DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

// Record appends an audit event.
func (r *auditRepository) Record(ctx context.Context, event *domain.AuditEvent) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (action, actor_id, subject_id, detail, remote_addr, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		string(event.Action),
		event.ActorID,
		event.SubjectID,
		event.Detail,
		event.RemoteAddr,
		event.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	event.ID = id

	return nil
}

// ListAfter returns up to limit events with ID greater than afterID,
// oldest first.
func (r *auditRepository) ListAfter(ctx context.Context, afterID int64, limit int) ([]*domain.AuditEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, action, actor_id, subject_id, detail, remote_addr, created_at
		FROM audit_events
		WHERE id > ?
		ORDER BY id
		LIMIT ?
	`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []*domain.AuditEvent
	for rows.Next() {
		event := &domain.AuditEvent{}
		var action, createdAt string
		if err := rows.Scan(&event.ID, &action, &event.ActorID, &event.SubjectID, &event.Detail, &event.RemoteAddr, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		event.Action = domain.AuditAction(action)
		event.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

// DeleteThrough deletes all events with ID up to and including throughID.
func (r *auditRepository) DeleteThrough(ctx context.Context, throughID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM audit_events WHERE id <= ?`, throughID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit events: %w", err)
	}
	deleted, _ := result.RowsAffected()
	return deleted, nil
}

// Ensure auditRepository implements repository.AuditRepository.
var _ repository.AuditRepository = (*auditRepository)(nil)
