// Package domain contains the core business entities for Custos.
package domain

import (
	"time"
)

// AuditAction identifies the kind of event recorded in the audit trail.
type AuditAction string

const (
	AuditLoginSucceeded  AuditAction = "login.succeeded"
	AuditLoginFailed     AuditAction = "login.failed"
	AuditTokenRefreshed  AuditAction = "token.refreshed"
	AuditUserCreated     AuditAction = "user.created"
	AuditUserUpdated     AuditAction = "user.updated"
	AuditUserDeleted     AuditAction = "user.deleted"
	AuditRoleAttached    AuditAction = "role.attached"
	AuditRoleDetached    AuditAction = "role.detached"
	AuditRoleDeleted     AuditAction = "role.deleted"
	AuditRightAttached   AuditAction = "right.attached"
	AuditRightDetached   AuditAction = "right.detached"
	AuditRightDeleted    AuditAction = "right.deleted"
)

// AuditEvent is one record in the audit trail. Events are append-only and
// periodically archived to object storage.
type AuditEvent struct {
	// ID is the unique identifier for the event (auto-generated).
	ID int64 `json:"id"`

	// Action is the kind of event.
	Action AuditAction `json:"action"`

	// ActorID is the user that performed the action, 0 when unknown
	// (e.g. a failed login for a nonexistent username).
	ActorID int64 `json:"actor_id,omitempty"`

	// SubjectID is the user/role/right the action applied to, if any.
	SubjectID int64 `json:"subject_id,omitempty"`

	// Detail is free-form context, e.g. the attempted username.
	Detail string `json:"detail,omitempty"`

	// RemoteAddr is the client address, when recorded at the HTTP boundary.
	RemoteAddr string `json:"remote_addr,omitempty"`

	// CreatedAt is the timestamp when the event occurred.
	CreatedAt time.Time `json:"created_at"`
}

// NewAuditEvent creates an audit event stamped with the current time.
func NewAuditEvent(action AuditAction, actorID, subjectID int64, detail string) *AuditEvent {
	return &AuditEvent{
		Action:    action,
		ActorID:   actorID,
		SubjectID: subjectID,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
}
