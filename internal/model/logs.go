package model

import "time"

// Audit action tags.
const (
	AuditActionLogin      = "login"
	AuditActionCreate     = "create"
	AuditActionUpdate     = "update"
	AuditActionDelete     = "delete"
	AuditActionBulkUpdate = "bulk_update"
	AuditActionBulkDelete = "bulk_delete"
)

// Audit target entity types.
const (
	TargetLead    = "lead"
	TargetAdmin   = "admin"
	TargetSetting = "setting"
	TargetGrant   = "permission_grant"
)

// FieldChange is a single before/after value pair inside an update audit
// entry's metadata.
type FieldChange struct {
	From interface{} `json:"from"`
	To   interface{} `json:"to"`
}

// AuditLogEntry is the immutable record of a privileged mutation. Metadata
// carries a pre-mutation snapshot of the target and, for updates, a
// field-by-field {from,to} delta under "updateFields".
type AuditLogEntry struct {
	ID         int64                  `json:"id" db:"id"`
	ActorID    int64                  `json:"actor_id" db:"actor_id"`
	Action     string                 `json:"action" db:"action"`
	TargetType string                 `json:"target_type" db:"target_type"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at" db:"created_at"`
}

// ActivityLogEntry records dashboard navigation for usage analytics. Lighter
// weight than AuditLogEntry; carries no before/after state.
type ActivityLogEntry struct {
	ID        int64     `json:"id" db:"id"`
	ActorID   int64     `json:"actor_id" db:"actor_id"`
	Action    string    `json:"action" db:"action"`
	Page      string    `json:"page" db:"page"`
	Details   string    `json:"details,omitempty" db:"details"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// LoginHistoryEntry records every authentication attempt. ActorID is nil when
// no account matched the supplied identifier.
type LoginHistoryEntry struct {
	ID        int64     `json:"id" db:"id"`
	ActorID   *int64    `json:"actor_id,omitempty" db:"actor_id"`
	IP        string    `json:"ip" db:"ip"`
	UserAgent string    `json:"user_agent" db:"user_agent"`
	Success   bool      `json:"success" db:"success"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// LogFilter narrows log list queries. Zero values mean "no filter".
type LogFilter struct {
	ActorID *int64
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}
