package model

import "time"

// Resources and actions that appear in the permission grid and in policy
// decisions.
const (
	ResourceUsers     = "users"
	ResourceLeads     = "leads"
	ResourceAdmins    = "admins"
	ResourceAnalytics = "analytics"
	ResourceAuditLogs = "auditLogs"

	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionView   = "view"
)

// ValidResource reports whether name is one of the known grid resources.
func ValidResource(name string) bool {
	switch name {
	case ResourceUsers, ResourceLeads, ResourceAdmins, ResourceAnalytics, ResourceAuditLogs:
		return true
	}
	return false
}

// Grid maps resource → action → allowed. It is stored as a JSON column on the
// grant row.
type Grid map[string]map[string]bool

// Allows reports whether the grid grants the given resource/action pair.
// Missing entries deny.
func (g Grid) Allows(resource, action string) bool {
	if g == nil {
		return false
	}
	return g[resource][action]
}

// PermissionGrant is the per-role capability grid. Exactly one row exists per
// role at steady state; the role name is the unique key.
type PermissionGrant struct {
	ID        int64     `json:"id" db:"id"`
	Role      Role      `json:"role" db:"role"`
	Grid      Grid      `json:"grid"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func crud(create, read, update, del bool) map[string]bool {
	return map[string]bool{
		ActionCreate: create,
		ActionRead:   read,
		ActionUpdate: update,
		ActionDelete: del,
	}
}

// DefaultGrants returns the fixed grids seeded on first startup. Any change
// to the role set must be mirrored here or policy evaluation fails closed.
func DefaultGrants() map[Role]Grid {
	return map[Role]Grid{
		RoleSuperAdmin: {
			ResourceUsers:     crud(true, true, true, true),
			ResourceLeads:     crud(true, true, true, true),
			ResourceAdmins:    crud(true, true, true, true),
			ResourceAnalytics: {ActionView: true},
			ResourceAuditLogs: {ActionView: true},
		},
		RoleAdmin: {
			ResourceUsers:     crud(true, true, true, true),
			ResourceLeads:     crud(true, true, true, true),
			ResourceAdmins:    crud(false, true, false, false),
			ResourceAnalytics: {ActionView: true},
			ResourceAuditLogs: {ActionView: false},
		},
		RoleViewMode: {
			ResourceUsers:     crud(false, false, false, false),
			ResourceLeads:     crud(false, true, false, false),
			ResourceAdmins:    crud(false, false, false, false),
			ResourceAnalytics: {ActionView: false},
			ResourceAuditLogs: {ActionView: false},
		},
		RoleEditMode: {
			ResourceUsers:     crud(false, false, false, false),
			ResourceLeads:     crud(true, true, true, false),
			ResourceAdmins:    crud(false, false, false, false),
			ResourceAnalytics: {ActionView: false},
			ResourceAuditLogs: {ActionView: false},
		},
	}
}
