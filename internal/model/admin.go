package model

import "time"

// Role is one of the four fixed capability tiers an admin account can hold.
// The set is closed: adding a role requires a matching default permission
// grant in DefaultGrants.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleViewMode   Role = "viewmode"
	RoleEditMode   Role = "editmode"
)

// AllRoles lists every valid role. Order matters for seeding and display.
var AllRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleViewMode, RoleEditMode}

// Valid reports whether r is one of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleViewMode, RoleEditMode:
		return true
	}
	return false
}

// Privileged reports whether the role bypasses the restricted-editing gate.
func (r Role) Privileged() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// Admin represents a staff account that can authenticate against the
// dashboard API. Passwords are stored as bcrypt hashes.
type Admin struct {
	ID           int64      `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email,omitempty" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // bcrypt hash, never expose
	Role         Role       `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedBy    *int64     `json:"created_by,omitempty" db:"created_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
