package model

import "time"

// LeadStatus tracks where a registrant sits in the intake funnel.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "New"
	LeadStatusContacted LeadStatus = "Contacted"
	LeadStatusConverted LeadStatus = "Converted"
	LeadStatusRejected  LeadStatus = "Rejected"
)

// Valid reports whether s is a known lead status.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusConverted, LeadStatusRejected:
		return true
	}
	return false
}

// Lead source values.
const (
	LeadSourcePublic = "public"
	LeadSourceAdmin  = "admin"
)

// Lead is a prospective customer's registration record. AssignedTo is a weak
// reference to an admin account: the admin may be deleted without touching
// the lead.
type Lead struct {
	ID             int64      `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	Email          string     `json:"email" db:"email"`
	Phone          string     `json:"phone" db:"phone"`
	Course         string     `json:"course" db:"course"`
	Message        string     `json:"message,omitempty" db:"message"`
	Status         LeadStatus `json:"status" db:"status"`
	AssignedTo     *int64     `json:"assigned_to,omitempty" db:"assigned_to"`
	Notes          string     `json:"notes,omitempty" db:"notes"`
	ContactedScore int        `json:"contacted_score" db:"contacted_score"`
	Source         string     `json:"source" db:"source"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// LeadFilter narrows lead list queries. Zero values mean "no filter".
type LeadFilter struct {
	Status     LeadStatus
	AssignedTo *int64
	Query      string // substring match over name, email, phone
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// LeadUpdate carries a partial update. Nil fields are left untouched; this is
// what makes PATCH semantics and per-field audit deltas possible.
type LeadUpdate struct {
	Name           *string     `json:"name,omitempty"`
	Email          *string     `json:"email,omitempty"`
	Phone          *string     `json:"phone,omitempty"`
	Course         *string     `json:"course,omitempty"`
	Message        *string     `json:"message,omitempty"`
	Status         *LeadStatus `json:"status,omitempty"`
	AssignedTo     *int64      `json:"assigned_to,omitempty"`
	ClearAssignee  bool        `json:"clear_assignee,omitempty"`
	Notes          *string     `json:"notes,omitempty"`
	ContactedScore *int        `json:"contacted_score,omitempty"`
}
