package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/leadrail/leadrail/internal/model"
	"github.com/leadrail/leadrail/internal/store"
)

var (
	// ErrForbidden means the actor's role may not perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrRestricted means the operation was denied specifically by the
	// restricted-editing gate: the lead is not assigned to the actor. It is
	// distinguishable from ErrForbidden so the dashboard can explain why.
	ErrRestricted = errors.New("forbidden: lead editing is restricted to the assigned admin")
)

// routeGates is the fixed role whitelist per (resource, action). It is the
// single authoritative source for endpoint access and is not mutable at
// runtime; the stored permission grid only drives the analytics and
// audit-log view decisions (see Authorize) and the dashboard's own UI.
var routeGates = map[string]map[string][]model.Role{
	model.ResourceLeads: {
		model.ActionCreate: {model.RoleSuperAdmin, model.RoleAdmin, model.RoleEditMode},
		model.ActionRead:   {model.RoleSuperAdmin, model.RoleAdmin, model.RoleViewMode, model.RoleEditMode},
		model.ActionUpdate: {model.RoleSuperAdmin, model.RoleAdmin, model.RoleEditMode},
		model.ActionDelete: {model.RoleSuperAdmin, model.RoleAdmin},
	},
	model.ResourceUsers: {
		model.ActionCreate: {model.RoleSuperAdmin, model.RoleAdmin},
		model.ActionRead:   {model.RoleSuperAdmin, model.RoleAdmin},
		model.ActionUpdate: {model.RoleSuperAdmin, model.RoleAdmin},
		model.ActionDelete: {model.RoleSuperAdmin, model.RoleAdmin},
	},
	model.ResourceAdmins: {
		model.ActionCreate: {model.RoleSuperAdmin},
		model.ActionRead:   {model.RoleSuperAdmin, model.RoleAdmin},
		model.ActionUpdate: {model.RoleSuperAdmin},
		model.ActionDelete: {model.RoleSuperAdmin},
	},
}

// Policy decides whether a specific actor may perform a specific operation,
// combining the static role whitelists, the stored permission grid for the
// two view capabilities, and the global restricted-editing toggle.
type Policy struct {
	store *store.Store
}

// NewPolicy creates a Policy evaluating against st.
func NewPolicy(st *store.Store) *Policy {
	return &Policy{store: st}
}

// Authorize returns nil when the actor may perform action on resource.
// For lead mutations, pass the target lead so the restricted-editing gate can
// compare its assignee against the actor; pass nil for non-lead operations
// and lead creation.
//
// Denials are ErrForbidden, or ErrRestricted when the ownership gate fired.
func (p *Policy) Authorize(ctx context.Context, actor *model.Admin, resource, action string, lead *model.Lead) error {
	// The view capabilities are the only grid-driven decisions. A missing
	// grant row fails closed.
	if resource == model.ResourceAnalytics || resource == model.ResourceAuditLogs {
		grant, err := p.store.GetGrant(ctx, actor.Role)
		if err != nil {
			return ErrForbidden
		}
		if !grant.Grid.Allows(resource, action) {
			return ErrForbidden
		}
		return nil
	}

	actions, ok := routeGates[resource]
	if !ok {
		return ErrForbidden
	}
	if !roleAllowed(actions[action], actor.Role) {
		return ErrForbidden
	}

	if resource == model.ResourceLeads && isMutation(action) && lead != nil {
		return p.checkRestriction(ctx, actor, lead)
	}
	return nil
}

// checkRestriction applies the ownership gate: when restrictLeadEditing is
// on, non-privileged roles may only touch leads assigned to them. Comparison
// is by admin ID, and an unassigned lead is never editable under restriction.
func (p *Policy) checkRestriction(ctx context.Context, actor *model.Admin, lead *model.Lead) error {
	restricted, err := p.store.RestrictLeadEditing(ctx)
	if err != nil {
		return fmt.Errorf("read restriction setting: %w", err)
	}
	if !restricted || actor.Role.Privileged() {
		return nil
	}
	if lead.AssignedTo == nil || *lead.AssignedTo != actor.ID {
		return ErrRestricted
	}
	return nil
}

func roleAllowed(allowed []model.Role, role model.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

func isMutation(action string) bool {
	return action == model.ActionUpdate || action == model.ActionDelete
}
