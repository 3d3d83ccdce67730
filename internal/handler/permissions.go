package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leadrail/leadrail/internal/model"
	"github.com/leadrail/leadrail/internal/server/middleware"
	"github.com/leadrail/leadrail/internal/service"
	"github.com/leadrail/leadrail/internal/store"
)

// PermissionHandler serves the per-role permission grid. Only super admins
// may read or rewrite grids, and the superadmin row itself is immutable.
type PermissionHandler struct {
	store    *store.Store
	recorder *service.Recorder
	logger   *slog.Logger
}

// NewPermissionHandler creates a PermissionHandler.
func NewPermissionHandler(st *store.Store, recorder *service.Recorder, logger *slog.Logger) *PermissionHandler {
	return &PermissionHandler{store: st, recorder: recorder, logger: logger}
}

// List returns the stored grants for every role.
// GET /api/v1/permissions
func (h *PermissionHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetAdmin(r.Context())
	if actor.Role != model.RoleSuperAdmin {
		writeError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	grants, err := h.store.ListGrants(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, err, "Permissions")
		return
	}
	if grants == nil {
		grants = []model.PermissionGrant{}
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: grants,
		Meta:     &model.ResponseMeta{Count: len(grants)},
	})
}

type setGrantRequest struct {
	Permissions model.Grid `json:"permissions"`
}

// Set replaces the permission grid for one role.
// PUT /api/v1/permissions/{role}
func (h *PermissionHandler) Set(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetAdmin(r.Context())
	if actor.Role != model.RoleSuperAdmin {
		writeError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	role := model.Role(chi.URLParam(r, "role"))
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid role: "+string(role))
		return
	}
	if role == model.RoleSuperAdmin {
		writeError(w, http.StatusBadRequest, "Super admin permissions cannot be modified")
		return
	}

	var req setGrantRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Permissions == nil {
		writeError(w, http.StatusBadRequest, "permissions is required")
		return
	}
	for resource := range req.Permissions {
		if !model.ValidResource(resource) {
			writeError(w, http.StatusBadRequest, "Unknown resource: "+resource)
			return
		}
	}

	before, err := h.store.GetGrant(r.Context(), role)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writeStoreError(w, h.logger, err, "Permissions")
		return
	}

	if err := h.store.SetGrant(r.Context(), role, req.Permissions); err != nil {
		writeStoreError(w, h.logger, err, "Permissions")
		return
	}

	grant, err := h.store.GetGrant(r.Context(), role)
	if err != nil {
		writeStoreError(w, h.logger, err, "Permissions")
		return
	}

	metadata := map[string]interface{}{
		"role": string(role),
		"to":   grant.Grid,
	}
	if before != nil {
		metadata["from"] = before.Grid
	}
	h.recorder.Audit(actor.ID, model.AuditActionUpdate, model.TargetGrant, metadata)

	writeJSON(w, http.StatusOK, grant)
}
