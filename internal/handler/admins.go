package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leadrail/leadrail/internal/model"
	"github.com/leadrail/leadrail/internal/server/middleware"
	"github.com/leadrail/leadrail/internal/service"
	"github.com/leadrail/leadrail/internal/store"
)

// AdminHandler serves admin account management. Reads are open to
// privileged roles, mutations to super admins only; the policy evaluator
// enforces both.
type AdminHandler struct {
	store    *store.Store
	policy   *service.Policy
	recorder *service.Recorder
	logger   *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(st *store.Store, policy *service.Policy, recorder *service.Recorder, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{store: st, policy: policy, recorder: recorder, logger: logger}
}

// List returns every admin account. Password hashes never serialize.
// GET /api/v1/admins
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetAdmin(r.Context())
	if err := h.policy.Authorize(r.Context(), actor, model.ResourceAdmins, model.ActionRead, nil); err != nil {
		writePolicyError(w, h.logger, err)
		return
	}

	admins, err := h.store.ListAdmins(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, err, "Admins")
		return
	}
	if admins == nil {
		admins = []model.Admin{}
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: admins,
		Meta:     &model.ResponseMeta{Count: len(admins)},
	})
}

type createAdminRequest struct {
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

// Create registers a new admin account.
// POST /api/v1/admins
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetAdmin(r.Context())
	if err := h.policy.Authorize(r.Context(), actor, model.ResourceAdmins, model.ActionCreate, nil); err != nil {
		writePolicyError(w, h.logger, err)
		return
	}

	var req createAdminRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}
	if !req.Role.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid role: "+string(req.Role))
		return
	}

	hash, err := service.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	admin := &model.Admin{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
		CreatedBy:    &actor.ID,
	}
	if err := h.store.CreateAdmin(r.Context(), admin); err != nil {
		writeStoreError(w, h.logger, err, "Admin")
		return
	}

	h.recorder.Audit(actor.ID, model.AuditActionCreate, model.TargetAdmin, map[string]interface{}{
		"admin": map[string]interface{}{
			"id":       admin.ID,
			"username": admin.Username,
			"role":     string(admin.Role),
		},
	})

	writeJSON(w, http.StatusCreated, admin)
}

type updateAdminRequest struct {
	Username *string     `json:"username"`
	Email    *string     `json:"email"`
	Password *string     `json:"password"`
	Role     *model.Role `json:"role"`
	IsActive *bool       `json:"is_active"`
}

// Update modifies an admin account. A super admin cannot demote or
// deactivate their own account through this endpoint.
// PUT /api/v1/admins/{adminID}
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetAdmin(r.Context())
	if err := h.policy.Authorize(r.Context(), actor, model.ResourceAdmins, model.ActionUpdate, nil); err != nil {
		writePolicyError(w, h.logger, err)
		return
	}

	id, ok := pathID(w, chi.URLParam(r, "adminID"))
	if !ok {
		return
	}

	var req updateAdminRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Role != nil && !req.Role.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid role: "+string(*req.Role))
		return
	}
	if req.Password != nil && len(*req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	before, err := h.store.GetAdmin(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, err, "Admin")
		return
	}

	if id == actor.ID {
		if req.Role != nil && *req.Role != actor.Role {
			writeError(w, http.StatusBadRequest, "Cannot change your own role")
			return
		}
		if req.IsActive != nil && !*req.IsActive {
			writeError(w, http.StatusBadRequest, "Cannot deactivate your own account")
			return
		}
	}

	after := *before
	if req.Username != nil {
		after.Username = *req.Username
	}
	if req.Email != nil {
		after.Email = *req.Email
	}
	if req.Role != nil {
		after.Role = *req.Role
	}
	if req.IsActive != nil {
		after.IsActive = *req.IsActive
	}
	if req.Password != nil {
		hash, err := service.HashPassword(*req.Password)
		if err != nil {
			h.logger.Error("hash password", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		after.PasswordHash = hash
	}

	if err := h.store.UpdateAdmin(r.Context(), &after); err != nil {
		writeStoreError(w, h.logger, err, "Admin")
		return
	}

	changes := service.AdminChanges(before, &after)
	if len(changes) > 0 {
		h.recorder.Audit(actor.ID, model.AuditActionUpdate, model.TargetAdmin, map[string]interface{}{
			"admin": map[string]interface{}{
				"id":       after.ID,
				"username": after.Username,
			},
			"updateFields": changes,
		})
	}

	writeJSON(w, http.StatusOK, &after)
}

// Delete removes an admin account. Self-deletion is rejected.
// DELETE /api/v1/admins/{adminID}
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetAdmin(r.Context())
	if err := h.policy.Authorize(r.Context(), actor, model.ResourceAdmins, model.ActionDelete, nil); err != nil {
		writePolicyError(w, h.logger, err)
		return
	}

	id, ok := pathID(w, chi.URLParam(r, "adminID"))
	if !ok {
		return
	}
	if id == actor.ID {
		writeError(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	admin, err := h.store.GetAdmin(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, err, "Admin")
		return
	}

	if err := h.store.DeleteAdmin(r.Context(), id); err != nil {
		writeStoreError(w, h.logger, err, "Admin")
		return
	}

	h.recorder.Audit(actor.ID, model.AuditActionDelete, model.TargetAdmin, map[string]interface{}{
		"admin": map[string]interface{}{
			"id":       admin.ID,
			"username": admin.Username,
			"role":     string(admin.Role),
		},
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Admin deleted",
	})
}
