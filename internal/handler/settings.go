package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/leadrail/leadrail/internal/model"
	"github.com/leadrail/leadrail/internal/server/middleware"
	"github.com/leadrail/leadrail/internal/service"
	"github.com/leadrail/leadrail/internal/store"
)

// SettingHandler serves the operational toggles. Any authenticated admin may
// read; only super admins may write.
type SettingHandler struct {
	store    *store.Store
	recorder *service.Recorder
	logger   *slog.Logger
}

// NewSettingHandler creates a SettingHandler.
func NewSettingHandler(st *store.Store, recorder *service.Recorder, logger *slog.Logger) *SettingHandler {
	return &SettingHandler{store: st, recorder: recorder, logger: logger}
}

type settingsResponse struct {
	RestrictLeadEditing bool `json:"restrictLeadEditing"`
}

// Get returns the current settings. An absent toggle reads as false.
// GET /api/v1/settings
func (h *SettingHandler) Get(w http.ResponseWriter, r *http.Request) {
	restrict, err := h.store.RestrictLeadEditing(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, err, "Settings")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{RestrictLeadEditing: restrict})
}

type updateSettingsRequest struct {
	RestrictLeadEditing *bool `json:"restrictLeadEditing"`
}

// Update writes settings. The audit entry records the old and new value of
// each toggle that changed.
// PUT /api/v1/settings
func (h *SettingHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetAdmin(r.Context())
	if actor.Role != model.RoleSuperAdmin {
		writeError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	var req updateSettingsRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.RestrictLeadEditing == nil {
		writeError(w, http.StatusBadRequest, "restrictLeadEditing is required")
		return
	}

	before, err := h.store.RestrictLeadEditing(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, err, "Settings")
		return
	}

	value := *req.RestrictLeadEditing
	if err := h.store.SetSetting(r.Context(), store.SettingRestrictLeadEditing, strconv.FormatBool(value)); err != nil {
		writeStoreError(w, h.logger, err, "Settings")
		return
	}

	if before != value {
		h.recorder.Audit(actor.ID, model.AuditActionUpdate, model.TargetSetting, map[string]interface{}{
			"setting": store.SettingRestrictLeadEditing,
			"from":    before,
			"to":      value,
		})
	}

	writeJSON(w, http.StatusOK, settingsResponse{RestrictLeadEditing: value})
}
