package handler

import (
	"log/slog"
	"net/http"

	"github.com/leadrail/leadrail/internal/model"
	"github.com/leadrail/leadrail/internal/server/middleware"
	"github.com/leadrail/leadrail/internal/service"
	"github.com/leadrail/leadrail/internal/store"
)

// LogHandler serves the audit, activity, and login history listings, plus
// the endpoint the frontend uses to report page activity. All three
// listings sit behind the auditLogs.view grant.
type LogHandler struct {
	store    *store.Store
	policy   *service.Policy
	recorder *service.Recorder
	logger   *slog.Logger
}

// NewLogHandler creates a LogHandler.
func NewLogHandler(st *store.Store, policy *service.Policy, recorder *service.Recorder, logger *slog.Logger) *LogHandler {
	return &LogHandler{store: st, policy: policy, recorder: recorder, logger: logger}
}

func (h *LogHandler) authorizeView(w http.ResponseWriter, r *http.Request) bool {
	actor := middleware.GetAdmin(r.Context())
	if err := h.policy.Authorize(r.Context(), actor, model.ResourceAuditLogs, model.ActionView, nil); err != nil {
		writePolicyError(w, h.logger, err)
		return false
	}
	return true
}

// AuditLogs lists audit entries, newest first.
// GET /api/v1/audit-logs
func (h *LogHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeView(w, r) {
		return
	}

	filter := logFilter(r)
	entries, total, err := h.store.ListAuditLogs(r.Context(), filter)
	if err != nil {
		writeStoreError(w, h.logger, err, "Audit logs")
		return
	}
	if entries == nil {
		entries = []model.AuditLogEntry{}
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: entries,
		Meta: &model.ResponseMeta{
			Count:  len(entries),
			Total:  &total,
			Limit:  filter.Limit,
			Offset: filter.Offset,
		},
	})
}

// ActivityLogs lists page activity entries, newest first.
// GET /api/v1/activity-logs
func (h *LogHandler) ActivityLogs(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeView(w, r) {
		return
	}

	filter := logFilter(r)
	entries, total, err := h.store.ListActivityLogs(r.Context(), filter)
	if err != nil {
		writeStoreError(w, h.logger, err, "Activity logs")
		return
	}
	if entries == nil {
		entries = []model.ActivityLogEntry{}
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: entries,
		Meta: &model.ResponseMeta{
			Count:  len(entries),
			Total:  &total,
			Limit:  filter.Limit,
			Offset: filter.Offset,
		},
	})
}

// LoginHistory lists login attempts, newest first.
// GET /api/v1/login-history
func (h *LogHandler) LoginHistory(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeView(w, r) {
		return
	}

	filter := logFilter(r)
	entries, total, err := h.store.ListLoginHistory(r.Context(), filter)
	if err != nil {
		writeStoreError(w, h.logger, err, "Login history")
		return
	}
	if entries == nil {
		entries = []model.LoginHistoryEntry{}
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: entries,
		Meta: &model.ResponseMeta{
			Count:  len(entries),
			Total:  &total,
			Limit:  filter.Limit,
			Offset: filter.Offset,
		},
	})
}

type activityRequest struct {
	Action  string `json:"action"`
	Page    string `json:"page"`
	Details string `json:"details"`
}

// RecordActivity accepts a page activity beacon from the frontend. The
// write is best effort; the endpoint acknowledges immediately.
// POST /api/v1/activity
func (h *LogHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetAdmin(r.Context())

	var req activityRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Action == "" {
		writeError(w, http.StatusBadRequest, "action is required")
		return
	}

	h.recorder.Activity(actor.ID, req.Action, req.Page, req.Details)

	writeJSON(w, http.StatusAccepted, map[string]interface{}{"success": true})
}
