package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leadrail/leadrail/internal/metrics"
	"github.com/leadrail/leadrail/internal/model"
	"github.com/leadrail/leadrail/internal/server/middleware"
	"github.com/leadrail/leadrail/internal/service"
	"github.com/leadrail/leadrail/internal/store"
)

// LeadHandler serves the admin-gated lead CRUD surface. Every mutation runs
// through the policy evaluator before touching the store and through the
// audit recorder after.
type LeadHandler struct {
	store    *store.Store
	policy   *service.Policy
	recorder *service.Recorder
	logger   *slog.Logger
}

// NewLeadHandler creates a LeadHandler.
func NewLeadHandler(st *store.Store, policy *service.Policy, recorder *service.Recorder, logger *slog.Logger) *LeadHandler {
	return &LeadHandler{store: st, policy: policy, recorder: recorder, logger: logger}
}

// List returns leads matching the query filters, newest first.
// GET /api/v1/leads
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetAdmin(r.Context())
	if err := h.policy.Authorize(r.Context(), actor, model.ResourceLeads, model.ActionRead, nil); err != nil {
		writePolicyError(w, h.logger, err)
		return
	}

	limit, offset := pagination(r)
	filter := model.LeadFilter{
		Status: model.LeadStatus(r.URL.Query().Get("status")),
		Query:  r.URL.Query().Get("q"),
		From:   queryTime(r, "from"),
		To:     queryTime(r, "to"),
		Limit:  limit,
		Offset: offset,
	}
	if assignedStr := r.URL.Query().Get("assigned_to"); assignedStr != "" {
		if assigned, err := strconv.ParseInt(assignedStr, 10, 64); err == nil {
			filter.AssignedTo = &assigned
		}
	}

	leads, total, err := h.store.ListLeads(r.Context(), filter)
	if err != nil {
		writeStoreError(w, h.logger, err, "Leads")
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: leads,
		Meta: &model.ResponseMeta{
			Count:  len(leads),
			Total:  &total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// Get returns a single lead by ID.
// GET /api/v1/leads/{leadID}
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetAdmin(r.Context())
	if err := h.policy.Authorize(r.Context(), actor, model.ResourceLeads, model.ActionRead, nil); err != nil {
		writePolicyError(w, h.logger, err)
		return
	}

	id, ok := pathID(w, chi.URLParam(r, "leadID"))
	if !ok {
		return
	}

	lead, err := h.store.GetLead(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, err, "Lead")
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

type createLeadRequest struct {
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Phone          string           `json:"phone"`
	Course         string           `json:"course"`
	Message        string           `json:"message"`
	Status         model.LeadStatus `json:"status"`
	AssignedTo     *int64           `json:"assigned_to"`
	Notes          string           `json:"notes"`
	ContactedScore int              `json:"contacted_score"`
}

// Create registers a lead on behalf of staff.
// POST /api/v1/leads
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetAdmin(r.Context())
	if err := h.policy.Authorize(r.Context(), actor, model.ResourceLeads, model.ActionCreate, nil); err != nil {
		writePolicyError(w, h.logger, err)
		return
	}

	var req createLeadRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if req.Email == "" && req.Phone == "" {
		writeError(w, http.StatusBadRequest, "Email or phone is required")
		return
	}
	if req.Status == "" {
		req.Status = model.LeadStatusNew
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status: "+string(req.Status))
		return
	}

	lead := &model.Lead{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Course:         req.Course,
		Message:        req.Message,
		Status:         req.Status,
		AssignedTo:     req.AssignedTo,
		Notes:          req.Notes,
		ContactedScore: req.ContactedScore,
		Source:         model.LeadSourceAdmin,
	}
	if err := h.store.CreateLead(r.Context(), lead); err != nil {
		writeStoreError(w, h.logger, err, "Lead")
		return
	}
	metrics.LeadsCreated.WithLabelValues(model.LeadSourceAdmin).Inc()

	h.recorder.Audit(actor.ID, model.AuditActionCreate, model.TargetLead, map[string]interface{}{
		"lead": service.LeadSnapshot(lead),
	})

	writeJSON(w, http.StatusCreated, lead)
}

// Update replaces a lead's mutable fields.
// PUT /api/v1/leads/{leadID}
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req createLeadRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if req.Status != "" && !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status: "+string(req.Status))
		return
	}

	h.mutateLead(w, r, func(lead *model.Lead) {
		lead.Name = req.Name
		lead.Email = req.Email
		lead.Phone = req.Phone
		lead.Course = req.Course
		lead.Message = req.Message
		if req.Status != "" {
			lead.Status = req.Status
		}
		lead.AssignedTo = req.AssignedTo
		lead.Notes = req.Notes
		lead.ContactedScore = req.ContactedScore
	})
}

// Patch applies a partial update to a lead.
// PATCH /api/v1/leads/{leadID}
func (h *LeadHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var req model.LeadUpdate
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status: "+string(*req.Status))
		return
	}

	h.mutateLead(w, r, func(lead *model.Lead) {
		applyLeadUpdate(lead, &req)
	})
}

// mutateLead is the shared PUT/PATCH path: load, authorize (including the
// restricted-editing gate, which applies identically to both verbs), apply,
// persist, and audit with a field-by-field delta.
func (h *LeadHandler) mutateLead(w http.ResponseWriter, r *http.Request, apply func(*model.Lead)) {
	actor := middleware.GetAdmin(r.Context())

	id, ok := pathID(w, chi.URLParam(r, "leadID"))
	if !ok {
		return
	}

	before, err := h.store.GetLead(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, err, "Lead")
		return
	}

	if err := h.policy.Authorize(r.Context(), actor, model.ResourceLeads, model.ActionUpdate, before); err != nil {
		writePolicyError(w, h.logger, err)
		return
	}

	after := *before
	apply(&after)

	if err := h.store.UpdateLead(r.Context(), &after); err != nil {
		writeStoreError(w, h.logger, err, "Lead")
		return
	}

	changes := service.LeadChanges(before, &after)
	if len(changes) > 0 {
		h.recorder.Audit(actor.ID, model.AuditActionUpdate, model.TargetLead, map[string]interface{}{
			"lead":         service.LeadSnapshot(before),
			"updateFields": changes,
		})
	}

	writeJSON(w, http.StatusOK, &after)
}

func applyLeadUpdate(lead *model.Lead, update *model.LeadUpdate) {
	if update.Name != nil {
		lead.Name = *update.Name
	}
	if update.Email != nil {
		lead.Email = *update.Email
	}
	if update.Phone != nil {
		lead.Phone = *update.Phone
	}
	if update.Course != nil {
		lead.Course = *update.Course
	}
	if update.Message != nil {
		lead.Message = *update.Message
	}
	if update.Status != nil {
		lead.Status = *update.Status
	}
	if update.AssignedTo != nil {
		lead.AssignedTo = update.AssignedTo
	}
	if update.ClearAssignee {
		lead.AssignedTo = nil
	}
	if update.Notes != nil {
		lead.Notes = *update.Notes
	}
	if update.ContactedScore != nil {
		lead.ContactedScore = *update.ContactedScore
	}
}

// Delete removes a lead.
// DELETE /api/v1/leads/{leadID}
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetAdmin(r.Context())

	id, ok := pathID(w, chi.URLParam(r, "leadID"))
	if !ok {
		return
	}

	lead, err := h.store.GetLead(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, err, "Lead")
		return
	}

	if err := h.policy.Authorize(r.Context(), actor, model.ResourceLeads, model.ActionDelete, lead); err != nil {
		writePolicyError(w, h.logger, err)
		return
	}

	if err := h.store.DeleteLead(r.Context(), id); err != nil {
		writeStoreError(w, h.logger, err, "Lead")
		return
	}

	h.recorder.Audit(actor.ID, model.AuditActionDelete, model.TargetLead, map[string]interface{}{
		"lead": service.LeadSnapshot(lead),
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Lead deleted",
	})
}

type bulkUpdateRequest struct {
	IDs    []int64          `json:"ids"`
	Status model.LeadStatus `json:"status"`
}

// BulkUpdate sets the status on a set of leads in one store write. IDs that
// no longer exist are silently excluded; the response and the audit entry
// report the store's actual modified count.
// POST /api/v1/leads/bulk-update
func (h *LeadHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetAdmin(r.Context())

	var req bulkUpdateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status: "+string(req.Status))
		return
	}

	leads, err := h.authorizeBulk(w, r, actor, model.ActionUpdate, req.IDs)
	if leads == nil || err != nil {
		return
	}

	modified, err := h.store.BulkUpdateLeadStatus(r.Context(), req.IDs, req.Status)
	if err != nil {
		writeStoreError(w, h.logger, err, "Leads")
		return
	}

	h.recorder.Audit(actor.ID, model.AuditActionBulkUpdate, model.TargetLead, map[string]interface{}{
		"count":         modified,
		"status":        string(req.Status),
		"affectedLeads": leadSnapshots(leads),
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"modifiedCount": modified,
	})
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// BulkDelete removes a set of leads in one store write. Returns the store's
// actual deleted count, which may be less than the requested ID list.
// POST /api/v1/leads/bulk-delete
func (h *LeadHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetAdmin(r.Context())

	var req bulkDeleteRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return
	}

	leads, err := h.authorizeBulk(w, r, actor, model.ActionDelete, req.IDs)
	if leads == nil || err != nil {
		return
	}

	deleted, err := h.store.BulkDeleteLeads(r.Context(), req.IDs)
	if err != nil {
		writeStoreError(w, h.logger, err, "Leads")
		return
	}

	h.recorder.Audit(actor.ID, model.AuditActionBulkDelete, model.TargetLead, map[string]interface{}{
		"count":         deleted,
		"affectedLeads": leadSnapshots(leads),
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"deletedCount": deleted,
	})
}

// authorizeBulk fetches the existing subset of ids and authorizes the
// operation against every one of them, so a single restricted lead denies
// the whole batch. Returns nil after writing the error response.
func (h *LeadHandler) authorizeBulk(w http.ResponseWriter, r *http.Request, actor *model.Admin, action string, ids []int64) ([]model.Lead, error) {
	leads, err := h.store.GetLeadsByIDs(r.Context(), ids)
	if err != nil {
		writeStoreError(w, h.logger, err, "Leads")
		return nil, err
	}

	if len(leads) == 0 {
		// Authorize the coarse gate even when every ID is stale.
		if err := h.policy.Authorize(r.Context(), actor, model.ResourceLeads, action, nil); err != nil {
			writePolicyError(w, h.logger, err)
			return nil, err
		}
		return []model.Lead{}, nil
	}

	for i := range leads {
		if err := h.policy.Authorize(r.Context(), actor, model.ResourceLeads, action, &leads[i]); err != nil {
			writePolicyError(w, h.logger, err)
			return nil, err
		}
	}
	return leads, nil
}

func leadSnapshots(leads []model.Lead) []map[string]interface{} {
	out := make([]map[string]interface{}, len(leads))
	for i := range leads {
		out[i] = service.LeadSnapshot(&leads[i])
	}
	return out
}
