package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/leadrail/leadrail/internal/mail"
	"github.com/leadrail/leadrail/internal/metrics"
	"github.com/leadrail/leadrail/internal/model"
	"github.com/leadrail/leadrail/internal/store"
)

// PublicHandler serves the unauthenticated lead submission endpoint.
type PublicHandler struct {
	store  *store.Store
	mailer *mail.Sender
	notify string
	logger *slog.Logger
}

// NewPublicHandler creates a PublicHandler. notifyAddr is the address that
// receives a heads-up email for each new submission; empty disables it.
func NewPublicHandler(st *store.Store, mailer *mail.Sender, notifyAddr string, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{store: st, mailer: mailer, notify: notifyAddr, logger: logger}
}

type submitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Course  string `json:"course"`
	Message string `json:"message"`
}

// Submit records a lead from the public intake form. The response never
// echoes internal IDs beyond the created lead's own.
// POST /api/v1/submit
func (h *PublicHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
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

	lead := &model.Lead{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Course:  req.Course,
		Message: req.Message,
		Status:  model.LeadStatusNew,
		Source:  model.LeadSourcePublic,
	}
	if err := h.store.CreateLead(r.Context(), lead); err != nil {
		writeStoreError(w, h.logger, err, "Lead")
		return
	}
	metrics.LeadsCreated.WithLabelValues(model.LeadSourcePublic).Inc()

	if h.notify != "" && h.mailer.Enabled() {
		body := fmt.Sprintf("New lead submitted.\n\nName: %s\nEmail: %s\nPhone: %s\nCourse: %s\n\n%s\n",
			lead.Name, lead.Email, lead.Phone, lead.Course, lead.Message)
		h.mailer.Notify(h.notify, "New lead: "+lead.Name, body)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Submission received",
		"id":      lead.ID,
	})
}
