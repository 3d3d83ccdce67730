package handler

import (
	"log/slog"
	"net/http"

	"github.com/leadrail/leadrail/internal/model"
	"github.com/leadrail/leadrail/internal/server/middleware"
	"github.com/leadrail/leadrail/internal/service"
	"github.com/leadrail/leadrail/internal/store"
)

// AnalyticsHandler serves the lead funnel summary behind the
// analytics.view grant.
type AnalyticsHandler struct {
	store  *store.Store
	policy *service.Policy
	logger *slog.Logger
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(st *store.Store, policy *service.Policy, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{store: st, policy: policy, logger: logger}
}

// Summary returns lead counts by status, by assignee, and daily intake for
// the trailing 30 days.
// GET /api/v1/analytics/summary
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetAdmin(r.Context())
	if err := h.policy.Authorize(r.Context(), actor, model.ResourceAnalytics, model.ActionView, nil); err != nil {
		writePolicyError(w, h.logger, err)
		return
	}

	summary, err := h.store.LeadAnalytics(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, err, "Analytics")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
