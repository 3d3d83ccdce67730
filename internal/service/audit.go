package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/leadrail/leadrail/internal/metrics"
	"github.com/leadrail/leadrail/internal/model"
	"github.com/leadrail/leadrail/internal/store"
)

const recordTimeout = 5 * time.Second

// Recorder appends audit, activity, and login-history entries. All writes are
// best-effort: they run on their own goroutine and a failure is logged and
// counted, never returned. The primary operation a record accompanies cannot
// be failed, rolled back, or delayed by the recorder.
type Recorder struct {
	store  *store.Store
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewRecorder creates a Recorder writing through st.
func NewRecorder(st *store.Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: st, logger: logger}
}

// Audit records a privileged mutation with free-form metadata.
func (r *Recorder) Audit(actorID int64, action, targetType string, metadata map[string]interface{}) {
	entry := &model.AuditLogEntry{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		Metadata:   metadata,
	}
	r.spawn("audit", func(ctx context.Context) error {
		return r.store.AppendAuditLog(ctx, entry)
	})
}

// Activity records a dashboard page view or navigation event.
func (r *Recorder) Activity(actorID int64, action, page, details string) {
	entry := &model.ActivityLogEntry{
		ActorID: actorID,
		Action:  action,
		Page:    page,
		Details: details,
	}
	r.spawn("activity", func(ctx context.Context) error {
		return r.store.AppendActivityLog(ctx, entry)
	})
}

// Login records an authentication attempt. actorID is nil when no account
// was matched.
func (r *Recorder) Login(actorID *int64, ip, userAgent string, success bool) {
	entry := &model.LoginHistoryEntry{
		ActorID:   actorID,
		IP:        ip,
		UserAgent: userAgent,
		Success:   success,
	}
	r.spawn("login", func(ctx context.Context) error {
		return r.store.AppendLoginHistory(ctx, entry)
	})
}

func (r *Recorder) spawn(kind string, write func(context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := write(ctx); err != nil {
			metrics.LogWritesDropped.WithLabelValues(kind).Inc()
			r.logger.Error("dropped log write", "kind", kind, "error", err)
		}
	}()
}

// Wait blocks until all pending writes have finished. Used by graceful
// shutdown and by tests that assert on recorded entries.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

// LeadSnapshot captures the identifying fields of a lead before mutation, so
// audit entries stay readable after the lead is altered or deleted.
func LeadSnapshot(lead *model.Lead) map[string]interface{} {
	return map[string]interface{}{
		"id":    lead.ID,
		"name":  lead.Name,
		"email": lead.Email,
		"phone": lead.Phone,
	}
}

// LeadChanges computes the field-by-field {from,to} delta between two lead
// states. Unchanged fields are omitted, so the audit trail alone can
// reconstruct what changed and when.
func LeadChanges(before, after *model.Lead) map[string]model.FieldChange {
	changes := make(map[string]model.FieldChange)

	diff := func(field string, from, to interface{}) {
		if from != to {
			changes[field] = model.FieldChange{From: from, To: to}
		}
	}

	diff("name", before.Name, after.Name)
	diff("email", before.Email, after.Email)
	diff("phone", before.Phone, after.Phone)
	diff("course", before.Course, after.Course)
	diff("message", before.Message, after.Message)
	diff("status", string(before.Status), string(after.Status))
	diff("notes", before.Notes, after.Notes)
	diff("contacted_score", before.ContactedScore, after.ContactedScore)
	diff("assigned_to", assigneeValue(before.AssignedTo), assigneeValue(after.AssignedTo))

	return changes
}

// AdminChanges computes the field-by-field {from,to} delta between two admin
// states. Password hashes never appear in the delta; a credential change is
// reported as a bare marker instead.
func AdminChanges(before, after *model.Admin) map[string]model.FieldChange {
	changes := make(map[string]model.FieldChange)

	diff := func(field string, from, to interface{}) {
		if from != to {
			changes[field] = model.FieldChange{From: from, To: to}
		}
	}

	diff("username", before.Username, after.Username)
	diff("email", before.Email, after.Email)
	diff("role", string(before.Role), string(after.Role))
	diff("is_active", before.IsActive, after.IsActive)
	if before.PasswordHash != after.PasswordHash {
		changes["password"] = model.FieldChange{From: "(set)", To: "(changed)"}
	}

	return changes
}

func assigneeValue(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
