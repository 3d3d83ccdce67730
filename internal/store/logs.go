package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/leadrail/leadrail/internal/model"
)

// auditRow maps the audit_logs table; metadata lives in a JSON column.
type auditRow struct {
	ID           int64     `db:"id"`
	ActorID      int64     `db:"actor_id"`
	Action       string    `db:"action"`
	TargetType   string    `db:"target_type"`
	MetadataJSON string    `db:"metadata_json"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r auditRow) toModel() (model.AuditLogEntry, error) {
	var meta map[string]interface{}
	if r.MetadataJSON != "" {
		if err := json.Unmarshal([]byte(r.MetadataJSON), &meta); err != nil {
			return model.AuditLogEntry{}, fmt.Errorf("unmarshal audit metadata: %w", err)
		}
	}
	return model.AuditLogEntry{
		ID:         r.ID,
		ActorID:    r.ActorID,
		Action:     r.Action,
		TargetType: r.TargetType,
		Metadata:   meta,
		CreatedAt:  r.CreatedAt,
	}, nil
}

// AppendAuditLog writes an immutable audit entry. There is no update or
// delete path for audit rows anywhere in the system.
func (s *Store) AppendAuditLog(ctx context.Context, entry *model.AuditLogEntry) error {
	metaJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	entry.CreatedAt = time.Now().UTC()

	q := s.rebind(`INSERT INTO audit_logs (actor_id, action, target_type, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, entry.ActorID, entry.Action, entry.TargetType,
		string(metaJSON), entry.CreatedAt); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

// ListAuditLogs returns audit entries matching the filter, newest first, plus
// the total match count.
func (s *Store) ListAuditLogs(ctx context.Context, filter model.LogFilter) ([]model.AuditLogEntry, int64, error) {
	where, args := buildLogWhere(filter)

	var total int64
	if err := s.db.GetContext(ctx, &total, s.rebind("SELECT COUNT(*) FROM audit_logs"+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	q := s.rebind(fmt.Sprintf("SELECT * FROM audit_logs%s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d",
		where, logLimit(filter), filter.Offset))
	var rows []auditRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}

	entries := make([]model.AuditLogEntry, 0, len(rows))
	for _, r := range rows {
		e, err := r.toModel()
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, nil
}

// AppendActivityLog writes an immutable activity entry.
func (s *Store) AppendActivityLog(ctx context.Context, entry *model.ActivityLogEntry) error {
	entry.CreatedAt = time.Now().UTC()
	q := s.rebind(`INSERT INTO activity_logs (actor_id, action, page, details, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, entry.ActorID, entry.Action, entry.Page,
		entry.Details, entry.CreatedAt); err != nil {
		return fmt.Errorf("append activity log: %w", err)
	}
	return nil
}

// ListActivityLogs returns activity entries matching the filter, newest first.
func (s *Store) ListActivityLogs(ctx context.Context, filter model.LogFilter) ([]model.ActivityLogEntry, int64, error) {
	where, args := buildLogWhere(filter)

	var total int64
	if err := s.db.GetContext(ctx, &total, s.rebind("SELECT COUNT(*) FROM activity_logs"+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count activity logs: %w", err)
	}

	q := s.rebind(fmt.Sprintf("SELECT * FROM activity_logs%s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d",
		where, logLimit(filter), filter.Offset))
	var entries []model.ActivityLogEntry
	if err := s.db.SelectContext(ctx, &entries, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list activity logs: %w", err)
	}
	return entries, total, nil
}

// AppendLoginHistory writes an immutable login attempt record. ActorID is nil
// when authentication failed before a valid account was identified.
func (s *Store) AppendLoginHistory(ctx context.Context, entry *model.LoginHistoryEntry) error {
	entry.CreatedAt = time.Now().UTC()
	q := s.rebind(`INSERT INTO login_history (actor_id, ip, user_agent, success, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, entry.ActorID, entry.IP, entry.UserAgent,
		entry.Success, entry.CreatedAt); err != nil {
		return fmt.Errorf("append login history: %w", err)
	}
	return nil
}

// ListLoginHistory returns login attempts matching the filter, newest first.
func (s *Store) ListLoginHistory(ctx context.Context, filter model.LogFilter) ([]model.LoginHistoryEntry, int64, error) {
	where, args := buildLogWhere(filter)

	var total int64
	if err := s.db.GetContext(ctx, &total, s.rebind("SELECT COUNT(*) FROM login_history"+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count login history: %w", err)
	}

	q := s.rebind(fmt.Sprintf("SELECT * FROM login_history%s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d",
		where, logLimit(filter), filter.Offset))
	var entries []model.LoginHistoryEntry
	if err := s.db.SelectContext(ctx, &entries, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list login history: %w", err)
	}
	return entries, total, nil
}

func buildLogWhere(filter model.LogFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.ActorID != nil {
		conds = append(conds, "actor_id = ?")
		args = append(args, *filter.ActorID)
	}
	if filter.From != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, filter.To.UTC())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func logLimit(filter model.LogFilter) int {
	if filter.Limit <= 0 {
		return 50
	}
	return filter.Limit
}
