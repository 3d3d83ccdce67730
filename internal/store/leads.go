package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/leadrail/leadrail/internal/model"
)

// CreateLead inserts a new lead. The ID, CreatedAt, and UpdatedAt fields are
// populated after a successful insert. A lead with the same email or phone
// already on file yields ErrConflict; the check runs before the insert.
func (s *Store) CreateLead(ctx context.Context, lead *model.Lead) error {
	dup, err := s.leadExistsWithContact(ctx, lead.Email, lead.Phone)
	if err != nil {
		return err
	}
	if dup {
		return ErrConflict
	}

	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now
	if lead.Status == "" {
		lead.Status = model.LeadStatusNew
	}

	const q = `INSERT INTO leads
		(name, email, phone, course, message, status, assigned_to, notes, contacted_score, source, created_at, updated_at)
		VALUES
		(:name, :email, :phone, :course, :message, :status, :assigned_to, :notes, :contacted_score, :source, :created_at, :updated_at)`

	id, err := s.insertReturningID(ctx, q, lead)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	lead.ID = id
	return nil
}

func (s *Store) leadExistsWithContact(ctx context.Context, email, phone string) (bool, error) {
	var count int
	q := s.rebind(`SELECT COUNT(*) FROM leads WHERE (email != '' AND email = ?) OR (phone != '' AND phone = ?)`)
	if err := s.db.GetContext(ctx, &count, q, email, phone); err != nil {
		return false, fmt.Errorf("check lead contact: %w", err)
	}
	return count > 0, nil
}

// GetLead returns a lead by ID.
func (s *Store) GetLead(ctx context.Context, id int64) (*model.Lead, error) {
	var lead model.Lead
	q := s.rebind("SELECT * FROM leads WHERE id = ?")
	if err := s.db.GetContext(ctx, &lead, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return &lead, nil
}

// ListLeads returns leads matching the filter, newest first, plus the total
// match count for pagination.
func (s *Store) ListLeads(ctx context.Context, filter model.LeadFilter) ([]model.Lead, int64, error) {
	where, args := buildLeadWhere(filter)

	var total int64
	countQ := s.rebind("SELECT COUNT(*) FROM leads" + where)
	if err := s.db.GetContext(ctx, &total, countQ, args...); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	listQ := s.rebind(fmt.Sprintf(
		"SELECT * FROM leads%s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d",
		where, limit, filter.Offset))

	var leads []model.Lead
	if err := s.db.SelectContext(ctx, &leads, listQ, args...); err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	return leads, total, nil
}

func buildLeadWhere(filter model.LeadFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.AssignedTo != nil {
		conds = append(conds, "assigned_to = ?")
		args = append(args, *filter.AssignedTo)
	}
	if filter.Query != "" {
		conds = append(conds, "(name LIKE ? OR email LIKE ? OR phone LIKE ?)")
		like := "%" + filter.Query + "%"
		args = append(args, like, like, like)
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

// UpdateLead writes the full lead row. The UpdatedAt field is refreshed
// automatically.
func (s *Store) UpdateLead(ctx context.Context, lead *model.Lead) error {
	lead.UpdatedAt = time.Now().UTC()

	const q = `UPDATE leads SET
		name = :name, email = :email, phone = :phone, course = :course, message = :message,
		status = :status, assigned_to = :assigned_to, notes = :notes,
		contacted_score = :contacted_score, updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, lead)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lead rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteLead removes a lead by ID.
func (s *Store) DeleteLead(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM leads WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete lead rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetLeadsByIDs returns the leads that currently exist among ids, in no
// particular order. IDs with no matching row are silently dropped.
func (s *Store) GetLeadsByIDs(ctx context.Context, ids []int64) ([]model.Lead, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q, args, err := sqlx.In("SELECT * FROM leads WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("build leads-by-ids query: %w", err)
	}
	var leads []model.Lead
	if err := s.db.SelectContext(ctx, &leads, s.rebind(q), args...); err != nil {
		return nil, fmt.Errorf("get leads by ids: %w", err)
	}
	return leads, nil
}

// BulkUpdateLeadStatus sets the status on every existing lead in ids with a
// single multi-row statement and returns the store-reported modified count,
// which may be less than len(ids) when some IDs no longer exist.
func (s *Store) BulkUpdateLeadStatus(ctx context.Context, ids []int64, status model.LeadStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In("UPDATE leads SET status = ?, updated_at = ? WHERE id IN (?)",
		status, time.Now().UTC(), ids)
	if err != nil {
		return 0, fmt.Errorf("build bulk update query: %w", err)
	}
	result, err := s.db.ExecContext(ctx, s.rebind(q), args...)
	if err != nil {
		return 0, fmt.Errorf("bulk update leads: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk update rows affected: %w", err)
	}
	return n, nil
}

// BulkDeleteLeads removes every existing lead in ids with a single statement
// and returns the store-reported deleted count.
func (s *Store) BulkDeleteLeads(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In("DELETE FROM leads WHERE id IN (?)", ids)
	if err != nil {
		return 0, fmt.Errorf("build bulk delete query: %w", err)
	}
	result, err := s.db.ExecContext(ctx, s.rebind(q), args...)
	if err != nil {
		return 0, fmt.Errorf("bulk delete leads: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk delete rows affected: %w", err)
	}
	return n, nil
}
