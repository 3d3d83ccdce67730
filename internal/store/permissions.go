package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/leadrail/leadrail/internal/model"
)

// grantRow is the flat table mapping; the grid lives in a JSON column.
type grantRow struct {
	ID        int64     `db:"id"`
	Role      string    `db:"role"`
	GridJSON  string    `db:"grid_json"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r grantRow) toModel() (model.PermissionGrant, error) {
	var grid model.Grid
	if err := json.Unmarshal([]byte(r.GridJSON), &grid); err != nil {
		return model.PermissionGrant{}, fmt.Errorf("unmarshal grant grid: %w", err)
	}
	return model.PermissionGrant{
		ID:        r.ID,
		Role:      model.Role(r.Role),
		Grid:      grid,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

// GetGrant returns the permission grant for a role.
func (s *Store) GetGrant(ctx context.Context, role model.Role) (*model.PermissionGrant, error) {
	var row grantRow
	q := s.rebind("SELECT * FROM permission_grants WHERE role = ?")
	if err := s.db.GetContext(ctx, &row, q, string(role)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get grant: %w", err)
	}
	grant, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

// ListGrants returns all permission grants ordered by role.
func (s *Store) ListGrants(ctx context.Context) ([]model.PermissionGrant, error) {
	var rows []grantRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM permission_grants ORDER BY role"); err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	grants := make([]model.PermissionGrant, 0, len(rows))
	for _, r := range rows {
		g, err := r.toModel()
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, nil
}

// SetGrant replaces the grid for an existing role's grant.
func (s *Store) SetGrant(ctx context.Context, role model.Role, grid model.Grid) error {
	gridJSON, err := json.Marshal(grid)
	if err != nil {
		return fmt.Errorf("marshal grant grid: %w", err)
	}

	q := s.rebind("UPDATE permission_grants SET grid_json = ?, updated_at = ? WHERE role = ?")
	result, err := s.db.ExecContext(ctx, q, string(gridJSON), time.Now().UTC(), string(role))
	if err != nil {
		return fmt.Errorf("set grant: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set grant rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountGrants returns the number of grant rows.
func (s *Store) CountGrants(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM permission_grants"); err != nil {
		return 0, fmt.Errorf("count grants: %w", err)
	}
	return count, nil
}

// SeedDefaultGrants inserts the fixed default grant for every role, but only
// when the table is empty. Running it again is a no-op, so startup can call
// it unconditionally. It must complete before any policy check is evaluated.
func (s *Store) SeedDefaultGrants(ctx context.Context) error {
	count, err := s.CountGrants(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	defaults := model.DefaultGrants()
	insertQ := s.rebind(`INSERT INTO permission_grants (role, grid_json, created_at, updated_at)
		VALUES (?, ?, ?, ?)`)

	for _, role := range model.AllRoles {
		gridJSON, err := json.Marshal(defaults[role])
		if err != nil {
			return fmt.Errorf("marshal default grid for %s: %w", role, err)
		}
		if _, err := s.db.ExecContext(ctx, insertQ, string(role), string(gridJSON), now, now); err != nil {
			return fmt.Errorf("seed grant for %s: %w", role, err)
		}
	}
	return nil
}
