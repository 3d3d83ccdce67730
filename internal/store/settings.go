package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Setting keys with defined semantics.
const (
	// SettingRestrictLeadEditing narrows non-privileged roles to mutating
	// only their own assigned leads when set to "true".
	SettingRestrictLeadEditing = "restrictLeadEditing"
)

// GetSetting returns the value stored under key.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	q := s.rebind("SELECT value FROM settings WHERE key = ?")
	if err := s.db.GetContext(ctx, &value, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

// SetSetting upserts a key-value pair.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	q := s.rebind(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`)
	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

// RestrictLeadEditing reads the restriction toggle. An absent or malformed
// setting means unrestricted; the lookup never fails closed on this path.
func (s *Store) RestrictLeadEditing(ctx context.Context) (bool, error) {
	value, err := s.GetSetting(ctx, SettingRestrictLeadEditing)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return value == "true", nil
}
