package store

import (
	"fmt"
	"strings"
)

// Schema templates use $PK and $TS tokens so the same statements serve both
// SQLite and Postgres.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id $PK,
		username TEXT UNIQUE NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_login_at $TS,
		created_by BIGINT,
		created_at $TS NOT NULL,
		updated_at $TS NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS permission_grants (
		id $PK,
		role TEXT UNIQUE NOT NULL,
		grid_json TEXT NOT NULL DEFAULT '{}',
		created_at $TS NOT NULL,
		updated_at $TS NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS leads (
		id $PK,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		course TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'New',
		assigned_to BIGINT,
		notes TEXT NOT NULL DEFAULT '',
		contacted_score INTEGER NOT NULL DEFAULT 0,
		source TEXT NOT NULL DEFAULT 'public',
		created_at $TS NOT NULL,
		updated_at $TS NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS audit_logs (
		id $PK,
		actor_id BIGINT NOT NULL,
		action TEXT NOT NULL,
		target_type TEXT NOT NULL,
		metadata_json TEXT NOT NULL DEFAULT '{}',
		created_at $TS NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS activity_logs (
		id $PK,
		actor_id BIGINT NOT NULL,
		action TEXT NOT NULL,
		page TEXT NOT NULL DEFAULT '',
		details TEXT NOT NULL DEFAULT '',
		created_at $TS NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS login_history (
		id $PK,
		actor_id BIGINT,
		ip TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		success BOOLEAN NOT NULL DEFAULT FALSE,
		created_at $TS NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_assigned_to ON leads(assigned_to)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_actor ON audit_logs(actor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_logs_actor ON activity_logs(actor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_login_history_actor ON login_history(actor_id)`,
}

func (s *Store) migrate() error {
	pk, ts := "INTEGER PRIMARY KEY AUTOINCREMENT", "DATETIME"
	if s.driver == DriverPostgres {
		pk, ts = "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ"
	}

	replacer := strings.NewReplacer("$PK", pk, "$TS", ts)
	for _, m := range migrations {
		stmt := replacer.Replace(m)
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}
