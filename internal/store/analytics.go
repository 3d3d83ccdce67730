package store

import (
	"context"
	"fmt"
)

// StatusCount is one row of the leads-by-status aggregate.
type StatusCount struct {
	Status string `json:"status" db:"status"`
	Count  int64  `json:"count" db:"count"`
}

// AssigneeCount is one row of the leads-by-assignee aggregate. Username is
// empty for unassigned leads.
type AssigneeCount struct {
	AssignedTo *int64 `json:"assigned_to" db:"assigned_to"`
	Username   string `json:"username" db:"username"`
	Count      int64  `json:"count" db:"count"`
}

// DailyCount is one row of the daily intake aggregate.
type DailyCount struct {
	Day   string `json:"day" db:"day"`
	Count int64  `json:"count" db:"count"`
}

// AnalyticsSummary is the payload behind the analytics endpoint.
type AnalyticsSummary struct {
	TotalLeads  int64           `json:"total_leads"`
	ByStatus    []StatusCount   `json:"by_status"`
	ByAssignee  []AssigneeCount `json:"by_assignee"`
	DailyIntake []DailyCount    `json:"daily_intake"`
}

// LeadAnalytics computes the dashboard summary with SQL aggregates. The daily
// intake covers the most recent 30 days of submissions.
func (s *Store) LeadAnalytics(ctx context.Context) (*AnalyticsSummary, error) {
	summary := &AnalyticsSummary{}

	if err := s.db.GetContext(ctx, &summary.TotalLeads, "SELECT COUNT(*) FROM leads"); err != nil {
		return nil, fmt.Errorf("count leads: %w", err)
	}

	if err := s.db.SelectContext(ctx, &summary.ByStatus,
		"SELECT status, COUNT(*) AS count FROM leads GROUP BY status ORDER BY count DESC"); err != nil {
		return nil, fmt.Errorf("leads by status: %w", err)
	}

	if err := s.db.SelectContext(ctx, &summary.ByAssignee,
		`SELECT l.assigned_to AS assigned_to, COALESCE(a.username, '') AS username, COUNT(*) AS count
		 FROM leads l LEFT JOIN admins a ON a.id = l.assigned_to
		 GROUP BY l.assigned_to, a.username ORDER BY count DESC`); err != nil {
		return nil, fmt.Errorf("leads by assignee: %w", err)
	}

	dayExpr := "strftime('%Y-%m-%d', created_at)"
	if s.driver == DriverPostgres {
		dayExpr = "to_char(created_at, 'YYYY-MM-DD')"
	}
	dailyQ := fmt.Sprintf(`SELECT %s AS day, COUNT(*) AS count FROM leads
		GROUP BY day ORDER BY day DESC LIMIT 30`, dayExpr)
	if err := s.db.SelectContext(ctx, &summary.DailyIntake, dailyQ); err != nil {
		return nil, fmt.Errorf("daily intake: %w", err)
	}

	return summary, nil
}
