package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks HTTP requests by method and status.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadrail_requests_total",
		Help: "Total number of HTTP requests handled",
	}, []string{"method", "status"})

	// LeadsCreated counts new leads by source (public form or admin UI).
	LeadsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadrail_leads_created_total",
		Help: "Total number of leads created",
	}, []string{"source"})

	// LogWritesDropped counts audit/activity/login log writes that failed.
	// The writes are best-effort, so this counter is the only place the loss
	// is visible.
	LogWritesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadrail_log_writes_dropped_total",
		Help: "Total number of best-effort log writes that failed",
	}, []string{"kind"})

	// MailSendFailures counts outbound notification emails that failed.
	MailSendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadrail_mail_send_failures_total",
		Help: "Total number of notification emails that failed to send",
	})

	// LoginAttempts counts authentication attempts by outcome.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadrail_login_attempts_total",
		Help: "Total number of login attempts",
	}, []string{"outcome"})
)
