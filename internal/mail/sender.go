// Package mail sends transactional notification emails over SMTP. Sending is
// best-effort: the caller's operation never fails because an email did not go
// out.
package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/leadrail/leadrail/internal/metrics"
)

// Config holds SMTP credentials. When Host or From is empty the sender is
// disabled and Notify becomes a no-op.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender delivers notification emails. A nil or disabled Sender is safe to
// call.
type Sender struct {
	cfg    Config
	logger *slog.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New creates a Sender. Missing credentials degrade to a disabled sender with
// a warning rather than an error, per the startup contract.
func New(cfg Config, logger *slog.Logger) *Sender {
	if cfg.Host == "" || cfg.From == "" {
		logger.Warn("mail sender disabled: no SMTP host/from configured")
	}
	return &Sender{cfg: cfg, logger: logger, send: smtp.SendMail}
}

// Enabled reports whether the sender has enough configuration to deliver.
func (s *Sender) Enabled() bool {
	return s != nil && s.cfg.Host != "" && s.cfg.From != ""
}

// Notify sends a plain-text email in the background. Failures are logged and
// counted, never returned.
func (s *Sender) Notify(to, subject, body string) {
	if !s.Enabled() || to == "" {
		return
	}

	go func() {
		addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
		var auth smtp.Auth
		if s.cfg.Username != "" {
			auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		}

		msg := strings.Join([]string{
			"From: " + s.cfg.From,
			"To: " + to,
			"Subject: " + subject,
			"MIME-Version: 1.0",
			"Content-Type: text/plain; charset=utf-8",
			"",
			body,
		}, "\r\n")

		if err := s.send(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
			metrics.MailSendFailures.Inc()
			s.logger.Error("failed to send notification email", "to", to, "error", err)
		}
	}()
}
