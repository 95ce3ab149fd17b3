// Package notify delivers best-effort team notifications over SMTP.
// Delivery never blocks a request path and failures are only logged.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"docforge/internal/domain/repositories"
	"docforge/internal/domain/services"
)

// Config holds SMTP configuration. An empty Host disables delivery.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// sendFunc matches smtp.SendMail; swapped out in tests
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier implements the Notifier capability.
type SMTPNotifier struct {
	config     Config
	auth       smtp.Auth
	memberRepo repositories.TeamMemberRepository
	send       sendFunc
	logger     *slog.Logger
}

// NewSMTPNotifier creates a notifier. When no SMTP host is configured the
// notifier stays constructible and silently drops every notification.
func NewSMTPNotifier(config Config, memberRepo repositories.TeamMemberRepository, logger *slog.Logger) services.Notifier {
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}

	return &SMTPNotifier{
		config:     config,
		auth:       auth,
		memberRepo: memberRepo,
		send:       smtp.SendMail,
		logger:     logger,
	}
}

func (n *SMTPNotifier) configured() bool {
	return n.config.Host != "" && n.config.Port != "" && n.config.From != ""
}

// NotifyIngested emails the team that a document was added. It returns
// immediately; delivery runs in the background and a failure is logged,
// never surfaced.
func (n *SMTPNotifier) NotifyIngested(ctx context.Context, teamID, documentID, title, url string) {
	if !n.configured() {
		return
	}

	go func() {
		recipients, err := n.memberRepo.MemberEmails(ctx, teamID)
		if err != nil {
			n.logger.Warn("notification skipped: member lookup failed",
				"team_id", teamID, "document_id", documentID, "error", err)
			return
		}
		if len(recipients) == 0 {
			return
		}

		tmpl, err := loadTemplate("ingested")
		if err != nil {
			n.logger.Error("notification template unavailable", "error", err)
			return
		}
		subject, body, err := tmpl.render(map[string]string{
			"Title": title,
			"URL":   url,
		})
		if err != nil {
			n.logger.Error("notification render failed", "document_id", documentID, "error", err)
			return
		}

		if err := n.deliver(recipients, subject, body); err != nil {
			n.logger.Warn("notification delivery failed",
				"team_id", teamID, "document_id", documentID, "error", err)
			return
		}

		n.logger.Debug("ingest notification sent",
			"team_id", teamID, "document_id", documentID, "recipients", len(recipients))
	}()
}

func (n *SMTPNotifier) deliver(to []string, subject, body string) error {
	msg := []byte(fmt.Sprintf(
		"To: %s\r\n"+
			"From: %s\r\n"+
			"Subject: %s\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		strings.Join(to, ", "),
		n.config.From,
		subject,
		body,
	))

	return n.send(n.config.Host+":"+n.config.Port, n.auth, n.config.From, to, msg)
}
