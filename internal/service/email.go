package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/gomail.v2"
)

// Email is the boundary contract with the outbound mail collaborator.
// Bodies are plain text; the sender wraps them in the branded HTML template.
type Email struct {
	To      string
	Subject string
	Body    string
}

type EmailSender interface {
	Send(ctx context.Context, msg Email) error
}

type smtpEmailSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewEmailSender returns an SMTP-backed sender, or a disabled sender that
// only logs when no host is configured (local development).
func NewEmailSender(host, port, username, password, from string) EmailSender {
	if host == "" {
		slog.Warn("SMTP_HOST not set, outbound email disabled")
		return disabledEmailSender{}
	}
	p, _ := strconv.Atoi(port)
	return &smtpEmailSender{
		host:     host,
		port:     p,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *smtpEmailSender) Send(ctx context.Context, msg Email) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", plainTemplate(msg))
	m.AddAlternative("text/html", htmlTemplate(msg))

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func plainTemplate(msg Email) string {
	return fmt.Sprintf("%s\n\n%s\n\nRegards,\nTravel & Expense Management Team\n(This is an automated message. Please do not reply.)", msg.Subject, msg.Body)
}

func htmlTemplate(msg Email) string {
	body := strings.ReplaceAll(msg.Body, "\n", "<br/>")
	return fmt.Sprintf(`
<div style="font-family: 'Segoe UI', Arial, sans-serif; background: #f8fafc; padding: 32px; color: #222;">
  <div style="max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden;">
    <div style="background: linear-gradient(90deg, #6366f1 0%%, #8b5cf6 100%%); padding: 24px 32px;">
      <h1 style="color: #fff; font-size: 1.5rem; margin: 0;">Travel &amp; Expense Management</h1>
    </div>
    <div style="padding: 32px;">
      <h2 style="font-size: 1.2rem; color: #6366f1; margin-top: 0;">%s</h2>
      <div style="font-size: 1rem; color: #222; margin: 24px 0; line-height: 1.7;">%s</div>
      <div style="margin-top: 32px; font-size: 0.95rem; color: #555;">
        Regards,<br/>
        <strong>Travel &amp; Expense Management Team</strong><br/>
        <span style="color: #888; font-size: 0.9em;">This is an automated message. Please do not reply directly to this email.</span>
      </div>
    </div>
  </div>
</div>`, msg.Subject, body)
}

type disabledEmailSender struct{}

func (disabledEmailSender) Send(ctx context.Context, msg Email) error {
	slog.Debug("email suppressed (SMTP not configured)", "to", msg.To, "subject", msg.Subject)
	return nil
}
