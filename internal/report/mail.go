package report

import (
	"errors"
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/keckobservatory/koa-daa/internal/config"
)

// ErrNoRecipients indicates mail delivery was requested with an empty
// recipient list.
var ErrNoRecipients = errors.New("no report recipients configured")

// Mailer delivers the rendered report. The default transport is the local
// SMTP relay; configuring a SendGrid key switches to the SendGrid API.
type Mailer struct {
	cfg config.ReportConfig
}

// NewMailer creates a mailer from the report configuration.
func NewMailer(cfg config.ReportConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send delivers the report body. The subject carries the hostname so cron
// output from different machines is distinguishable, and an ERROR prefix
// when the run failed.
func (m *Mailer) Send(body string, failed bool) error {
	if len(m.cfg.Recipients) == 0 {
		return ErrNoRecipients
	}

	subject := fmt.Sprintf("KOA Data Access Verification (%s)", hostname())
	if failed {
		subject = "ERROR: " + subject
	}

	if m.cfg.SendGridKey != "" {
		return m.sendGrid(subject, body)
	}
	return m.sendSMTP(subject, body)
}

func (m *Mailer) sendSMTP(subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + strings.Join(m.cfg.Recipients, ", "),
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := m.cfg.SMTPHost
	if !strings.Contains(addr, ":") {
		addr += ":25"
	}
	if err := smtp.SendMail(addr, nil, m.cfg.From, m.cfg.Recipients, []byte(msg)); err != nil {
		return fmt.Errorf("sending report via %s: %w", addr, err)
	}
	return nil
}

func (m *Mailer) sendGrid(subject, body string) error {
	personalization := sgmail.NewPersonalization()
	for _, to := range m.cfg.Recipients {
		personalization.AddTos(sgmail.NewEmail("", to))
	}

	message := sgmail.NewV3Mail()
	message.SetFrom(sgmail.NewEmail("", m.cfg.From))
	message.Subject = subject
	message.AddPersonalizations(personalization)
	message.AddContent(sgmail.NewContent("text/plain", body))

	client := sendgrid.NewSendClient(m.cfg.SendGridKey)
	resp, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sending report via sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
