package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/config"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/models"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer is one delivery provider in the notification chain.
type Mailer interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

type NotificationService struct {
	mailers []Mailer
}

// NewNotificationService tries mailers in order and stops at the first
// success.
func NewNotificationService(mailers ...Mailer) *NotificationService {
	return &NotificationService{mailers: mailers}
}

// NewNotificationServiceFromConfig uses SMTP when SMTP_HOST is set and
// always ends with the log mailer.
func NewNotificationServiceFromConfig(cfg *config.Config) *NotificationService {
	var mailers []Mailer
	if cfg.SMTPHost != "" {
		mailers = append(mailers, NewSMTPMailer(cfg))
	}
	mailers = append(mailers, LogMailer{})
	return NewNotificationService(mailers...)
}

func (n *NotificationService) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, m := range n.mailers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := m.Send(ctx, msg); err != nil {
			slog.Warn("mailer failed, trying next", "mailer", m.Name(), "error", err.Error())
			errs = append(errs, fmt.Errorf("%s: %w", m.Name(), err))
			continue
		}
		return nil
	}
	if len(errs) == 0 {
		return errors.New("no mailer configured")
	}
	return errors.Join(errs...)
}

// StatusChanged tells a reviewer the outcome of their application.
func (n *NotificationService) StatusChanged(ctx context.Context, account *models.Account) error {
	name := account.Email
	if account.Name != nil && *account.Name != "" {
		name = *account.Name
	}

	var subject, body string
	switch account.Status {
	case models.StatusActive:
		subject = "Your reviewer application was approved"
		body = fmt.Sprintf("Hi %s,\n\nYour reviewer account is now active. You can sign in and start reviewing recordings.\n", name)
	case models.StatusRejected:
		subject = "Your reviewer application"
		body = fmt.Sprintf("Hi %s,\n\nUnfortunately your reviewer application was not approved.\n", name)
	default:
		return nil
	}
	return n.Notify(ctx, Message{To: account.Email, Subject: subject, Body: body})
}

type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &SMTPMailer{
		addr: net.JoinHostPort(cfg.SMTPHost, cfg.SMTPPort),
		from: cfg.MailFrom,
		auth: auth,
		send: smtp.SendMail,
	}
}

func (m *SMTPMailer) Name() string { return "smtp" }

func (m *SMTPMailer) Send(_ context.Context, msg Message) error {
	var b strings.Builder
	b.WriteString("From: " + m.from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.Body)
	return m.send(m.addr, m.auth, m.from, []string{msg.To}, []byte(b.String()))
}

// LogMailer records the message instead of delivering it.
type LogMailer struct{}

func (LogMailer) Name() string { return "log" }

func (LogMailer) Send(_ context.Context, msg Message) error {
	slog.Info("notification", "to", msg.To, "subject", msg.Subject)
	return nil
}
