// Package notify delivers refresh outcome messages to the dashboard owners.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/JonMunkholm/aet/internal/logging"
)

// Notifier sends a plain-text message.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// LogNotifier writes messages to the structured log. It is used when no
// SMTP host is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, subject, body string) error {
	logger := n.Logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	logger.Info("notification", "subject", subject, "body", body)
	return nil
}

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	Recipients []string
}

// SMTPNotifier sends mail through an SMTP relay. Recipients share a single
// message, addressed with a comma-joined To header.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now  func() time.Time
}

// NewSMTPNotifier returns a notifier for cfg. It fails if no recipients or
// sender are configured.
func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if len(cfg.Recipients) == 0 {
		return nil, fmt.Errorf("smtp notifier: no recipients configured")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp notifier: sender address is required")
	}
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail, now: time.Now}, nil
}

func (n *SMTPNotifier) Notify(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	msg := n.message(subject, body)

	if err := n.send(addr, auth, n.cfg.From, n.cfg.Recipients, msg); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	logging.FromContext(ctx).Info("notification sent",
		"subject", subject,
		"recipients", len(n.cfg.Recipients),
	)
	return nil
}

// message renders an RFC 5322 message with CRLF line endings.
func (n *SMTPNotifier) message(subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.cfg.Recipients, ","))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", n.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
