// Package mailer delivers transactional e-mail over SMTP. Delivery is a
// best-effort side effect: failures are logged and never retried, and no
// send ever blocks a success response (the events dispatcher calls Send from
// its own goroutine).
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Email is one outbound message. To may hold several recipients.
type Email struct {
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config holds SMTP transport settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string // e.g. support.caritas@instiq.com
	FromName string // e.g. Caritas
}

// Mailer is the mail dispatch collaborator. Construct one at process start
// and pass it by reference; there is no package-level shared transport.
type Mailer struct {
	cfg Config
	log *zap.Logger

	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New creates a Mailer with the given transport config.
func New(cfg Config, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: logger, send: smtp.SendMail}
}

// Send delivers one message. An error return means the message was not
// accepted by the SMTP server; callers log and move on.
func (m *Mailer) Send(msg Email) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("mailer: no recipients")
	}

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, msg.To, m.build(msg)); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", strings.Join(msg.To, ","), err)
	}

	m.log.Info("mail sent",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// build assembles a multipart/alternative MIME message with text and HTML
// bodies.
func (m *Mailer) build(msg Email) []byte {
	const boundary = "caritas-alt-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %q <%s>\r\n", m.cfg.FromName, m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, msg.TextBody)
	if msg.HTMLBody != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, msg.HTMLBody)
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

// SetSendFunc replaces the transport function. Test hook.
func (m *Mailer) SetSendFunc(fn func(addr string, a smtp.Auth, from string, to []string, msg []byte) error) {
	m.send = fn
}
