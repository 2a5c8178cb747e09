package platform

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// MailSharer shares content by email through an SMTP relay.
type MailSharer struct {
	Host string
	Port string
	User string
	Pass string
	From string
	To   []string

	send SendFunc
}

// NewMailSharer creates a sharer that mails every shared item to the recipients.
func NewMailSharer(host, port, user, pass, from string, to ...string) *MailSharer {
	return &MailSharer{Host: host, Port: port, User: user, Pass: pass, From: from, To: to, send: smtp.SendMail}
}

// WithSendFunc replaces the transport, e.g. in tests.
func (m *MailSharer) WithSendFunc(send SendFunc) *MailSharer {
	m.send = send
	return m
}

// Share sends one message per call. The context is only checked before dialing.
func (m *MailSharer) Share(ctx context.Context, subject, content string) error {
	if len(m.To) == 0 {
		return fmt.Errorf("recipient email address cannot be empty")
	}
	if m.From == "" {
		return fmt.Errorf("sender email address cannot be empty")
	}
	if subject == "" {
		return fmt.Errorf("email subject cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	contentType := "text/plain; charset=UTF-8"
	if strings.Contains(strings.ToLower(content), "<html>") || strings.Contains(strings.ToLower(content), "<p>") {
		contentType = "text/html; charset=UTF-8"
	}
	message := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: %s\r\n"+
		"\r\n"+
		"%s\r\n", strings.Join(m.To, ", "), m.From, subject, contentType, content))

	var auth smtp.Auth
	if m.User != "" || m.Pass != "" {
		auth = smtp.PlainAuth("", m.User, m.Pass, m.Host)
	}
	port := m.Port
	if port == "" {
		port = "587"
	}
	send := m.send
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(net.JoinHostPort(m.Host, port), auth, m.From, m.To, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
