package notify

import (
	"context"

	"gopkg.in/gomail.v2"
)

// SMTPEmailSender sends email via SMTP using gomail.
type SMTPEmailSender struct {
	From   string
	dialer *gomail.Dialer
}

// NewSMTPEmailSender returns an email sender using the given SMTP credentials.
func NewSMTPEmailSender(host string, port int, username, password, from string) *SMTPEmailSender {
	return &SMTPEmailSender{
		From:   from,
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

// Send dials the SMTP server and delivers the message. The context's deadline
// is not propagated into the dialer; the SMTP connection carries its own
// timeouts, and callers treat Send as best-effort.
func (s *SMTPEmailSender) Send(ctx context.Context, destination, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", destination)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}
