package mail

import (
	"fmt"
	"strings"

	gomail "gopkg.in/gomail.v2"
)

// SMTPSender delivers mail over a direct SMTP transport.
type SMTPSender struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

func (s SMTPSender) Send(msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("recipient address is empty")
	}
	if strings.TrimSpace(s.Host) == "" {
		return fmt.Errorf("SMTP_HOST is not set")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.TextFallback)
	m.AddAlternative("text/html", msg.HTMLBody)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
