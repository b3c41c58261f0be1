package services

import (
	"errors"
	"fmt"
	"html"
	"log"

	"github.com/HSouheill/sm_online_shop/config"
	"github.com/HSouheill/sm_online_shop/utils"
	"gopkg.in/gomail.v2"
)

// Mailer delivers password reset links
type Mailer interface {
	SendPasswordReset(to, name, link string) error
}

var ErrSMTPRequired = errors.New("SMTP_HOST and FROM_EMAIL are required in production")

// NewMailer returns an SMTP mailer. Without SMTP settings it returns a LogMailer,
// or ErrSMTPRequired in production.
func NewMailer(cfg *config.AppConfig) (Mailer, error) {
	if cfg.SMTPHost == "" || cfg.FromEmail == "" {
		if cfg.IsProduction() {
			return nil, ErrSMTPRequired
		}
		log.Println("Warning: SMTP is not configured, reset links will be logged instead of sent")
		return LogMailer{}, nil
	}
	return &SMTPMailer{
		from:   cfg.FromEmail,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
	}, nil
}

type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

func (m *SMTPMailer) SendPasswordReset(to, name, link string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Password Reset")
	msg.SetBody("text/html", resetBody(name, link))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// LogMailer writes reset links to the process log. Development only.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(to, _, link string) error {
	log.Printf("Password reset for %s: %s", utils.MaskEmail(to), link)
	return nil
}

func resetBody(name, link string) string {
	return fmt.Sprintf(`
		<html>
		<body>
			<h2>Reset Your Password</h2>
			<p>Hello %s,</p>
			<p>You have requested to reset your password. Follow the link below to choose a new one:</p>
			<p><a href="%s">Reset password</a></p>
			<p>If you did not request a password reset, please ignore this email.</p>
			<p>Thank you,<br>SM Online Shop</p>
		</body>
		</html>
	`, html.EscapeString(name), html.EscapeString(link))
}
