package service

import (
	"fmt"
	"net/smtp"
	"net/url"
	"strings"
)

// Mailer delivers the transactional mails of the auth and checkout flows.
// Sends are fire-and-await: no retries here, failures go back to the caller
// who decides whether they are fatal.
type Mailer interface {
	SendVerificationEmail(to, token string) error
	SendPasswordResetEmail(to, code string) error
	SendTwoFactorTokenEmail(to, code string) error
	SendOrderConfirmationEmail(to, orderID, total string) error
}

type SMTPConfig struct {
	Host          string
	Port          string
	From          string
	PublicBaseURL string
}

type smtpMailer struct {
	cfg SMTPConfig
}

func NewMailer(cfg SMTPConfig) Mailer { return &smtpMailer{cfg: cfg} }

func (m *smtpMailer) SendVerificationEmail(to, token string) error {
	link := fmt.Sprintf("%s/api/auth/verify?token=%s", m.cfg.PublicBaseURL, url.QueryEscape(token))
	body := "Welcome!\n\nConfirm your email address by opening this link:\n" + link +
		"\n\nThe link expires in 24 hours. If you did not sign up, ignore this message."
	return m.send(to, "Verify your email", body)
}

func (m *smtpMailer) SendPasswordResetEmail(to, code string) error {
	body := "Your password reset code is: " + code +
		"\n\nIt expires in one hour. If you did not request a reset, ignore this message."
	return m.send(to, "Reset your password", body)
}

func (m *smtpMailer) SendTwoFactorTokenEmail(to, code string) error {
	body := "Your sign-in code is: " + code + "\n\nIt expires in a few minutes."
	return m.send(to, "Your sign-in code", body)
}

func (m *smtpMailer) SendOrderConfirmationEmail(to, orderID, total string) error {
	body := fmt.Sprintf("Thanks for your purchase!\n\nOrder %s for a total of %s was received and is being processed.", orderID, total)
	return m.send(to, "Order confirmation", body)
}

func (m *smtpMailer) send(to, subject, body string) error {
	addr := m.cfg.Host + ":" + m.cfg.Port

	var msg strings.Builder
	msg.WriteString("From: " + m.cfg.From + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	// No auth: local relays (MailHog and friends) in dev, a sidecar in prod.
	return smtp.SendMail(addr, nil, m.cfg.From, []string{to}, []byte(msg.String()))
}
