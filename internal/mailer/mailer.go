// Package mailer sends the library's transactional mail. Delivery is always
// best-effort from the caller's point of view: the engine never blocks a
// lending operation on the mail server.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"libraryhub/internal/config"
)

type Mailer interface {
	SendVerificationOTP(ctx context.Context, email, otp, fullName string) error
	SendLoginOTP(ctx context.Context, email, otp, fullName string) error
	SendPasswordReset(ctx context.Context, email, token, fullName string) error
	SendPasswordChanged(ctx context.Context, email, fullName string) error
	SendReturnConfirmation(ctx context.Context, email, fullName, bookTitle string, fineAmount float64) error
	SendOverdueNotice(ctx context.Context, email, fullName, bookTitle string, daysOverdue int) error
}

// SMTPMailer delivers through a plain SMTP relay.
type SMTPMailer struct {
	addr    string
	auth    smtp.Auth
	from    string
	webName string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &SMTPMailer{
		addr:    fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth:    auth,
		from:    cfg.MailFrom,
		webName: cfg.WebName,
	}
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := strings.Join([]string{
		fmt.Sprintf("From: %s <%s>", m.webName, m.from),
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func (m *SMTPMailer) SendVerificationOTP(_ context.Context, email, otp, fullName string) error {
	body := fmt.Sprintf(
		"Dear %s,\n\nThank you for registering with %s. Use the following OTP to verify your account:\n\n\t%s\n\nThis OTP expires in 10 minutes. If you didn't create an account, please ignore this email.\n\nBest regards,\n%s Team\n",
		fullName, m.webName, otp, m.webName)
	return m.send(email, "Verify Your Library Account", body)
}

func (m *SMTPMailer) SendLoginOTP(_ context.Context, email, otp, fullName string) error {
	body := fmt.Sprintf(
		"Dear %s,\n\nUse the following OTP to access the staff panel:\n\n\t%s\n\nThis OTP expires in 10 minutes. If you didn't request this OTP, please secure your account.\n\nBest regards,\n%s Team\n",
		fullName, otp, m.webName)
	return m.send(email, "Staff Panel Login OTP", body)
}

func (m *SMTPMailer) SendPasswordReset(_ context.Context, email, token, fullName string) error {
	body := fmt.Sprintf(
		"Dear %s,\n\nYou requested to reset your %s password. Use the following token:\n\n\t%s\n\nThe token expires in 10 minutes. If you didn't request a reset, please ignore this email.\n\nBest regards,\n%s Team\n",
		fullName, m.webName, token, m.webName)
	return m.send(email, "Password Reset Request", body)
}

func (m *SMTPMailer) SendPasswordChanged(_ context.Context, email, fullName string) error {
	body := fmt.Sprintf(
		"Dear %s,\n\nYour %s password has been changed. If you did not make this change, contact support immediately.\n\nBest regards,\n%s Team\n",
		fullName, m.webName, m.webName)
	return m.send(email, "Password Changed Successfully", body)
}

func (m *SMTPMailer) SendReturnConfirmation(_ context.Context, email, fullName, bookTitle string, fineAmount float64) error {
	body := fmt.Sprintf("Dear %s,\n\nWe received your return of %q.", fullName, bookTitle)
	if fineAmount > 0 {
		body += fmt.Sprintf(" A fine of %.2f was assessed; please settle it at the fines desk before your next borrow.", fineAmount)
	}
	body += fmt.Sprintf("\n\nBest regards,\n%s Team\n", m.webName)
	return m.send(email, "Return Confirmation", body)
}

func (m *SMTPMailer) SendOverdueNotice(_ context.Context, email, fullName, bookTitle string, daysOverdue int) error {
	body := fmt.Sprintf(
		"Dear %s,\n\n%q is %d day(s) overdue. Please return it as soon as possible to limit further fines.\n\nBest regards,\n%s Team\n",
		fullName, bookTitle, daysOverdue, m.webName)
	return m.send(email, "Overdue Book Notice", body)
}

// NoopMailer logs instead of sending. Used in development and tests where no
// SMTP relay is configured.
type NoopMailer struct {
	Logger *slog.Logger
}

func (m *NoopMailer) log(kind, email string) error {
	if m.Logger != nil {
		m.Logger.Debug("mail suppressed", "kind", kind, "to", email)
	}
	return nil
}

func (m *NoopMailer) SendVerificationOTP(_ context.Context, email, _, _ string) error {
	return m.log("verification_otp", email)
}

func (m *NoopMailer) SendLoginOTP(_ context.Context, email, _, _ string) error {
	return m.log("login_otp", email)
}

func (m *NoopMailer) SendPasswordReset(_ context.Context, email, _, _ string) error {
	return m.log("password_reset", email)
}

func (m *NoopMailer) SendPasswordChanged(_ context.Context, email, _ string) error {
	return m.log("password_changed", email)
}

func (m *NoopMailer) SendReturnConfirmation(_ context.Context, email, _, _ string, _ float64) error {
	return m.log("return_confirmation", email)
}

func (m *NoopMailer) SendOverdueNotice(_ context.Context, email, _, _ string, _ int) error {
	return m.log("overdue_notice", email)
}
