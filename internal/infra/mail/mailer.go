// Package mail delivers account notifications over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/authline/authline/internal/infra/logger"
)

const otpBodyTemplate = `<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Verify your email</h2>
  <p>Hi {{.FirstName}},</p>
  <p>Your verification code is:</p>
  <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.Code}}</p>
  <p>This code expires at {{.ExpiresAt}}. If you did not request it, you can ignore this email.</p>
</body>
</html>`

const passwordResetBodyTemplate = `<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Reset your password</h2>
  <p>Hi {{.FirstName}},</p>
  <p>We received a request to reset your password. Click the link below to continue:</p>
  <p><a href="{{.ResetURL}}">{{.ResetURL}}</a></p>
  <p>If you did not request a reset, you can ignore this email.</p>
</body>
</html>`

var (
	otpTmpl           = template.Must(template.New("otp").Parse(otpBodyTemplate))
	passwordResetTmpl = template.Must(template.New("password_reset").Parse(passwordResetBodyTemplate))
)

// SMTPConfig carries the connection settings for the SMTP mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg SMTPConfig
	log *zap.Logger
}

// NewSMTPMailer validates the config and builds a mailer.
func NewSMTPMailer(cfg SMTPConfig, log *zap.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("mail: smtp host must not be empty")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("mail: sender address must not be empty")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}

	return &SMTPMailer{cfg: cfg, log: log}, nil
}

// SendOTP delivers a verification code email.
func (m *SMTPMailer) SendOTP(ctx context.Context, email, firstName, code string, expiresAt time.Time) error {
	var body bytes.Buffer
	err := otpTmpl.Execute(&body, map[string]string{
		"FirstName": firstName,
		"Code":      code,
		"ExpiresAt": expiresAt.UTC().Format(time.RFC1123),
	})
	if err != nil {
		return fmt.Errorf("mail: render otp body: %w", err)
	}

	if err := m.send(ctx, email, "Your verification code", body.String()); err != nil {
		return fmt.Errorf("mail: send otp to %s: %w", logger.MaskEmail(email), err)
	}

	m.log.Info("otp email sent", zap.String("email", logger.MaskEmail(email)))
	return nil
}

// SendPasswordReset delivers a password reset link email.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, email, firstName, resetURL string) error {
	var body bytes.Buffer
	err := passwordResetTmpl.Execute(&body, map[string]string{
		"FirstName": firstName,
		"ResetURL":  resetURL,
	})
	if err != nil {
		return fmt.Errorf("mail: render password reset body: %w", err)
	}

	if err := m.send(ctx, email, "Reset your password", body.String()); err != nil {
		return fmt.Errorf("mail: send password reset to %s: %w", logger.MaskEmail(email), err)
	}

	m.log.Info("password reset email sent", zap.String("email", logger.MaskEmail(email)))
	return nil
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}

	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	return client.DialAndSendWithContext(ctx, msg)
}

// LogMailer writes notifications to the log instead of sending mail.
// Used in development when SMTP is not configured; the OTP code appears
// in the log so signup can still be completed.
type LogMailer struct {
	log *zap.Logger
}

// NewLogMailer builds a logging mailer.
func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// SendOTP logs the verification code.
func (m *LogMailer) SendOTP(_ context.Context, email, firstName, code string, expiresAt time.Time) error {
	m.log.Info("otp email (dev mode, not sent)",
		zap.String("email", email),
		zap.String("first_name", firstName),
		zap.String("code", code),
		zap.Time("expires_at", expiresAt),
	)
	return nil
}

// SendPasswordReset logs the reset link.
func (m *LogMailer) SendPasswordReset(_ context.Context, email, firstName, resetURL string) error {
	m.log.Info("password reset email (dev mode, not sent)",
		zap.String("email", email),
		zap.String("first_name", firstName),
		zap.String("reset_url", resetURL),
	)
	return nil
}
