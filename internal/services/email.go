package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/resend/resend-go/v2"

	"github.com/groupmeet/groupmeet/internal/config"
	"github.com/groupmeet/groupmeet/internal/logging"
)

const (
	PasswordResetTokenExpiry = 1 * time.Hour

	// Minimum gap between reset emails to the same account.
	passwordResetCooldown = 2 * time.Minute
)

var (
	ErrResetTokenInvalid   = errors.New("invalid or expired reset token")
	ErrResetRequestTooSoon = errors.New("a reset email was sent recently; try again later")
)

// Email is a message to be sent through a provider.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// EmailProvider abstracts the delivery mechanism.
type EmailProvider interface {
	Send(ctx context.Context, email *Email) error
}

// EmailService owns the reset-token lifecycle and outbound mail.
type EmailService struct {
	provider    EmailProvider
	db          DB
	fromAddress string
	fromName    string
	baseURL     string
}

func NewEmailService(cfg *config.EmailConfig, db DB) *EmailService {
	var provider EmailProvider

	switch cfg.Provider {
	case "resend":
		provider = NewResendProvider(cfg.ResendAPIKey, cfg.FromName, cfg.FromAddress)
	case "smtp":
		provider = NewSMTPProvider(cfg.SMTPHost, cfg.SMTPPort, cfg.FromName, cfg.FromAddress)
	default:
		provider = NewConsoleProvider()
	}

	return &EmailService{
		provider:    provider,
		db:          db,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		baseURL:     cfg.BaseURL,
	}
}

// SendPasswordResetEmail issues a reset token and mails the link. Requests
// inside the cooldown window are rejected so the endpoint cannot be used to
// flood a mailbox.
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, userID uuid.UUID, email string) error {
	var lastSent time.Time
	err := s.db.QueryRow(ctx,
		`SELECT created_at FROM password_reset_tokens
		 WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT 1`,
		userID,
	).Scan(&lastSent)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("checking reset cooldown: %w", err)
	}
	if err == nil && time.Since(lastSent) < passwordResetCooldown {
		return ErrResetRequestTooSoon
	}

	token, tokenHash, err := GenerateToken()
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(PasswordResetTokenExpiry)
	_, err = s.db.Exec(ctx,
		`INSERT INTO password_reset_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3)`,
		userID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("storing password reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/#reset-password?token=%s", s.baseURL, token)
	html, text := s.renderPasswordResetEmail(resetURL)

	return s.provider.Send(ctx, &Email{
		To:      email,
		Subject: "Reset your Groupmeet password",
		HTML:    html,
		Text:    text,
	})
}

// VerifyPasswordResetToken validates a reset token and returns its user.
func (s *EmailService) VerifyPasswordResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	tokenHash := HashToken(token)

	var userID uuid.UUID
	var expiresAt time.Time
	var usedAt *time.Time
	err := s.db.QueryRow(ctx,
		`SELECT user_id, expires_at, used_at FROM password_reset_tokens WHERE token_hash = $1`,
		tokenHash).Scan(&userID, &expiresAt, &usedAt)
	if err != nil {
		return uuid.Nil, ErrResetTokenInvalid
	}
	if usedAt != nil {
		return uuid.Nil, ErrResetTokenInvalid
	}
	if time.Now().After(expiresAt) {
		return uuid.Nil, ErrResetTokenInvalid
	}
	return userID, nil
}

// MarkPasswordResetUsed burns a reset token after a successful reset.
func (s *EmailService) MarkPasswordResetUsed(ctx context.Context, token string) error {
	tokenHash := HashToken(token)
	_, err := s.db.Exec(ctx,
		`UPDATE password_reset_tokens SET used_at = NOW() WHERE token_hash = $1`,
		tokenHash)
	return err
}

func (s *EmailService) renderPasswordResetEmail(resetURL string) (html, text string) {
	html = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333; font-size: 24px;">Reset Your Password</h1>

  <p>We received a request to reset your password. Click the button below to choose a new password:</p>

  <a href="%s"
     style="display: inline-block; background: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 20px 0;">
    Reset Password
  </a>

  <p style="color: #666; font-size: 14px;">
    This link expires in 1 hour and can only be used once.
  </p>

  <p style="color: #666; font-size: 14px;">
    Or copy this link: %s
  </p>

  <p style="color: #666; font-size: 14px;">
    If you didn't request a password reset, you can safely ignore this email.
  </p>

  <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
  <p style="color: #999; font-size: 12px;">Groupmeet</p>
</body>
</html>`, resetURL, resetURL)

	text = fmt.Sprintf(`Reset Your Password

We received a request to reset your password.

Click the link below to choose a new password:
%s

This link expires in 1 hour and can only be used once.

If you didn't request a password reset, you can safely ignore this email.

--
Groupmeet`, resetURL)

	return html, text
}

// ResendProvider sends emails using the Resend API.
type ResendProvider struct {
	client *resend.Client
	from   string
}

func NewResendProvider(apiKey, fromName, fromAddress string) *ResendProvider {
	return &ResendProvider{
		client: resend.NewClient(apiKey),
		from:   fmt.Sprintf("%s <%s>", fromName, fromAddress),
	}
}

func (p *ResendProvider) Send(ctx context.Context, email *Email) error {
	params := &resend.SendEmailRequest{
		From:    p.from,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	}

	_, err := p.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("sending email via Resend: %w", err)
	}

	logging.Info("Email sent via Resend", map[string]interface{}{"to": email.To, "subject": email.Subject})
	return nil
}

// SMTPProvider sends emails via SMTP (for Mailpit in local dev).
type SMTPProvider struct {
	host        string
	port        int
	fromName    string
	fromAddress string
}

func NewSMTPProvider(host string, port int, fromName, fromAddress string) *SMTPProvider {
	return &SMTPProvider{host: host, port: port, fromName: fromName, fromAddress: fromAddress}
}

func (p *SMTPProvider) Send(ctx context.Context, email *Email) error {
	addr := fmt.Sprintf("%s:%d", p.host, p.port)

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s <%s>\r\n", p.fromName, p.fromAddress))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", email.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.HTML)

	err := smtp.SendMail(addr, nil, p.fromAddress, []string{email.To}, buf.Bytes())
	if err != nil {
		return fmt.Errorf("sending email via SMTP: %w", err)
	}

	logging.Info("Email sent via SMTP", map[string]interface{}{"to": email.To, "subject": email.Subject})
	return nil
}

// ConsoleProvider logs emails to console (for development).
type ConsoleProvider struct{}

func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

func (p *ConsoleProvider) Send(ctx context.Context, email *Email) error {
	logging.Info("=== EMAIL (Console Provider) ===", map[string]interface{}{"to": email.To, "subject": email.Subject})
	fmt.Printf("\n=== EMAIL ===\n")
	fmt.Printf("To: %s\n", email.To)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("---\n")
	fmt.Printf("%s\n", email.Text)
	fmt.Printf("=============\n\n")
	return nil
}
