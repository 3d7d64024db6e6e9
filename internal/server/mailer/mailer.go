// Package mailer delivers password-reset tokens to users out of band.
package mailer

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/logging"
	sc "github.com/dmitrijs2005/wishlist/internal/server/config"
	"github.com/dmitrijs2005/wishlist/internal/server/services"
	"gopkg.in/gomail.v2"
)

const resetSubject = "Password Reset Request"

// sender is the part of *gomail.Dialer the notifier uses.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier mails reset links through an SMTP relay.
type SMTPNotifier struct {
	from     string
	resetURL string
	dialer   sender
}

func NewSMTPNotifier(cfg *sc.Config) *SMTPNotifier {
	return &SMTPNotifier{
		from:     cfg.SMTPFrom,
		resetURL: cfg.PasswordResetURL,
		dialer:   gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

// ResetLink returns the link the user follows to choose a new password.
func ResetLink(base, token string) string {
	return fmt.Sprintf("%s?token=%s", base, url.QueryEscape(token))
}

func (n *SMTPNotifier) SendPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	link := ResetLink(n.resetURL, token)
	htmlBody := fmt.Sprintf(`
		<p>Hi,</p>
		<p>We received a request to reset the password for your wishlist account.</p>
		<p>If you made this request, follow the link below to choose a new password:</p>

		<p><a href="%s">%s</a></p>

		<p>This link expires at %s.</p>
		<p>If you did not request a password reset, you can ignore this email.</p>
	`, link, link, expiresAt.UTC().Format(time.RFC1123))

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", resetSubject)
	msg.SetBody("text/html", htmlBody)
	msg.AddAlternative("text/plain", fmt.Sprintf("Reset your password: %s\nThe link expires at %s.\n",
		link, expiresAt.UTC().Format(time.RFC1123)))

	if err := n.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogNotifier stands in when SMTP is not configured. It records that a reset
// was requested but never logs the token itself.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	if log == nil {
		log = logging.Nop{}
	}
	return &LogNotifier{log: log.With("module", "mailer")}
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, email, _ string, expiresAt time.Time) error {
	n.log.Info(ctx, "password reset requested; smtp disabled, nothing sent",
		"email", email, "expires_at", expiresAt)
	return nil
}

// New picks the SMTP notifier when mail is configured and the logging one
// otherwise.
func New(cfg *sc.Config, log logging.Logger) services.ResetNotifier {
	if cfg.MailEnabled() {
		return NewSMTPNotifier(cfg)
	}
	return NewLogNotifier(log)
}
