package mailer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-contacts-api/internal/domain/apperror"
	"github.com/oksasatya/go-contacts-api/pkg/mailer/templates"
)

// Mailer renders account emails and hands them to a Transport. With a nil
// transport it only logs the action link.
type Mailer struct {
	transport   Transport
	appName     string
	frontendURL string
	log         *logrus.Logger
}

func New(transport Transport, appName, frontendURL string, log *logrus.Logger) *Mailer {
	return &Mailer{
		transport:   transport,
		appName:     appName,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,
	}
}

// VerificationLink is the frontend page that confirms an email token.
func (m *Mailer) VerificationLink(token string) string {
	return m.frontendURL + "/verify-email/" + url.PathEscape(token)
}

// ResetLink is the frontend page that accepts a new password.
func (m *Mailer) ResetLink(token string) string {
	return m.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
}

func (m *Mailer) SendVerification(ctx context.Context, to, username, token string, expiresAt time.Time) error {
	return m.send(ctx, templates.VerifyEmail, to, templates.EmailData{
		AppName:   m.appName,
		Email:     to,
		Username:  username,
		ActionURL: m.VerificationLink(token),
		ExpiresAt: expiresAt,
	})
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, username, token string, expiresAt time.Time) error {
	return m.send(ctx, templates.ResetPassword, to, templates.EmailData{
		AppName:   m.appName,
		Email:     to,
		Username:  username,
		ActionURL: m.ResetLink(token),
		ExpiresAt: expiresAt,
	})
}

func (m *Mailer) send(ctx context.Context, tmpl, to string, data templates.EmailData) error {
	if m.transport == nil {
		m.log.WithFields(logrus.Fields{"template": tmpl, "to": to, "link": data.ActionURL}).
			Info("mail sending disabled")
		return nil
	}

	subject, text, html, err := templates.Render(tmpl, data)
	if err != nil {
		return fmt.Errorf("render %s: %w", tmpl, err)
	}
	if err := m.transport.Send(ctx, Message{To: to, Subject: subject, Text: text, HTML: html}); err != nil {
		m.log.WithError(err).WithFields(logrus.Fields{"template": tmpl, "to": to}).Error("mail delivery failed")
		return fmt.Errorf("%w: send %s: %v", apperror.ErrTransport, tmpl, err)
	}
	return nil
}
