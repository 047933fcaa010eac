package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/email"
)

const DefaultSubjectPrefix = "[HiddenPlaces]"

var mailHTML = template.Must(template.New("mail").Parse(`<!doctype html>
<html><body style="font-family:sans-serif">
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}{{if .Link}}<p><a href="{{.Link}}">{{.Link}}</a></p>
{{end}}<p style="color:#777">HiddenPlaces</p>
</body></html>`))

// Mailer composes the application's emails and hands them to Sender. A nil
// Mailer or Sender drops every message.
type Mailer struct {
	Sender        email.Sender
	PublicURL     string
	SubjectPrefix string
	Logger        *slog.Logger
}

// URL joins path to the public base URL.
func (m *Mailer) URL(path string) string {
	if m == nil {
		return path
	}
	return strings.TrimRight(m.PublicURL, "/") + path
}

func (m *Mailer) SendInvitation(ctx context.Context, inv domain.Invitation, token string) error {
	link := m.URL("/user/register/" + token)
	return m.send(ctx, []string{inv.Email}, "Invitation", link,
		fmt.Sprintf("Hello %s,", inv.Name),
		fmt.Sprintf("%s invited you to HiddenPlaces. Finish your registration using the link below.", inv.InvitedBy),
		"The link is valid for 30 days.",
	)
}

func (m *Mailer) SendPasswordReset(ctx context.Context, u domain.User, token string) error {
	link := m.URL("/user/password_reset/" + token)
	return m.send(ctx, []string{u.Email}, "Password reset", link,
		fmt.Sprintf("Hello %s,", u.FirstName),
		"You requested a password reset. Set a new password using the link below.",
		"The link is valid for 60 minutes. If you did not request this, you can ignore this email.",
	)
}

// SendEmailChange mails the confirmation link to the new address and a
// warning to the current one.
func (m *Mailer) SendEmailChange(ctx context.Context, u domain.User, newEmail, token string) error {
	link := m.URL("/user/change_email/" + token)
	err := m.send(ctx, []string{newEmail}, "Confirm your new email", link,
		fmt.Sprintf("Hello %s,", u.FirstName),
		"Confirm the change of your HiddenPlaces email address using the link below.",
	)
	if err != nil {
		return err
	}
	return m.send(ctx, []string{u.Email}, "Email change requested", "",
		fmt.Sprintf("Hello %s,", u.FirstName),
		fmt.Sprintf("A change of your account email to %s was requested.", newEmail),
		"If this was not you, change your password right away.",
	)
}

func (m *Mailer) SendContact(ctx context.Context, to []string, from domain.User, subject, text string) error {
	link := m.URL(fmt.Sprintf("/user/%d", from.ID))
	return m.send(ctx, to, "Contact: "+subject, link,
		fmt.Sprintf("%s <%s> wrote:", from.FullName(), from.Email),
		text,
	)
}

// SendBroadcast mails each recipient separately so addresses stay private.
func (m *Mailer) SendBroadcast(ctx context.Context, to []string, subject, text string) error {
	for _, addr := range to {
		if err := m.send(ctx, []string{addr}, subject, "", text); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mailer) send(ctx context.Context, to []string, subject, link string, paragraphs ...string) error {
	if m == nil || m.Sender == nil {
		return nil
	}
	prefix := m.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	text := strings.Join(paragraphs, "\n\n")
	if link != "" {
		text += "\n\n" + link
	}
	var html bytes.Buffer
	if err := mailHTML.Execute(&html, struct {
		Paragraphs []string
		Link       string
	}{paragraphs, link}); err != nil {
		return fmt.Errorf("render mail: %w", err)
	}

	msg := email.Message{
		To:       to,
		Subject:  prefix + " " + subject,
		TextBody: text,
		HTMLBody: html.String(),
	}
	if err := m.Sender.Send(ctx, msg); err != nil {
		logger := m.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("send mail failed", "subject", msg.Subject, "err", err)
		return err
	}
	return nil
}
