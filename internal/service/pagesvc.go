package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"hiddenplaces/internal/domain"
)

type PagesStore interface {
	GetPage(ctx context.Context, t domain.PageType) (domain.Page, error)
	SavePage(ctx context.Context, p domain.Page) error
}

type PageService struct {
	Pages  PagesStore
	Users  UsersStore
	Mail   *Mailer
	Events EventLogger
	Now    func() time.Time
}

// Get returns the page of type t. Pages that were never saved carry
// EmptyPageText.
func (s *PageService) Get(ctx context.Context, t domain.PageType) (domain.Page, error) {
	p, err := s.Pages.GetPage(ctx, t)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Page{Type: t, Text: domain.EmptyPageText}, nil
	}
	return p, err
}

func (s *PageService) Save(ctx context.Context, actor domain.User, t domain.PageType, text string) error {
	if !actor.Role.IsAdmin() {
		return domain.ErrForbidden
	}
	if t.Slug() == "" {
		return domain.ErrNotFound
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	modified := now().UTC()
	if err := s.Pages.SavePage(ctx, domain.Page{Type: t, Text: strings.TrimSpace(text), Modified: &modified}); err != nil {
		return err
	}
	logEvent(ctx, s.Events, &actor, domain.PageEditEvent(t))
	return nil
}

// Contact mails subject and text from u to every administrator.
func (s *PageService) Contact(ctx context.Context, u domain.User, subject, text string) error {
	subject = strings.TrimSpace(subject)
	text = strings.TrimSpace(text)
	fe := fieldErrors{}
	fe.required("subject", subject)
	fe.maxLen("subject", subject, domain.MaxSubjectLen)
	fe.required("text", text)
	if err := fe.err(); err != nil {
		return err
	}

	admins, err := s.Users.ListByMaxRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	to := make([]string, 0, len(admins))
	for _, a := range admins {
		to = append(to, a.Email)
	}
	if len(to) == 0 {
		return nil
	}
	return s.Mail.SendContact(ctx, to, u, subject, text)
}
