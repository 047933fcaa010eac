package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"hiddenplaces/internal/domain"
)

func TestMessageServiceWrite(t *testing.T) {
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	sender := domain.User{ID: 1, Role: domain.RoleUser}
	var created domain.Thread
	svc := &MessageService{
		Users: &stubUsersStore{t: t, getUserByIDFunc: func(_ context.Context, id int64) (domain.User, error) {
			return domain.User{ID: id}, nil
		}},
		Messages: &stubMessagesStore{t: t, createThreadFunc: func(_ context.Context, th domain.Thread, text string) (domain.Thread, error) {
			if text != "hello" {
				t.Fatalf("text: %q", text)
			}
			created = th
			th.ID = 4
			return th, nil
		}},
		Now: func() time.Time { return now },
	}

	th, err := svc.Write(context.Background(), sender, 2, " Hi ", " hello ")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if th.ID != 4 || created.Subject != "Hi" || created.SenderID != 1 || created.RecipientID != 2 || !created.Timestamp.Equal(now) {
		t.Fatalf("unexpected thread: %+v", created)
	}

	if _, err := svc.Write(context.Background(), sender, 2, "this subject is far too long to be stored", "x"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Write(context.Background(), sender, 1, "Hi", "x"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("writing to self: expected validation error, got %v", err)
	}
}

func TestMessageServiceParticipantsOnly(t *testing.T) {
	thread := domain.Thread{ID: 4, SenderID: 1, RecipientID: 2, SenderSeen: true}
	marked := false
	var added domain.Message
	svc := &MessageService{
		Messages: &stubMessagesStore{
			t:             t,
			getThreadFunc: func(context.Context, int64) (domain.Thread, error) { return thread, nil },
			listMessagesFunc: func(context.Context, int64) ([]domain.Message, error) {
				return []domain.Message{{ID: 1, Text: "hello"}}, nil
			},
			markSeenFunc: func(_ context.Context, _, userID int64) error {
				marked = userID == 2
				return nil
			},
			addMessageFunc: func(_ context.Context, m domain.Message) error {
				added = m
				return nil
			},
		},
	}
	ctx := context.Background()
	outsider := domain.User{ID: 3, Role: domain.RoleAdmin}

	if _, _, err := svc.Show(ctx, outsider, 4); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Show: expected ErrForbidden, got %v", err)
	}
	if err := svc.Reply(ctx, outsider, 4, "x"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Reply: expected ErrForbidden, got %v", err)
	}

	_, msgs, err := svc.Show(ctx, domain.User{ID: 2}, 4)
	if err != nil || len(msgs) != 1 || !marked {
		t.Fatalf("Show: %v, %d messages, marked=%v", err, len(msgs), marked)
	}

	if err := svc.Reply(ctx, domain.User{ID: 2}, 4, " thanks "); err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if added.ThreadID != 4 || added.UserID != 2 || added.Text != "thanks" {
		t.Fatalf("unexpected message: %+v", added)
	}
	if err := svc.Reply(ctx, domain.User{ID: 2}, 4, "  "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty reply: expected validation error, got %v", err)
	}
}

func TestMessageServiceMessageAll(t *testing.T) {
	admin := domain.User{ID: 1, Role: domain.RoleAdmin}
	users := []domain.User{admin, {ID: 2, Email: "b@example.com"}, {ID: 3, Email: "c@example.com"}}
	newService := func(t *testing.T) (*MessageService, *[]int64) {
		var recipients []int64
		mail, _ := captureMailer()
		return &MessageService{
			Users: &stubUsersStore{t: t, listActiveUsersFunc: func(context.Context) ([]domain.User, error) {
				return users, nil
			}},
			Messages: &stubMessagesStore{t: t, createThreadFunc: func(_ context.Context, th domain.Thread, _ string) (domain.Thread, error) {
				recipients = append(recipients, th.RecipientID)
				return th, nil
			}},
			Mail:   mail,
			Logger: discardLogger(),
		}, &recipients
	}

	t.Run("in app", func(t *testing.T) {
		svc, recipients := newService(t)
		n, err := svc.MessageAll(context.Background(), admin, "News", "text", false)
		if err != nil || n != 2 {
			t.Fatalf("MessageAll: %d, %v", n, err)
		}
		if len(*recipients) != 2 || (*recipients)[0] != 2 || (*recipients)[1] != 3 {
			t.Fatalf("unexpected recipients: %v", *recipients)
		}
	})

	t.Run("by email", func(t *testing.T) {
		svc, recipients := newService(t)
		mail, sent := captureMailer()
		svc.Mail = mail
		n, err := svc.MessageAll(context.Background(), admin, "News", "text", true)
		if err != nil || n != 2 || len(*sent) != 2 || len(*recipients) != 0 {
			t.Fatalf("MessageAll: %d, %v, %d mails", n, err, len(*sent))
		}
		if (*sent)[0].Subject != "[HiddenPlaces] News" {
			t.Fatalf("subject: %q", (*sent)[0].Subject)
		}
	})

	t.Run("moderator", func(t *testing.T) {
		svc, _ := newService(t)
		if _, err := svc.MessageAll(context.Background(), domain.User{ID: 4, Role: domain.RoleModerator}, "a", "b", false); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestPageServiceGetAndSave(t *testing.T) {
	var saved domain.Page
	events := &eventRecorder{}
	svc := &PageService{
		Pages: &stubPagesStore{
			t: t,
			getPageFunc: func(context.Context, domain.PageType) (domain.Page, error) {
				return domain.Page{}, domain.ErrNotFound
			},
			savePageFunc: func(_ context.Context, p domain.Page) error {
				saved = p
				return nil
			},
		},
		Events: events,
	}

	p, err := svc.Get(context.Background(), domain.PageRules)
	if err != nil || p.Text != domain.EmptyPageText || p.Type != domain.PageRules {
		t.Fatalf("Get: %+v, %v", p, err)
	}

	if err := svc.Save(context.Background(), domain.User{ID: 3, Role: domain.RoleModerator}, domain.PageRules, "x"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Save(context.Background(), domain.User{ID: 1, Role: domain.RoleAdmin}, domain.PageRules, " Be nice. "); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Text != "Be nice." || saved.Modified == nil || len(events.events) != 1 {
		t.Fatalf("unexpected save: %+v events=%d", saved, len(events.events))
	}
}

func TestPageServiceContactMailsAdmins(t *testing.T) {
	mail, sent := captureMailer()
	svc := &PageService{
		Users: &stubUsersStore{t: t, listByMaxRoleFunc: func(_ context.Context, max domain.Role) ([]domain.User, error) {
			if max != domain.RoleAdmin {
				t.Fatalf("max role: %v", max)
			}
			return []domain.User{{Email: "root@example.com"}, {Email: "admin@example.com"}}, nil
		}},
		Mail: mail,
	}

	from := domain.User{ID: 12, FirstName: "Kim", LastName: "Doe", Email: "kim@example.com"}
	if err := svc.Contact(context.Background(), from, "Bug", "The map is empty."); err != nil {
		t.Fatalf("Contact: %v", err)
	}
	if len(*sent) != 1 || len((*sent)[0].To) != 2 {
		t.Fatalf("unexpected mails: %+v", *sent)
	}
	if (*sent)[0].Subject != "[HiddenPlaces] Contact: Bug" {
		t.Fatalf("subject: %q", (*sent)[0].Subject)
	}
}
