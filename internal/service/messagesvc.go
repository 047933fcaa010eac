package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"hiddenplaces/internal/domain"
)

type MessagesStore interface {
	CreateThread(ctx context.Context, t domain.Thread, text string) (domain.Thread, error)
	GetThread(ctx context.Context, id int64) (domain.Thread, error)
	AddMessage(ctx context.Context, m domain.Message) error
	ListMessages(ctx context.Context, threadID int64) ([]domain.Message, error)
	ListThreads(ctx context.Context, userID int64, page domain.PageRequest) (domain.PageResult[domain.Thread], error)
	MarkSeen(ctx context.Context, threadID, userID int64) error
	CountUnread(ctx context.Context, userID int64) (int, error)
}

type MessageService struct {
	Messages MessagesStore
	Users    UsersStore
	Mail     *Mailer
	Logger   *slog.Logger
	Now      func() time.Time
}

func (s *MessageService) init() {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
}

func validateMessage(subject, text string, withSubject bool) error {
	fe := fieldErrors{}
	if withSubject {
		fe.required("subject", subject)
		fe.maxLen("subject", subject, domain.MaxSubjectLen)
	}
	fe.required("text", text)
	return fe.err()
}

// Write starts a thread from sender to the user with id recipientID.
func (s *MessageService) Write(ctx context.Context, sender domain.User, recipientID int64, subject, text string) (domain.Thread, error) {
	s.init()
	subject = strings.TrimSpace(subject)
	text = strings.TrimSpace(text)

	recipient, err := s.Users.GetUserByID(ctx, recipientID)
	if err != nil {
		return domain.Thread{}, err
	}
	if recipient.ID == sender.ID {
		return domain.Thread{}, domain.FieldError("recipient", "You cannot write to yourself.")
	}
	if err := validateMessage(subject, text, true); err != nil {
		return domain.Thread{}, err
	}
	return s.Messages.CreateThread(ctx, domain.Thread{
		Subject:     subject,
		Timestamp:   s.Now().UTC(),
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
	}, text)
}

func (s *MessageService) thread(ctx context.Context, u domain.User, threadID int64) (domain.Thread, error) {
	t, err := s.Messages.GetThread(ctx, threadID)
	if err != nil {
		return domain.Thread{}, err
	}
	if !t.HasParticipant(u.ID) {
		return domain.Thread{}, domain.ErrForbidden
	}
	return t, nil
}

// Reply appends a message of u to a thread u takes part in.
func (s *MessageService) Reply(ctx context.Context, u domain.User, threadID int64, text string) error {
	s.init()
	text = strings.TrimSpace(text)
	t, err := s.thread(ctx, u, threadID)
	if err != nil {
		return err
	}
	if err := validateMessage("", text, false); err != nil {
		return err
	}
	return s.Messages.AddMessage(ctx, domain.Message{
		Text:      text,
		Timestamp: s.Now().UTC(),
		ThreadID:  t.ID,
		UserID:    u.ID,
	})
}

// Show returns a thread with its messages and marks it seen by u.
func (s *MessageService) Show(ctx context.Context, u domain.User, threadID int64) (domain.Thread, []domain.Message, error) {
	t, err := s.thread(ctx, u, threadID)
	if err != nil {
		return domain.Thread{}, nil, err
	}
	msgs, err := s.Messages.ListMessages(ctx, t.ID)
	if err != nil {
		return domain.Thread{}, nil, err
	}
	if !t.SeenBy(u.ID) {
		if err := s.Messages.MarkSeen(ctx, t.ID, u.ID); err != nil {
			return domain.Thread{}, nil, err
		}
	}
	return t, msgs, nil
}

func (s *MessageService) List(ctx context.Context, u domain.User, page domain.PageRequest) (domain.PageResult[domain.Thread], error) {
	return s.Messages.ListThreads(ctx, u.ID, page)
}

func (s *MessageService) Unread(ctx context.Context, u domain.User) (int, error) {
	return s.Messages.CountUnread(ctx, u.ID)
}

// MessageAll sends subject and text to every other active user, by email
// when viaEmail is set and as a new thread otherwise. It returns the number
// of recipients reached.
func (s *MessageService) MessageAll(ctx context.Context, actor domain.User, subject, text string, viaEmail bool) (int, error) {
	s.init()
	if !actor.Role.IsAdmin() {
		return 0, domain.ErrForbidden
	}
	subject = strings.TrimSpace(subject)
	text = strings.TrimSpace(text)
	if err := validateMessage(subject, text, true); err != nil {
		return 0, err
	}

	users, err := s.Users.ListActiveUsers(ctx)
	if err != nil {
		return 0, err
	}
	var recipients []domain.User
	for _, u := range users {
		if u.ID != actor.ID {
			recipients = append(recipients, u)
		}
	}

	if viaEmail {
		to := make([]string, 0, len(recipients))
		for _, u := range recipients {
			to = append(to, u.Email)
		}
		if err := s.Mail.SendBroadcast(ctx, to, subject, text); err != nil {
			return 0, err
		}
		return len(to), nil
	}

	now := s.Now().UTC()
	var errs []error
	sent := 0
	for _, u := range recipients {
		_, err := s.Messages.CreateThread(ctx, domain.Thread{
			Subject:     subject,
			Timestamp:   now,
			SenderID:    actor.ID,
			RecipientID: u.ID,
		}, text)
		if err != nil {
			s.Logger.ErrorContext(ctx, "broadcast message failed", "recipient_id", u.ID, "err", err)
			errs = append(errs, err)
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}
