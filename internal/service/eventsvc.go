package service

import (
	"context"
	"log/slog"
	"time"

	"hiddenplaces/internal/domain"
)

type EventsStore interface {
	CreateEvent(ctx context.Context, e domain.Event) error
	ListEvents(ctx context.Context, page domain.PageRequest) (domain.PageResult[domain.Event], error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// EventLogger records audit events on behalf of other services.
type EventLogger interface {
	Log(ctx context.Context, user *domain.User, ev domain.Event)
}

func logEvent(ctx context.Context, l EventLogger, user *domain.User, ev domain.Event) {
	if l != nil {
		l.Log(ctx, user, ev)
	}
}

type EventService struct {
	Events EventsStore
	Logger *slog.Logger
	Now    func() time.Time
}

// Log stores ev attributed to user. A failed write is logged and otherwise
// ignored so it never fails the operation being audited.
func (s *EventService) Log(ctx context.Context, user *domain.User, ev domain.Event) {
	if s == nil || s.Events == nil {
		return
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	if user != nil {
		id := user.ID
		ev.UserID = &id
		ev.UserName = user.FullName()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.Now()
	}
	if err := s.Events.CreateEvent(ctx, ev); err != nil {
		logger := s.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("write event failed", "text", ev.Text, "err", err)
	}
}

func (s *EventService) List(ctx context.Context, page domain.PageRequest) (domain.PageResult[domain.Event], error) {
	return s.Events.ListEvents(ctx, page)
}

func (s *EventService) Since(ctx context.Context, since time.Time) (int, error) {
	return s.Events.CountSince(ctx, since)
}
