package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"hiddenplaces/internal/domain"
)

type VisitsStore interface {
	CreateVisit(ctx context.Context, v domain.Visit) (domain.Visit, error)
	GetVisit(ctx context.Context, id int64) (domain.Visit, error)
	UpdateVisit(ctx context.Context, id int64, visitedOn time.Time, comment string) error
	DeleteVisit(ctx context.Context, id int64) error
	ListVisits(ctx context.Context, locationID int64) ([]domain.Visit, error)
}

const dateLayout = "2006-01-02"

type VisitInput struct {
	VisitedOn string
	Comment   string
}

type VisitService struct {
	Visits    VisitsStore
	Locations *LocationService
	Uploads   *UploadService
	Events    EventLogger
	Now       func() time.Time
}

func (s *VisitService) init() {
	if s.Now == nil {
		s.Now = time.Now
	}
}

func (s *VisitService) parse(in VisitInput) (time.Time, string, error) {
	fe := fieldErrors{}
	comment := strings.TrimSpace(in.Comment)
	fe.maxLen("comment", comment, domain.MaxCommentLen)

	day, err := time.Parse(dateLayout, strings.TrimSpace(in.VisitedOn))
	if err != nil {
		fe.add("visited_on", "Enter a date as YYYY-MM-DD.")
	} else {
		now := s.Now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if day.After(today) {
			fe.add("visited_on", "The date cannot be in the future.")
		}
	}
	return day, comment, fe.err()
}

func (s *VisitService) Get(ctx context.Context, id int64) (domain.Visit, error) {
	return s.Visits.GetVisit(ctx, id)
}

// Add records a visit of a location visible to actor.
func (s *VisitService) Add(ctx context.Context, actor domain.User, locationID int64, in VisitInput) (domain.Visit, error) {
	s.init()
	l, err := s.Locations.Location(ctx, actor, locationID)
	if err != nil {
		return domain.Visit{}, err
	}
	day, comment, err := s.parse(in)
	if err != nil {
		return domain.Visit{}, err
	}
	v, err := s.Visits.CreateVisit(ctx, domain.Visit{
		UUID:       uuid.NewString(),
		VisitedOn:  day,
		Comment:    comment,
		UserID:     actor.ID,
		LocationID: l.ID,
	})
	if err != nil {
		return domain.Visit{}, err
	}
	logEvent(ctx, s.Events, &actor, domain.AddVisitEvent(l))
	return v, nil
}

func (s *VisitService) Edit(ctx context.Context, actor domain.User, id int64, in VisitInput) (domain.Visit, error) {
	s.init()
	v, err := s.Visits.GetVisit(ctx, id)
	if err != nil {
		return domain.Visit{}, err
	}
	if !actor.CanModify(v.UserID) {
		return domain.Visit{}, domain.ErrForbidden
	}
	day, comment, err := s.parse(in)
	if err != nil {
		return domain.Visit{}, err
	}
	if err := s.Visits.UpdateVisit(ctx, id, day, comment); err != nil {
		return domain.Visit{}, err
	}
	v.VisitedOn = day
	v.Comment = comment

	if l, err := s.Locations.Locations.GetLocation(ctx, v.LocationID); err == nil {
		logEvent(ctx, s.Events, &actor, domain.ModifyVisitEvent(l))
	}
	return v, nil
}

// Delete removes a visit and its photos.
func (s *VisitService) Delete(ctx context.Context, actor domain.User, id int64) (domain.Visit, error) {
	v, err := s.Visits.GetVisit(ctx, id)
	if err != nil {
		return domain.Visit{}, err
	}
	if !actor.CanModify(v.UserID) {
		return domain.Visit{}, domain.ErrForbidden
	}
	if err := s.Uploads.DeleteForOwner(ctx, v.UUID); err != nil {
		return domain.Visit{}, err
	}
	if err := s.Visits.DeleteVisit(ctx, id); err != nil {
		return domain.Visit{}, err
	}
	if l, err := s.Locations.Locations.GetLocation(ctx, v.LocationID); err == nil {
		logEvent(ctx, s.Events, &actor, domain.DeleteVisitEvent(l))
	}
	return v, nil
}
