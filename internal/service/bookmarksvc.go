package service

import (
	"context"
	"errors"
	"strings"

	"hiddenplaces/internal/domain"
)

type BookmarksStore interface {
	// CreateList inserts the list and, with locationID set, its first
	// location in one transaction.
	CreateList(ctx context.Context, userID int64, name string, locationID *int64) (domain.BookmarkList, error)
	GetList(ctx context.Context, id int64) (domain.BookmarkList, error)
	GetListByName(ctx context.Context, userID int64, name string) (domain.BookmarkList, error)
	ListForUser(ctx context.Context, userID int64, locationID *int64) ([]domain.BookmarkList, error)
	AddLocation(ctx context.Context, listID, locationID int64) (bool, error)
	RemoveLocation(ctx context.Context, listID, locationID int64) (bool, error)
}

type BookmarkService struct {
	Bookmarks BookmarksStore
	Locations *LocationService
}

var errBookmarkNameTaken = domain.FieldError("name", "A list with this name already exists.")

// Create adds a bookmark list and, when locationID is set, puts the
// location on it.
func (s *BookmarkService) Create(ctx context.Context, u domain.User, name string, locationID *int64) (domain.BookmarkList, error) {
	name = strings.TrimSpace(name)
	fe := fieldErrors{}
	fe.required("name", name)
	fe.maxLen("name", name, domain.MaxBookmarksNameLen)
	if err := fe.err(); err != nil {
		return domain.BookmarkList{}, err
	}

	if locationID != nil {
		if _, err := s.Locations.Location(ctx, u, *locationID); err != nil {
			return domain.BookmarkList{}, err
		}
	}
	if _, err := s.Bookmarks.GetListByName(ctx, u.ID, name); err == nil {
		return domain.BookmarkList{}, errBookmarkNameTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.BookmarkList{}, err
	}

	list, err := s.Bookmarks.CreateList(ctx, u.ID, name, locationID)
	if errors.Is(err, domain.ErrBookmarksNameTaken) {
		return domain.BookmarkList{}, errBookmarkNameTaken
	}
	return list, err
}

func (s *BookmarkService) ListForUser(ctx context.Context, u domain.User) ([]domain.BookmarkList, error) {
	return s.Bookmarks.ListForUser(ctx, u.ID, nil)
}

// ListLocations pages through the list called name of u.
func (s *BookmarkService) ListLocations(ctx context.Context, u domain.User, name string, page domain.PageRequest) (domain.BookmarkList, domain.PageResult[domain.Location], error) {
	list, err := s.Bookmarks.GetListByName(ctx, u.ID, name)
	if err != nil {
		return domain.BookmarkList{}, domain.PageResult[domain.Location]{}, err
	}
	f := viewerFilter(u, domain.LocationAll)
	f.BookmarkID = &list.ID
	res, err := s.Locations.Locations.ListLocations(ctx, f, page)
	if err != nil {
		return domain.BookmarkList{}, domain.PageResult[domain.Location]{}, err
	}
	return list, res, nil
}

func (s *BookmarkService) ownList(ctx context.Context, u domain.User, listID, locationID int64) (domain.BookmarkList, error) {
	list, err := s.Bookmarks.GetList(ctx, listID)
	if err != nil {
		return domain.BookmarkList{}, err
	}
	if list.UserID != u.ID {
		return domain.BookmarkList{}, domain.ErrForbidden
	}
	if _, err := s.Locations.Location(ctx, u, locationID); err != nil {
		return domain.BookmarkList{}, err
	}
	return list, nil
}

// Add puts a location on a list of u. A location already on the list is
// ErrNotFound.
func (s *BookmarkService) Add(ctx context.Context, u domain.User, listID, locationID int64) (domain.BookmarkList, error) {
	list, err := s.ownList(ctx, u, listID, locationID)
	if err != nil {
		return domain.BookmarkList{}, err
	}
	added, err := s.Bookmarks.AddLocation(ctx, listID, locationID)
	if err != nil {
		return domain.BookmarkList{}, err
	}
	if !added {
		return domain.BookmarkList{}, domain.ErrNotFound
	}
	list.Count++
	return list, nil
}

// Remove takes a location off a list of u. A location not on the list is
// ErrNotFound.
func (s *BookmarkService) Remove(ctx context.Context, u domain.User, listID, locationID int64) (domain.BookmarkList, error) {
	list, err := s.ownList(ctx, u, listID, locationID)
	if err != nil {
		return domain.BookmarkList{}, err
	}
	removed, err := s.Bookmarks.RemoveLocation(ctx, listID, locationID)
	if err != nil {
		return domain.BookmarkList{}, err
	}
	if !removed {
		return domain.BookmarkList{}, domain.ErrNotFound
	}
	list.Count--
	return list, nil
}
