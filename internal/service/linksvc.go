package service

import (
	"context"
	"strings"

	"hiddenplaces/internal/domain"
)

type LinksStore interface {
	CreateLink(ctx context.Context, l domain.Link) (domain.Link, error)
	GetLink(ctx context.Context, id int64) (domain.Link, error)
	DeleteLink(ctx context.Context, id int64) error
	ListLinks(ctx context.Context, locationID int64) ([]domain.Link, error)
}

type POIsStore interface {
	CreatePOI(ctx context.Context, p domain.POI) (domain.POI, error)
	GetPOI(ctx context.Context, id int64) (domain.POI, error)
	DeletePOI(ctx context.Context, id int64) error
	ListPOIs(ctx context.Context, locationID int64) ([]domain.POI, error)
}

// LinkService manages the external links and points of interest of a
// location.
type LinkService struct {
	Links     LinksStore
	POIs      POIsStore
	Locations *LocationService
}

type LinkInput struct {
	Name string
	URL  string
}

func (s *LinkService) AddLink(ctx context.Context, actor domain.User, locationID int64, in LinkInput) (domain.Link, error) {
	l, err := s.Locations.Location(ctx, actor, locationID)
	if err != nil {
		return domain.Link{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.URL = strings.TrimSpace(in.URL)

	fe := fieldErrors{}
	fe.required("name", in.Name)
	fe.maxLen("name", in.Name, domain.MaxLocationNameLen)
	fe.maxLen("url", in.URL, domain.MaxURLLen)
	if !validHTTPURL(in.URL) {
		fe.add("url", "Enter an http or https address.")
	}
	if err := fe.err(); err != nil {
		return domain.Link{}, err
	}

	return s.Links.CreateLink(ctx, domain.Link{
		Name:        in.Name,
		URL:         in.URL,
		CreatedByID: actor.ID,
		LocationID:  l.ID,
	})
}

// RemoveLink is allowed to the creator of the link and to moderators.
func (s *LinkService) RemoveLink(ctx context.Context, actor domain.User, id int64) (domain.Link, error) {
	link, err := s.Links.GetLink(ctx, id)
	if err != nil {
		return domain.Link{}, err
	}
	if !actor.CanModify(link.CreatedByID) {
		return domain.Link{}, domain.ErrForbidden
	}
	if err := s.Links.DeleteLink(ctx, id); err != nil {
		return domain.Link{}, err
	}
	return link, nil
}

type POIInput struct {
	Name        string
	Description string
	Type        int
	Latitude    string
	Longitude   string
}

func (s *LinkService) AddPOI(ctx context.Context, actor domain.User, locationID int64, in POIInput) (domain.POI, error) {
	l, err := s.Locations.Location(ctx, actor, locationID)
	if err != nil {
		return domain.POI{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)

	fe := fieldErrors{}
	fe.required("name", in.Name)
	fe.maxLen("name", in.Name, domain.MaxLocationNameLen)
	fe.maxLen("description", in.Description, domain.MaxShortDescLen)
	if !domain.POIType(in.Type).Valid() {
		fe.add("type", "Choose a valid type.")
	}
	lat, err := domain.ParseLatLon(in.Latitude)
	if err != nil || !lat.IsLatitude {
		fe.add("latitude", "Enter a valid latitude.")
	}
	lon, err := domain.ParseLatLon(in.Longitude)
	if err != nil || lon.IsLatitude {
		fe.add("longitude", "Enter a valid longitude.")
	}
	if err := fe.err(); err != nil {
		return domain.POI{}, err
	}

	return s.POIs.CreatePOI(ctx, domain.POI{
		Name:        in.Name,
		Description: in.Description,
		Type:        domain.POIType(in.Type),
		Latitude:    lat,
		Longitude:   lon,
		CreatedByID: actor.ID,
		LocationID:  l.ID,
	})
}

// RemovePOI is allowed to the creator of the point and to moderators.
func (s *LinkService) RemovePOI(ctx context.Context, actor domain.User, id int64) (domain.POI, error) {
	p, err := s.POIs.GetPOI(ctx, id)
	if err != nil {
		return domain.POI{}, err
	}
	if !actor.CanModify(p.CreatedByID) {
		return domain.POI{}, domain.ErrForbidden
	}
	if err := s.POIs.DeletePOI(ctx, id); err != nil {
		return domain.POI{}, err
	}
	return p, nil
}
