package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"hiddenplaces/internal/domain"
)

type LocationsStore interface {
	CreateLocation(ctx context.Context, l domain.Location) (domain.Location, error)
	GetLocation(ctx context.Context, id int64) (domain.Location, error)
	UpdateLocation(ctx context.Context, l domain.Location) error
	DeleteLocation(ctx context.Context, id int64) error
	SetPhoto(ctx context.Context, id int64, uploadID *int64) error
	ListLocations(ctx context.Context, f domain.LocationFilter, page domain.PageRequest) (domain.PageResult[domain.Location], error)
	ListAll(ctx context.Context, f domain.LocationFilter) ([]domain.Location, error)
	ListChildren(ctx context.Context, parentID int64) ([]domain.Location, error)
	ListVisited(ctx context.Context, userID int64, f domain.LocationFilter, page domain.PageRequest) (domain.PageResult[domain.LocationVisit], error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// LocationInput is the common part of the location form.
type LocationInput struct {
	Name        string
	Description string
	About       string
	Latitude    string
	Longitude   string
	Published   bool
	Country     int
	CategoryIDs []int64
	Kind        KindForm
}

// InputFor fills a form from a stored location.
func InputFor(l domain.Location) LocationInput {
	in := LocationInput{
		Name:        l.Name,
		Description: l.Description,
		About:       l.About,
		Latitude:    l.Latitude.DecimalString(),
		Longitude:   l.Longitude.DecimalString(),
		Published:   l.Published,
		Country:     int(l.Country),
	}
	for _, c := range l.Categories {
		in.CategoryIDs = append(in.CategoryIDs, c.ID)
	}
	if st, err := StrategyOf(l.Kind); err == nil {
		in.Kind = st.Load(l.Kind)
	}
	return in
}

type LocationService struct {
	Locations LocationsStore
	Links     LinksStore
	POIs      POIsStore
	Visits    VisitsStore
	Bookmarks BookmarksStore
	Uploads   *UploadService
	Events    EventLogger
	Logger    *slog.Logger
	Now       func() time.Time
}

func (s *LocationService) init() {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
}

// apply validates in and writes it into l, including the kind payload.
func (s *LocationService) apply(l *domain.Location, st KindStrategy, in LocationInput) error {
	fe := fieldErrors{}
	name := strings.TrimSpace(in.Name)
	description := strings.TrimSpace(in.Description)
	fe.required("name", name)
	fe.maxLen("name", name, domain.MaxLocationNameLen)
	fe.maxLen("description", description, domain.MaxDescriptionLen)

	lat, err := domain.ParseLatLon(in.Latitude)
	if err != nil || !lat.IsLatitude {
		fe.add("latitude", `Enter a latitude such as 50.1234N or 50°7'24.2"N.`)
	}
	lon, err := domain.ParseLatLon(in.Longitude)
	if err != nil || lon.IsLatitude {
		fe.add("longitude", `Enter a longitude such as 14.4211E or 14°25'16"E.`)
	}
	country := domain.Country(in.Country)
	if !country.Valid() {
		fe.add("country", "Choose a valid country.")
	}

	if l.Kind == nil {
		l.Kind = st.New()
	}
	if err := st.Apply(l.Kind, in.Kind); err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		for k, v := range ve.Fields {
			fe.add(k, v)
		}
	}
	if err := fe.err(); err != nil {
		return err
	}

	l.Name = name
	l.Description = description
	l.About = strings.TrimSpace(in.About)
	l.Latitude = lat
	l.Longitude = lon
	l.Published = in.Published
	l.Country = country
	l.Categories = l.Categories[:0]
	seen := map[int64]bool{}
	for _, id := range in.CategoryIDs {
		if !seen[id] {
			seen[id] = true
			l.Categories = append(l.Categories, domain.Category{ID: id})
		}
	}
	return nil
}

// Create adds a location of the kind named by typeStr, optionally below
// parentID and with a title photo.
func (s *LocationService) Create(ctx context.Context, actor domain.User, typeStr string, in LocationInput, parentID *int64, photo *FileUpload) (domain.Location, error) {
	s.init()
	st, err := StrategyFor(typeStr)
	if err != nil {
		return domain.Location{}, err
	}

	if parentID != nil {
		if _, err := s.visible(ctx, actor, *parentID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Location{}, domain.FieldError("parent", "Parent location does not exist.")
			}
			return domain.Location{}, err
		}
	}

	now := s.Now()
	l := domain.Location{
		UUID:     uuid.NewString(),
		Created:  now,
		Modified: now,
		OwnerID:  actor.ID,
		ParentID: parentID,
	}
	if err := s.apply(&l, st, in); err != nil {
		return domain.Location{}, err
	}
	if photo != nil {
		fe := fieldErrors{}
		checkFile(fe, photo.Name, true)
		if err := fe.err(); err != nil {
			return domain.Location{}, err
		}
	}

	l, err = s.Locations.CreateLocation(ctx, l)
	if err != nil {
		return domain.Location{}, err
	}
	logEvent(ctx, s.Events, &actor, domain.CreateLocationEvent(l))

	if photo != nil {
		if err := s.setTitlePhoto(ctx, actor, &l, *photo); err != nil {
			s.Logger.Warn("store title photo failed", "location_id", l.ID, "err", err)
		}
	}
	return l, nil
}

func (s *LocationService) setTitlePhoto(ctx context.Context, actor domain.User, l *domain.Location, photo FileUpload) error {
	owner := domain.UploadOwner{Kind: domain.OwnerLocation, ID: l.ID, UUID: l.UUID, LocationID: l.ID, CreatedBy: l.OwnerID}
	up, err := s.Uploads.Create(ctx, actor, owner, photo, UploadMeta{Name: l.Name, Type: domain.UploadPhoto})
	if err != nil {
		return err
	}
	if err := s.Locations.SetPhoto(ctx, l.ID, &up.ID); err != nil {
		return err
	}
	l.PhotoID = &up.ID
	l.Photo = &up
	return nil
}

// visible loads a location that viewer may see. Unpublished locations of
// other users are ErrNotFound for everyone but moderators.
func (s *LocationService) visible(ctx context.Context, viewer domain.User, id int64) (domain.Location, error) {
	l, err := s.Locations.GetLocation(ctx, id)
	if err != nil {
		return domain.Location{}, err
	}
	if !l.VisibleTo(viewer) && !viewer.Role.IsModerator() {
		return domain.Location{}, domain.ErrNotFound
	}
	return l, nil
}

func (s *LocationService) Location(ctx context.Context, viewer domain.User, id int64) (domain.Location, error) {
	return s.visible(ctx, viewer, id)
}

// Get loads everything shown on the location page.
func (s *LocationService) Get(ctx context.Context, viewer domain.User, id int64) (domain.LocationDetail, error) {
	l, err := s.visible(ctx, viewer, id)
	if err != nil {
		return domain.LocationDetail{}, err
	}
	d := domain.LocationDetail{Location: l}

	if l.ParentID != nil {
		if p, err := s.visible(ctx, viewer, *l.ParentID); err == nil {
			d.Parent = &p
		} else if !errors.Is(err, domain.ErrNotFound) {
			return domain.LocationDetail{}, err
		}
	}

	children, err := s.Locations.ListChildren(ctx, id)
	if err != nil {
		return domain.LocationDetail{}, err
	}
	for _, c := range children {
		if c.VisibleTo(viewer) || viewer.Role.IsModerator() {
			d.Children = append(d.Children, c)
		}
	}

	if d.Links, err = s.Links.ListLinks(ctx, id); err != nil {
		return domain.LocationDetail{}, err
	}
	if d.POIs, err = s.POIs.ListPOIs(ctx, id); err != nil {
		return domain.LocationDetail{}, err
	}

	ups, err := s.Uploads.ListForOwner(ctx, l.UUID)
	if err != nil {
		return domain.LocationDetail{}, err
	}
	d.Photos, d.Files = splitUploads(ups)

	if d.Visits, err = s.Visits.ListVisits(ctx, id); err != nil {
		return domain.LocationDetail{}, err
	}
	for i := range d.Visits {
		photos, err := s.Uploads.ListForOwner(ctx, d.Visits[i].UUID)
		if err != nil {
			return domain.LocationDetail{}, err
		}
		d.Visits[i].Photos = photos
	}

	if d.Bookmarks, err = s.Bookmarks.ListForUser(ctx, viewer.ID, &id); err != nil {
		return domain.LocationDetail{}, err
	}
	return d, nil
}

// Edit updates a location owned by actor, or any location for moderators.
// The kind cannot change.
func (s *LocationService) Edit(ctx context.Context, actor domain.User, id int64, in LocationInput, photo *FileUpload) (domain.Location, error) {
	s.init()
	l, err := s.Locations.GetLocation(ctx, id)
	if err != nil {
		return domain.Location{}, err
	}
	if !actor.CanModify(l.OwnerID) {
		return domain.Location{}, domain.ErrForbidden
	}
	st, err := StrategyOf(l.Kind)
	if err != nil {
		return domain.Location{}, err
	}
	if err := s.apply(&l, st, in); err != nil {
		return domain.Location{}, err
	}
	if photo != nil {
		fe := fieldErrors{}
		checkFile(fe, photo.Name, true)
		if err := fe.err(); err != nil {
			return domain.Location{}, err
		}
	}

	l.Modified = s.Now()
	if err := s.Locations.UpdateLocation(ctx, l); err != nil {
		return domain.Location{}, err
	}
	logEvent(ctx, s.Events, &actor, domain.ModifyLocationEvent(l))

	if photo != nil {
		if err := s.setTitlePhoto(ctx, actor, &l, *photo); err != nil {
			return l, err
		}
	}
	return l, nil
}

// Delete removes a location with its visits, uploads and their files.
// Restricted to moderators.
func (s *LocationService) Delete(ctx context.Context, actor domain.User, id int64) (domain.Location, error) {
	s.init()
	if !actor.Role.IsModerator() {
		return domain.Location{}, domain.ErrForbidden
	}
	l, err := s.Locations.GetLocation(ctx, id)
	if err != nil {
		return domain.Location{}, err
	}

	visits, err := s.Visits.ListVisits(ctx, id)
	if err != nil {
		return domain.Location{}, err
	}
	if err := s.Locations.DeleteLocation(ctx, id); err != nil {
		return domain.Location{}, err
	}

	// Upload cleanup is best effort once the row is gone.
	owners := []string{l.UUID}
	for _, v := range visits {
		owners = append(owners, v.UUID)
	}
	for _, owner := range owners {
		if err := s.Uploads.DeleteForOwner(ctx, owner); err != nil {
			s.Logger.Warn("delete location uploads failed", "location_id", id, "owner", owner, "err", err)
		}
	}
	logEvent(ctx, s.Events, &actor, domain.DeleteLocationEvent(l))
	return l, nil
}

func viewerFilter(viewer domain.User, t domain.LocationType) domain.LocationFilter {
	id := viewer.ID
	return domain.LocationFilter{Type: t, ViewerID: &id}
}

// Browse lists locations of type t visible to viewer.
func (s *LocationService) Browse(ctx context.Context, viewer domain.User, t domain.LocationType, page domain.PageRequest) (domain.PageResult[domain.Location], error) {
	return s.Locations.ListLocations(ctx, viewerFilter(viewer, t), page)
}

func (s *LocationService) Search(ctx context.Context, viewer domain.User, q string, page domain.PageRequest) (domain.PageResult[domain.Location], error) {
	f := viewerFilter(viewer, domain.LocationAll)
	f.Search = strings.TrimSpace(q)
	if f.Search == "" {
		return domain.PageResult[domain.Location]{Page: page.Page, PerPage: page.PerPage}, nil
	}
	return s.Locations.ListLocations(ctx, f, page)
}

// Owned lists every location of owner, published or not.
func (s *LocationService) Owned(ctx context.Context, owner domain.User, t domain.LocationType, page domain.PageRequest) (domain.PageResult[domain.Location], error) {
	id := owner.ID
	return s.Locations.ListLocations(ctx, domain.LocationFilter{Type: t, OwnerID: &id}, page)
}

// ByUser lists locations created by userID that viewer may see.
func (s *LocationService) ByUser(ctx context.Context, viewer domain.User, userID int64, page domain.PageRequest) (domain.PageResult[domain.Location], error) {
	f := viewerFilter(viewer, domain.LocationAll)
	f.OwnerID = &userID
	return s.Locations.ListLocations(ctx, f, page)
}

// Visited lists each location userID visited once, latest visit first.
func (s *LocationService) Visited(ctx context.Context, viewer domain.User, userID int64, t domain.LocationType, page domain.PageRequest) (domain.PageResult[domain.LocationVisit], error) {
	return s.Locations.ListVisited(ctx, userID, viewerFilter(viewer, t), page)
}

// All lists locations regardless of visibility, for the back office.
func (s *LocationService) All(ctx context.Context, t domain.LocationType, page domain.PageRequest) (domain.PageResult[domain.Location], error) {
	return s.Locations.ListLocations(ctx, domain.LocationFilter{Type: t}, page)
}

func (s *LocationService) Unpublished(ctx context.Context, t domain.LocationType, page domain.PageRequest) (domain.PageResult[domain.Location], error) {
	return s.Locations.ListLocations(ctx, domain.LocationFilter{Type: t, OnlyUnpublished: true}, page)
}

// Since lists locations created after ts.
func (s *LocationService) Since(ctx context.Context, ts time.Time, page domain.PageRequest) (domain.PageResult[domain.Location], error) {
	return s.Locations.ListLocations(ctx, domain.LocationFilter{Since: &ts}, page)
}

// InCategory lists locations of a category visible to viewer.
func (s *LocationService) InCategory(ctx context.Context, viewer domain.User, categoryID int64, page domain.PageRequest) (domain.PageResult[domain.Location], error) {
	f := viewerFilter(viewer, domain.LocationAll)
	f.CategoryID = &categoryID
	return s.Locations.ListLocations(ctx, f, page)
}

// ForMap returns every location of type t visible to viewer.
func (s *LocationService) ForMap(ctx context.Context, viewer domain.User, t domain.LocationType) ([]domain.Location, error) {
	return s.Locations.ListAll(ctx, viewerFilter(viewer, t))
}
