package service

import (
	"context"
	"errors"
	"testing"

	"hiddenplaces/internal/domain"
)

func publishedLocation(t *testing.T) *LocationService {
	return &LocationService{Locations: &stubLocationsStore{t: t, getLocationFunc: func(context.Context, int64) (domain.Location, error) {
		return domain.Location{ID: 8, Name: "Adit", Published: true, OwnerID: 1}, nil
	}}}
}

func TestAddLinkValidation(t *testing.T) {
	svc := &LinkService{Links: &stubLinksStore{t: t}, Locations: publishedLocation(t)}
	actor := domain.User{ID: 5, Role: domain.RoleUser}

	for _, url := range []string{"", "ftp://files.example", "javascript:alert(1)"} {
		_, err := svc.AddLink(context.Background(), actor, 8, LinkInput{Name: "Wiki", URL: url})
		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Fields["url"] == "" {
			t.Fatalf("url %q: err = %v", url, err)
		}
	}
}

func TestAddLink(t *testing.T) {
	var stored domain.Link
	svc := &LinkService{
		Links: &stubLinksStore{t: t, createLinkFunc: func(_ context.Context, l domain.Link) (domain.Link, error) {
			stored = l
			return l, nil
		}},
		Locations: publishedLocation(t),
	}

	_, err := svc.AddLink(context.Background(), domain.User{ID: 5}, 8, LinkInput{Name: " Wiki ", URL: "https://wiki.example/adit"})
	if err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if stored.Name != "Wiki" || stored.LocationID != 8 || stored.CreatedByID != 5 {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestAddPOICoordinates(t *testing.T) {
	var stored domain.POI
	svc := &LinkService{
		POIs: &stubPOIsStore{t: t, createPOIFunc: func(_ context.Context, p domain.POI) (domain.POI, error) {
			stored = p
			return p, nil
		}},
		Locations: publishedLocation(t),
	}
	actor := domain.User{ID: 5}

	_, err := svc.AddPOI(context.Background(), actor, 8, POIInput{Name: "Shaft", Latitude: "14.5E", Longitude: "50.1N"})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Fields["latitude"] == "" || ve.Fields["longitude"] == "" {
		t.Fatalf("swapped axes: err = %v", err)
	}

	if _, err := svc.AddPOI(context.Background(), actor, 8, POIInput{Name: "Shaft", Latitude: "50.1N", Longitude: "14.5E"}); err != nil {
		t.Fatalf("AddPOI: %v", err)
	}
	if !stored.Latitude.IsLatitude || stored.Longitude.IsLatitude || stored.LocationID != 8 {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestRemoveLinkPermissions(t *testing.T) {
	link := domain.Link{ID: 3, CreatedByID: 5}
	deleted := false
	svc := &LinkService{Links: &stubLinksStore{t: t,
		getLinkFunc:    func(context.Context, int64) (domain.Link, error) { return link, nil },
		deleteLinkFunc: func(context.Context, int64) error { deleted = true; return nil },
	}}

	if _, err := svc.RemoveLink(context.Background(), domain.User{ID: 6, Role: domain.RoleContributor}, 3); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if deleted {
		t.Fatalf("link deleted by a stranger")
	}
	if _, err := svc.RemoveLink(context.Background(), domain.User{ID: 5, Role: domain.RoleUser}, 3); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if !deleted {
		t.Fatalf("link not deleted")
	}
}
