package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hiddenplaces/internal/domain"
)

func validLocationInput() LocationInput {
	return LocationInput{
		Name:      " Old adit ",
		Latitude:  "50.1234N",
		Longitude: "14.4211E",
		Published: true,
		Country:   int(domain.CountryCzechia),
		Kind: KindForm{
			Type:          int(domain.UndergroundAdit),
			Accessibility: int(domain.UndergroundFreelyAccessible),
		},
		CategoryIDs: []int64{3, 3, 4},
	}
}

func TestLocationServiceCreate(t *testing.T) {
	now := time.Date(2024, 4, 4, 0, 0, 0, 0, time.UTC)
	actor := domain.User{ID: 6, Role: domain.RoleUser}
	var created domain.Location
	events := &eventRecorder{}
	svc := &LocationService{
		Locations: &stubLocationsStore{t: t, createLocationFunc: func(_ context.Context, l domain.Location) (domain.Location, error) {
			created = l
			l.ID = 12
			return l, nil
		}},
		Events: events,
		Logger: discardLogger(),
		Now:    func() time.Time { return now },
	}

	l, err := svc.Create(context.Background(), actor, "underground", validLocationInput(), nil, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.ID != 12 || created.Name != "Old adit" || created.OwnerID != 6 || created.UUID == "" {
		t.Fatalf("unexpected location: %+v", created)
	}
	if created.Type() != domain.LocationUnderground || len(created.Categories) != 2 {
		t.Fatalf("kind or categories wrong: %v %v", created.Type(), created.Categories)
	}
	if len(events.events) != 1 {
		t.Fatalf("expected create event")
	}
}

func TestLocationServiceCreateRejects(t *testing.T) {
	actor := domain.User{ID: 6, Role: domain.RoleUser}

	t.Run("unknown type", func(t *testing.T) {
		svc := &LocationService{Locations: &stubLocationsStore{t: t}}
		if _, err := svc.Create(context.Background(), actor, "castle", validLocationInput(), nil, nil); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("invalid fields", func(t *testing.T) {
		svc := &LocationService{Locations: &stubLocationsStore{t: t}}
		in := validLocationInput()
		in.Name = ""
		in.Latitude = "14.4211E"
		in.Kind.Accessibility = 99
		_, err := svc.Create(context.Background(), actor, "underground", in, nil, nil)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, f := range []string{"name", "latitude", "accessibility"} {
			if ve.Fields[f] == "" {
				t.Fatalf("missing %s error: %v", f, ve.Fields)
			}
		}
	})

	t.Run("hidden parent", func(t *testing.T) {
		svc := &LocationService{Locations: &stubLocationsStore{t: t, getLocationFunc: func(context.Context, int64) (domain.Location, error) {
			return domain.Location{ID: 1, OwnerID: 99, Published: false}, nil
		}}}
		parent := int64(1)
		_, err := svc.Create(context.Background(), actor, "urbex", validLocationInput(), &parent, nil)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Fields["parent"] == "" {
			t.Fatalf("expected parent error, got %v", err)
		}
	})
}

func TestLocationServiceCreateWithTitlePhoto(t *testing.T) {
	files := newFakeFiles()
	var photoID *int64
	uploads := &UploadService{
		Uploads: &stubUploadsStore{t: t, createUploadFunc: func(_ context.Context, u domain.Upload) (domain.Upload, error) {
			u.ID = 77
			return u, nil
		}},
		Files:  files,
		Logger: discardLogger(),
	}
	svc := &LocationService{
		Locations: &stubLocationsStore{
			t: t,
			createLocationFunc: func(_ context.Context, l domain.Location) (domain.Location, error) {
				l.ID = 12
				return l, nil
			},
			setPhotoFunc: func(_ context.Context, id int64, uploadID *int64) error {
				photoID = uploadID
				return nil
			},
		},
		Uploads: uploads,
		Logger:  discardLogger(),
	}

	l, err := svc.Create(context.Background(), domain.User{ID: 6, Role: domain.RoleUser}, "underground", validLocationInput(), nil,
		&FileUpload{Name: "title.jpg", Body: strings.NewReader("img")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if photoID == nil || *photoID != 77 || l.Photo == nil {
		t.Fatalf("title photo not attached: %v", photoID)
	}
	if len(files.thumbs) != 1 {
		t.Fatalf("expected one thumbnail, got %v", files.thumbs)
	}
}

func TestLocationServiceVisibility(t *testing.T) {
	hidden := domain.Location{ID: 5, OwnerID: 2, Published: false}
	svc := &LocationService{Locations: &stubLocationsStore{t: t, getLocationFunc: func(context.Context, int64) (domain.Location, error) {
		return hidden, nil
	}}}

	tests := []struct {
		name    string
		viewer  domain.User
		wantErr error
	}{
		{"owner", domain.User{ID: 2, Role: domain.RoleNewbie}, nil},
		{"moderator", domain.User{ID: 3, Role: domain.RoleModerator}, nil},
		{"stranger", domain.User{ID: 4, Role: domain.RoleContributor}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		if _, err := svc.Location(context.Background(), tt.viewer, 5); !errors.Is(err, tt.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
		}
	}
}

func TestLocationServiceEditRequiresOwner(t *testing.T) {
	svc := &LocationService{Locations: &stubLocationsStore{t: t, getLocationFunc: func(context.Context, int64) (domain.Location, error) {
		return domain.Location{ID: 5, OwnerID: 2, Kind: &domain.Urbex{}}, nil
	}}}
	_, err := svc.Edit(context.Background(), domain.User{ID: 4, Role: domain.RoleUser}, 5, validLocationInput(), nil)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestLocationServiceDeleteRemovesUploads(t *testing.T) {
	loc := domain.Location{ID: 5, UUID: "loc", Name: "Pit"}
	var cleared []string
	deleted := false
	uploads := &UploadService{
		Uploads: &stubUploadsStore{
			t: t,
			listByObjectFunc: func(_ context.Context, uuid string) ([]domain.Upload, error) {
				cleared = append(cleared, uuid)
				return nil, nil
			},
		},
		Files:  newFakeFiles(),
		Logger: discardLogger(),
	}
	svc := &LocationService{
		Locations: &stubLocationsStore{
			t:                  t,
			getLocationFunc:    func(context.Context, int64) (domain.Location, error) { return loc, nil },
			deleteLocationFunc: func(context.Context, int64) error { deleted = true; return nil },
		},
		Visits: &stubVisitsStore{t: t, listVisitsFunc: func(context.Context, int64) ([]domain.Visit, error) {
			return []domain.Visit{{ID: 1, UUID: "v1"}, {ID: 2, UUID: "v2"}}, nil
		}},
		Uploads: uploads,
		Events:  &eventRecorder{},
	}

	if _, err := svc.Delete(context.Background(), domain.User{ID: 2, Role: domain.RoleContributor}, 5); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Delete(context.Background(), domain.User{ID: 3, Role: domain.RoleModerator}, 5); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if strings.Join(cleared, ",") != "loc,v1,v2" || !deleted {
		t.Fatalf("unexpected cleanup: %v deleted=%v", cleared, deleted)
	}
}

func TestLocationServiceDeleteKeepsUploadsWhenRowRemains(t *testing.T) {
	loc := domain.Location{ID: 5, UUID: "loc", Name: "Pit"}
	files := newFakeFiles()
	svc := &LocationService{
		Locations: &stubLocationsStore{
			t:                  t,
			getLocationFunc:    func(context.Context, int64) (domain.Location, error) { return loc, nil },
			deleteLocationFunc: func(context.Context, int64) error { return errors.New("db down") },
		},
		Visits: &stubVisitsStore{t: t, listVisitsFunc: func(context.Context, int64) ([]domain.Visit, error) {
			return []domain.Visit{{ID: 1, UUID: "v1"}}, nil
		}},
		Uploads: &UploadService{Uploads: &stubUploadsStore{t: t}, Files: files, Logger: discardLogger()},
		Events:  &eventRecorder{},
		Logger:  discardLogger(),
	}

	if _, err := svc.Delete(context.Background(), domain.User{ID: 3, Role: domain.RoleModerator}, 5); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLocationServiceDeleteToleratesUploadFailure(t *testing.T) {
	loc := domain.Location{ID: 5, UUID: "loc", Name: "Pit"}
	events := &eventRecorder{}
	svc := &LocationService{
		Locations: &stubLocationsStore{
			t:                  t,
			getLocationFunc:    func(context.Context, int64) (domain.Location, error) { return loc, nil },
			deleteLocationFunc: func(context.Context, int64) error { return nil },
		},
		Visits: &stubVisitsStore{t: t, listVisitsFunc: func(context.Context, int64) ([]domain.Visit, error) { return nil, nil }},
		Uploads: &UploadService{
			Uploads: &stubUploadsStore{t: t, listByObjectFunc: func(context.Context, string) ([]domain.Upload, error) {
				return nil, errors.New("db down")
			}},
			Files:  newFakeFiles(),
			Logger: discardLogger(),
		},
		Events: events,
		Logger: discardLogger(),
	}

	got, err := svc.Delete(context.Background(), domain.User{ID: 3, Role: domain.RoleModerator}, 5)
	if err != nil || got.ID != 5 {
		t.Fatalf("Delete: %+v, %v", got, err)
	}
	if len(events.events) != 1 {
		t.Fatalf("events: %+v", events.events)
	}
}

func TestLocationServiceSearchEmptyQuery(t *testing.T) {
	svc := &LocationService{Locations: &stubLocationsStore{t: t}}
	res, err := svc.Search(context.Background(), domain.User{ID: 1}, "   ", domain.NewPageRequest(1, 20))
	if err != nil || res.Total != 0 || len(res.Items) != 0 {
		t.Fatalf("Search: %+v, %v", res, err)
	}
}
