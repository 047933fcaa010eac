package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hiddenplaces/internal/domain"
)

type locationGetterFunc func(ctx context.Context, id int64) (domain.Location, error)

func (f locationGetterFunc) GetLocation(ctx context.Context, id int64) (domain.Location, error) {
	return f(ctx, id)
}

type visitGetterFunc func(ctx context.Context, id int64) (domain.Visit, error)

func (f visitGetterFunc) GetVisit(ctx context.Context, id int64) (domain.Visit, error) {
	return f(ctx, id)
}

func TestUploadServiceCreatePhoto(t *testing.T) {
	now := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	files := newFakeFiles()
	var row domain.Upload
	svc := &UploadService{
		Uploads: &stubUploadsStore{t: t, createUploadFunc: func(_ context.Context, u domain.Upload) (domain.Upload, error) {
			row = u
			u.ID = 40
			return u, nil
		}},
		Files:  files,
		Logger: discardLogger(),
		Now:    func() time.Time { return now },
	}
	owner := domain.UploadOwner{Kind: domain.OwnerLocation, ID: 3, UUID: "loc-uuid"}

	up, err := svc.Create(context.Background(), domain.User{ID: 6, Role: domain.RoleUser}, owner,
		FileUpload{Name: "entrance.jpg", Body: strings.NewReader("img")},
		UploadMeta{Type: domain.UploadPhoto})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if up.ID != 40 || row.Name != "entrance" || row.ObjectUUID != "loc-uuid" || row.CreatedByID != 6 {
		t.Fatalf("unexpected row: %+v", row)
	}
	if !strings.HasPrefix(row.Path, "location/3/photos/") || !files.thumbs[row.Path] {
		t.Fatalf("photo not stored with thumbnail: %q %v", row.Path, files.thumbs)
	}
}

func TestUploadServiceCreateRemovesFileWhenRowFails(t *testing.T) {
	files := newFakeFiles()
	svc := &UploadService{
		Uploads: &stubUploadsStore{t: t, createUploadFunc: func(context.Context, domain.Upload) (domain.Upload, error) {
			return domain.Upload{}, errors.New("db down")
		}},
		Files:  files,
		Logger: discardLogger(),
	}

	_, err := svc.Create(context.Background(), domain.User{ID: 6}, domain.UploadOwner{Kind: domain.OwnerCategory, ID: 2},
		FileUpload{Name: "map.pdf", Body: strings.NewReader("%PDF")}, UploadMeta{Name: "Map", Type: domain.UploadMap})
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(files.files) != 0 || len(files.deleted) != 1 || !strings.HasPrefix(files.deleted[0], "category/2/files/") {
		t.Fatalf("file left behind: files %v deleted %v", files.files, files.deleted)
	}
}

func TestUploadServiceCreateValidates(t *testing.T) {
	svc := &UploadService{Uploads: &stubUploadsStore{t: t}, Files: newFakeFiles()}

	tests := []struct {
		name  string
		file  string
		meta  UploadMeta
		field string
	}{
		{"document as photo", "notes.pdf", UploadMeta{Type: domain.UploadPhoto}, "file"},
		{"script", "run.sh", UploadMeta{Type: domain.UploadDocument}, "file"},
		{"bad type", "a.jpg", UploadMeta{Type: 42}, "type"},
		{"long name", "a.jpg", UploadMeta{Name: strings.Repeat("x", 33), Type: domain.UploadPhoto}, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), domain.User{ID: 1}, domain.UploadOwner{Kind: domain.OwnerLocation, ID: 1},
				FileUpload{Name: tt.file, Body: strings.NewReader("x")}, tt.meta)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) || ve.Fields[tt.field] == "" {
				t.Fatalf("expected %s error, got %v", tt.field, err)
			}
		})
	}
}

func TestUploadServiceReplace(t *testing.T) {
	files := newFakeFiles()
	files.files["location/3/photos/old.jpg"] = "old"
	files.thumbs["location/3/photos/old.jpg"] = true
	stored := domain.Upload{ID: 9, Type: domain.UploadPhoto, Path: "location/3/photos/old.jpg", CreatedByID: 6}
	var updated domain.Upload
	svc := &UploadService{
		Uploads: &stubUploadsStore{
			t:                t,
			getUploadFunc:    func(context.Context, int64) (domain.Upload, error) { return stored, nil },
			updateUploadFunc: func(_ context.Context, u domain.Upload) error { updated = u; return nil },
		},
		Files:  files,
		Logger: discardLogger(),
	}

	if _, err := svc.Replace(context.Background(), domain.User{ID: 7, Role: domain.RoleUser}, 9, FileUpload{Name: "n.jpg", Body: strings.NewReader("n")}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	up, err := svc.Replace(context.Background(), domain.User{ID: 6, Role: domain.RoleUser}, 9, FileUpload{Name: "n.jpg", Body: strings.NewReader("n")})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if up.Path == stored.Path || updated.Path != up.Path || !strings.HasPrefix(up.Path, "location/3/photos/") {
		t.Fatalf("unexpected path: %q", up.Path)
	}
	if _, ok := files.files[stored.Path]; ok {
		t.Fatalf("old file kept")
	}
	if !files.thumbs[up.Path] {
		t.Fatalf("new thumbnail missing")
	}
}

func TestUploadServiceUpdateKeepsPhotoness(t *testing.T) {
	svc := &UploadService{Uploads: &stubUploadsStore{t: t, getUploadFunc: func(context.Context, int64) (domain.Upload, error) {
		return domain.Upload{ID: 1, Type: domain.UploadPhoto, CreatedByID: 2}, nil
	}}}
	_, err := svc.Update(context.Background(), domain.User{ID: 2, Role: domain.RoleUser}, 1, UploadMeta{Name: "x", Type: domain.UploadMap})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Fields["type"] == "" {
		t.Fatalf("expected type error, got %v", err)
	}
}

func TestUploadServiceDeleteRemovesRowThenFile(t *testing.T) {
	files := newFakeFiles()
	files.files["category/1/files/a.pdf"] = "a"
	var order []string
	svc := &UploadService{
		Uploads: &stubUploadsStore{
			t: t,
			getUploadFunc: func(context.Context, int64) (domain.Upload, error) {
				return domain.Upload{ID: 5, Path: "category/1/files/a.pdf", CreatedByID: 2}, nil
			},
			deleteUploadFunc: func(context.Context, int64) error {
				if _, ok := files.files["category/1/files/a.pdf"]; !ok {
					t.Fatalf("file removed before row")
				}
				order = append(order, "row")
				return nil
			},
		},
		Files:  files,
		Logger: discardLogger(),
	}

	if _, err := svc.Delete(context.Background(), domain.User{ID: 3, Role: domain.RoleModerator}, 5); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(order) != 1 || len(files.files) != 0 {
		t.Fatalf("unexpected state: order %v files %v", order, files.files)
	}
}

func TestUploadServiceOwner(t *testing.T) {
	svc := &UploadService{
		Locations: locationGetterFunc(func(_ context.Context, id int64) (domain.Location, error) {
			return domain.Location{ID: id, UUID: "l", OwnerID: 2, Published: false}, nil
		}),
		Visits: visitGetterFunc(func(_ context.Context, id int64) (domain.Visit, error) {
			return domain.Visit{ID: id, UUID: "v", UserID: 2, LocationID: 8}, nil
		}),
	}
	stranger := domain.User{ID: 9, Role: domain.RoleUser}
	owner := domain.User{ID: 2, Role: domain.RoleUser}

	if _, err := svc.Owner(context.Background(), stranger, domain.OwnerLocation, 8); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unpublished location: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Owner(context.Background(), stranger, domain.OwnerVisit, 1); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("foreign visit: expected ErrForbidden, got %v", err)
	}
	o, err := svc.Owner(context.Background(), owner, domain.OwnerVisit, 1)
	if err != nil || o.LocationID != 8 || o.Folder(domain.UploadPhoto) != "location/8/visits" {
		t.Fatalf("Owner: %+v, %v", o, err)
	}
}
