package domain

import (
	"fmt"
	"path"
	"time"
)

const MaxUploadNameLen = 32

type UploadType int

const (
	UploadOther UploadType = iota
	UploadPhoto
	UploadHistoricalPhoto
	UploadMap
	UploadArticle
	UploadBook
	UploadDocument
)

var uploadTypeLabels = []string{"Other", "Photo", "Historical photo", "Map", "Article", "Book", "Document"}

func (t UploadType) String() string { return label(uploadTypeLabels, int(t)) }
func (t UploadType) Valid() bool    { return inRange(uploadTypeLabels, int(t)) }

// IsPhoto reports whether files of this type are images that get thumbnails.
func (t UploadType) IsPhoto() bool { return t == UploadPhoto || t == UploadHistoricalPhoto }

func PhotoTypeOptions() []Option {
	return []Option{
		{Value: int(UploadPhoto), Label: UploadPhoto.String()},
		{Value: int(UploadHistoricalPhoto), Label: UploadHistoricalPhoto.String()},
	}
}

func DocumentTypeOptions() []Option {
	out := make([]Option, 0, len(uploadTypeLabels))
	for i, l := range uploadTypeLabels {
		if UploadType(i).IsPhoto() {
			continue
		}
		out = append(out, Option{Value: i, Label: l})
	}
	return out
}

type Upload struct {
	ID          int64
	Name        string
	Description string
	Type        UploadType
	Path        string
	Created     time.Time
	ObjectUUID  string
	CreatedByID int64
}

func (u Upload) URL() string { return "/upload/" + u.Path }

func (u Upload) ThumbnailURL() string { return "/upload/" + ThumbnailPath(u.Path) }

// ThumbnailPath returns dir/thumbnail/name for a stored file path.
func ThumbnailPath(p string) string {
	dir, file := path.Split(p)
	return path.Join(dir, "thumbnail", file)
}

type OwnerKind string

const (
	OwnerLocation OwnerKind = "location"
	OwnerCategory OwnerKind = "category"
	OwnerVisit    OwnerKind = "visit"
)

func ParseOwnerKind(s string) (OwnerKind, bool) {
	switch OwnerKind(s) {
	case OwnerLocation, OwnerCategory, OwnerVisit:
		return OwnerKind(s), true
	}
	return "", false
}

// UploadOwner identifies the object an upload is attached to. For visits
// LocationID names the location the visit belongs to.
type UploadOwner struct {
	Kind       OwnerKind
	ID         int64
	UUID       string
	LocationID int64
	CreatedBy  int64
}

// Folder is the storage subfolder for files of the given type.
func (o UploadOwner) Folder(t UploadType) string {
	switch o.Kind {
	case OwnerVisit:
		return fmt.Sprintf("location/%d/visits", o.LocationID)
	case OwnerCategory:
		if t.IsPhoto() {
			return fmt.Sprintf("category/%d/photos", o.ID)
		}
		return fmt.Sprintf("category/%d/files", o.ID)
	default:
		if t.IsPhoto() {
			return fmt.Sprintf("location/%d/photos", o.ID)
		}
		return fmt.Sprintf("location/%d/files", o.ID)
	}
}

// ReturnURL is the page that shows uploads of the owner.
func (o UploadOwner) ReturnURL() string {
	switch o.Kind {
	case OwnerCategory:
		return fmt.Sprintf("/category/%d", o.ID)
	case OwnerVisit:
		return fmt.Sprintf("/location/%d", o.LocationID)
	default:
		return fmt.Sprintf("/location/%d", o.ID)
	}
}
