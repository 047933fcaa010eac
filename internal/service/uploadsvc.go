package service

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/storage"
)

type UploadsStore interface {
	CreateUpload(ctx context.Context, u domain.Upload) (domain.Upload, error)
	GetUpload(ctx context.Context, id int64) (domain.Upload, error)
	UpdateUpload(ctx context.Context, u domain.Upload) error
	DeleteUpload(ctx context.Context, id int64) error
	ListByObject(ctx context.Context, objectUUID string) ([]domain.Upload, error)
	ListByType(ctx context.Context, t domain.UploadType, page domain.PageRequest) (domain.PageResult[domain.Upload], error)
}

// Owner lookups used to resolve an UploadOwner from a URL.
type (
	LocationGetter interface {
		GetLocation(ctx context.Context, id int64) (domain.Location, error)
	}
	CategoryGetter interface {
		GetCategory(ctx context.Context, id int64) (domain.Category, error)
	}
	VisitGetter interface {
		GetVisit(ctx context.Context, id int64) (domain.Visit, error)
	}
)

type UploadMeta struct {
	Name        string
	Description string
	Type        domain.UploadType
}

// UploadService pairs upload rows with their files. Files are written
// before the row and removed again when the row write fails; on delete the
// row goes first, so a failure can leave a stray file but never a row
// without its file.
type UploadService struct {
	Uploads    UploadsStore
	Files      FileStore
	Locations  LocationGetter
	Categories CategoryGetter
	Visits     VisitGetter
	Logger     *slog.Logger
	Now        func() time.Time
}

func (s *UploadService) init() {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
}

// Owner resolves the object an upload is added to. Visit photos may only be
// added by the visitor or a moderator.
func (s *UploadService) Owner(ctx context.Context, actor domain.User, kind domain.OwnerKind, id int64) (domain.UploadOwner, error) {
	switch kind {
	case domain.OwnerLocation:
		l, err := s.Locations.GetLocation(ctx, id)
		if err != nil {
			return domain.UploadOwner{}, err
		}
		if !l.VisibleTo(actor) && !actor.Role.IsModerator() {
			return domain.UploadOwner{}, domain.ErrNotFound
		}
		return domain.UploadOwner{Kind: kind, ID: l.ID, UUID: l.UUID, LocationID: l.ID, CreatedBy: l.OwnerID}, nil
	case domain.OwnerCategory:
		c, err := s.Categories.GetCategory(ctx, id)
		if err != nil {
			return domain.UploadOwner{}, err
		}
		return domain.UploadOwner{Kind: kind, ID: c.ID, UUID: c.UUID, CreatedBy: c.OwnerID}, nil
	case domain.OwnerVisit:
		v, err := s.Visits.GetVisit(ctx, id)
		if err != nil {
			return domain.UploadOwner{}, err
		}
		if !actor.CanModify(v.UserID) {
			return domain.UploadOwner{}, domain.ErrForbidden
		}
		return domain.UploadOwner{Kind: kind, ID: v.ID, UUID: v.UUID, LocationID: v.LocationID, CreatedBy: v.UserID}, nil
	}
	return domain.UploadOwner{}, domain.ErrNotFound
}

func (s *UploadService) Get(ctx context.Context, id int64) (domain.Upload, error) {
	return s.Uploads.GetUpload(ctx, id)
}

func validateUploadMeta(fe fieldErrors, meta *UploadMeta) {
	meta.Name = strings.TrimSpace(meta.Name)
	meta.Description = strings.TrimSpace(meta.Description)
	fe.maxLen("name", meta.Name, domain.MaxUploadNameLen)
	fe.maxLen("description", meta.Description, domain.MaxUploadDescLen)
	if !meta.Type.Valid() {
		fe.add("type", "Choose a valid type.")
	}
}

func checkFile(fe fieldErrors, name string, photo bool) {
	if _, err := storage.CheckExtension(name, photo); err != nil {
		if photo {
			fe.add("file", "Upload a JPG, PNG or GIF image.")
		} else {
			fe.add("file", "This file type is not allowed.")
		}
	}
}

// Create stores file for owner. A missing name defaults to the file name.
func (s *UploadService) Create(ctx context.Context, actor domain.User, owner domain.UploadOwner, file FileUpload, meta UploadMeta) (domain.Upload, error) {
	s.init()
	if meta.Name == "" {
		meta.Name = truncate(strings.TrimSuffix(path.Base(file.Name), path.Ext(file.Name)), domain.MaxUploadNameLen)
	}
	fe := fieldErrors{}
	validateUploadMeta(fe, &meta)
	checkFile(fe, file.Name, meta.Type.IsPhoto())
	if err := fe.err(); err != nil {
		return domain.Upload{}, err
	}

	rel, err := s.store(owner.Folder(meta.Type), file, meta.Type.IsPhoto())
	if err != nil {
		return domain.Upload{}, err
	}

	up, err := s.Uploads.CreateUpload(ctx, domain.Upload{
		Name:        meta.Name,
		Description: meta.Description,
		Type:        meta.Type,
		Path:        rel,
		Created:     s.Now(),
		ObjectUUID:  owner.UUID,
		CreatedByID: actor.ID,
	})
	if err != nil {
		s.deleteFile(rel)
		return domain.Upload{}, err
	}
	return up, nil
}

// Replace swaps the file of an upload, keeping its row and metadata.
func (s *UploadService) Replace(ctx context.Context, actor domain.User, id int64, file FileUpload) (domain.Upload, error) {
	s.init()
	up, err := s.Uploads.GetUpload(ctx, id)
	if err != nil {
		return domain.Upload{}, err
	}
	if !actor.CanModify(up.CreatedByID) {
		return domain.Upload{}, domain.ErrForbidden
	}
	fe := fieldErrors{}
	checkFile(fe, file.Name, up.Type.IsPhoto())
	if err := fe.err(); err != nil {
		return domain.Upload{}, err
	}

	rel, err := s.store(path.Dir(up.Path), file, up.Type.IsPhoto())
	if err != nil {
		return domain.Upload{}, err
	}
	old := up.Path
	up.Path = rel
	if err := s.Uploads.UpdateUpload(ctx, up); err != nil {
		s.deleteFile(rel)
		return domain.Upload{}, err
	}
	s.deleteFile(old)
	return up, nil
}

// Update edits the metadata. A photo stays a photo type and a document a
// document type because only photos have thumbnails.
func (s *UploadService) Update(ctx context.Context, actor domain.User, id int64, meta UploadMeta) (domain.Upload, error) {
	up, err := s.Uploads.GetUpload(ctx, id)
	if err != nil {
		return domain.Upload{}, err
	}
	if !actor.CanModify(up.CreatedByID) {
		return domain.Upload{}, domain.ErrForbidden
	}
	fe := fieldErrors{}
	fe.required("name", meta.Name)
	validateUploadMeta(fe, &meta)
	if meta.Type.Valid() && meta.Type.IsPhoto() != up.Type.IsPhoto() {
		fe.add("type", "Choose a valid type.")
	}
	if err := fe.err(); err != nil {
		return domain.Upload{}, err
	}

	up.Name = meta.Name
	up.Description = meta.Description
	up.Type = meta.Type
	if err := s.Uploads.UpdateUpload(ctx, up); err != nil {
		return domain.Upload{}, err
	}
	return up, nil
}

func (s *UploadService) Delete(ctx context.Context, actor domain.User, id int64) (domain.Upload, error) {
	s.init()
	up, err := s.Uploads.GetUpload(ctx, id)
	if err != nil {
		return domain.Upload{}, err
	}
	if !actor.CanModify(up.CreatedByID) {
		return domain.Upload{}, domain.ErrForbidden
	}
	if err := s.Uploads.DeleteUpload(ctx, id); err != nil {
		return domain.Upload{}, err
	}
	s.deleteFile(up.Path)
	return up, nil
}

// DeleteForOwner removes every upload attached to objectUUID.
func (s *UploadService) DeleteForOwner(ctx context.Context, objectUUID string) error {
	s.init()
	ups, err := s.Uploads.ListByObject(ctx, objectUUID)
	if err != nil {
		return err
	}
	for _, up := range ups {
		if err := s.Uploads.DeleteUpload(ctx, up.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		s.deleteFile(up.Path)
	}
	return nil
}

func (s *UploadService) ListForOwner(ctx context.Context, objectUUID string) ([]domain.Upload, error) {
	return s.Uploads.ListByObject(ctx, objectUUID)
}

// Library pages through uploaded books.
func (s *UploadService) Library(ctx context.Context, page domain.PageRequest) (domain.PageResult[domain.Upload], error) {
	return s.Uploads.ListByType(ctx, domain.UploadBook, page)
}

// store saves file and, for photos, its thumbnail.
func (s *UploadService) store(folder string, file FileUpload, photo bool) (string, error) {
	rel, err := s.Files.Save(folder, file.Body, file.Name, photo)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFile) {
			return "", domain.FieldError("file", "This file type is not allowed.")
		}
		return "", err
	}
	if photo {
		if err := s.Files.Thumbnail(rel); err != nil {
			s.deleteFile(rel)
			return "", err
		}
	}
	return rel, nil
}

func (s *UploadService) deleteFile(rel string) {
	if err := s.Files.Delete(rel); err != nil {
		s.Logger.Warn("delete file failed", "path", rel, "err", err)
	}
}

// splitUploads separates photos from other documents.
func splitUploads(ups []domain.Upload) (photos, files []domain.Upload) {
	for _, u := range ups {
		if u.Type.IsPhoto() {
			photos = append(photos, u)
		} else {
			files = append(files, u)
		}
	}
	return photos, files
}
