package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"hiddenplaces/internal/domain"
)

type CategoriesStore interface {
	CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error)
	GetCategory(ctx context.Context, id int64) (domain.Category, error)
	UpdateCategory(ctx context.Context, c domain.Category) error
	SetPhoto(ctx context.Context, id int64, uploadID *int64) error
	DeleteCategory(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type CategoryInput struct {
	Name        string
	Description string
	About       string
}

type CategoryService struct {
	Categories CategoriesStore
	Uploads    *UploadService
	Events     EventLogger
	Logger     *slog.Logger
}

func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	return s.Categories.ListCategories(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id int64) (domain.Category, error) {
	return s.Categories.GetCategory(ctx, id)
}

// Files lists the photos and documents attached to c.
func (s *CategoryService) Files(ctx context.Context, c domain.Category) (photos, files []domain.Upload, err error) {
	ups, err := s.Uploads.ListForOwner(ctx, c.UUID)
	if err != nil {
		return nil, nil, err
	}
	photos, files = splitUploads(ups)
	return photos, files, nil
}

func validateCategory(in CategoryInput, photo *FileUpload) (CategoryInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.About = strings.TrimSpace(in.About)

	fe := fieldErrors{}
	fe.required("name", in.Name)
	fe.maxLen("name", in.Name, domain.MaxCategoryNameLen)
	fe.maxLen("description", in.Description, domain.MaxDescriptionLen)
	if photo != nil {
		checkFile(fe, photo.Name, true)
	}
	return in, fe.err()
}

func (s *CategoryService) Create(ctx context.Context, actor domain.User, in CategoryInput, photo *FileUpload) (domain.Category, error) {
	in, err := validateCategory(in, photo)
	if err != nil {
		return domain.Category{}, err
	}
	c, err := s.Categories.CreateCategory(ctx, domain.Category{
		UUID:        uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		About:       in.About,
		OwnerID:     actor.ID,
	})
	if err != nil {
		return domain.Category{}, err
	}
	logEvent(ctx, s.Events, &actor, domain.CreateCategoryEvent(c))

	if photo != nil {
		if err := s.setTitlePhoto(ctx, actor, &c, *photo); err != nil {
			s.logger().Warn("store category photo failed", "category_id", c.ID, "err", err)
		}
	}
	return c, nil
}

// Edit is allowed to the creator of the category and to moderators.
func (s *CategoryService) Edit(ctx context.Context, actor domain.User, id int64, in CategoryInput, photo *FileUpload) (domain.Category, error) {
	c, err := s.Categories.GetCategory(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}
	if !actor.CanModify(c.OwnerID) {
		return domain.Category{}, domain.ErrForbidden
	}
	in, err = validateCategory(in, photo)
	if err != nil {
		return domain.Category{}, err
	}

	c.Name = in.Name
	c.Description = in.Description
	c.About = in.About
	if err := s.Categories.UpdateCategory(ctx, c); err != nil {
		return domain.Category{}, err
	}
	logEvent(ctx, s.Events, &actor, domain.ModifyCategoryEvent(c))

	if photo != nil {
		if err := s.setTitlePhoto(ctx, actor, &c, *photo); err != nil {
			return c, err
		}
	}
	return c, nil
}

// Delete removes a category and its uploads. Restricted to moderators.
func (s *CategoryService) Delete(ctx context.Context, actor domain.User, id int64) (domain.Category, error) {
	if !actor.Role.IsModerator() {
		return domain.Category{}, domain.ErrForbidden
	}
	c, err := s.Categories.GetCategory(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}
	if err := s.Uploads.DeleteForOwner(ctx, c.UUID); err != nil {
		return domain.Category{}, err
	}
	if err := s.Categories.DeleteCategory(ctx, id); err != nil {
		return domain.Category{}, err
	}
	logEvent(ctx, s.Events, &actor, domain.DeleteCategoryEvent(c))
	return c, nil
}

func (s *CategoryService) setTitlePhoto(ctx context.Context, actor domain.User, c *domain.Category, photo FileUpload) error {
	owner := domain.UploadOwner{Kind: domain.OwnerCategory, ID: c.ID, UUID: c.UUID, CreatedBy: c.OwnerID}
	up, err := s.Uploads.Create(ctx, actor, owner, photo, UploadMeta{Name: c.Name, Type: domain.UploadPhoto})
	if err != nil {
		return err
	}
	if err := s.Categories.SetPhoto(ctx, c.ID, &up.ID); err != nil {
		return err
	}
	c.PhotoID = &up.ID
	c.Photo = &up
	return nil
}

func (s *CategoryService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
