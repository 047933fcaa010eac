package postgres

import (
	"context"
	"errors"
	"fmt"

	"hiddenplaces/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoriesStore struct {
	pool *pgxpool.Pool
}

func NewCategoriesStore(pool *pgxpool.Pool) *CategoriesStore {
	return &CategoriesStore{pool: pool}
}

const categoryColumns = `c.id, c.uuid, c.name, c.description, c.about, c.owner_id, c.photo_id, coalesce(p.path, '')`

const categoryFrom = `
	FROM categories c
	LEFT JOIN uploads p ON p.id = c.photo_id
`

func scanCategory(row scanner) (domain.Category, error) {
	var (
		c         domain.Category
		id        pgtype.UUID
		ownerID   pgtype.Int8
		photoID   pgtype.Int8
		photoPath string
	)
	if err := row.Scan(&c.ID, &id, &c.Name, &c.Description, &c.About, &ownerID, &photoID, &photoPath); err != nil {
		return domain.Category{}, err
	}
	c.UUID = uuidOrEmpty(id)
	c.OwnerID = ownerID.Int64
	c.PhotoID = int8Ptr(photoID)
	if c.PhotoID != nil {
		c.Photo = &domain.Upload{ID: *c.PhotoID, Path: photoPath, Type: domain.UploadPhoto}
	}
	return c, nil
}

func (s *CategoriesStore) CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	const q = `
		INSERT INTO categories (uuid, name, description, about, owner_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	if err := s.pool.QueryRow(ctx, q, c.UUID, c.Name, c.Description, c.About, c.OwnerID).Scan(&c.ID); err != nil {
		return domain.Category{}, mapCategoryWriteError(err)
	}
	return c, nil
}

func (s *CategoriesStore) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	const q = `SELECT ` + categoryColumns + categoryFrom + ` WHERE c.id = $1`

	c, err := scanCategory(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Category{}, domain.ErrNotFound
		}
		return domain.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *CategoriesStore) UpdateCategory(ctx context.Context, c domain.Category) error {
	const q = `UPDATE categories SET name = $2, description = $3, about = $4 WHERE id = $1`

	tag, err := s.pool.Exec(ctx, q, c.ID, c.Name, c.Description, c.About)
	if err != nil {
		return mapCategoryWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *CategoriesStore) SetPhoto(ctx context.Context, id int64, uploadID *int64) error {
	const q = `UPDATE categories SET photo_id = $2 WHERE id = $1`

	tag, err := s.pool.Exec(ctx, q, id, uploadID)
	if err != nil {
		return fmt.Errorf("set category photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *CategoriesStore) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *CategoriesStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	const q = `SELECT ` + categoryColumns + categoryFrom + ` ORDER BY c.name`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func mapCategoryWriteError(err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" && pgerr.ConstraintName == "categories_name_uq" {
		return domain.FieldError("name", "Category with this name already exists.")
	}
	return fmt.Errorf("write category: %w", err)
}
