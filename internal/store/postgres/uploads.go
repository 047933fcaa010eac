package postgres

import (
	"context"
	"errors"
	"fmt"

	"hiddenplaces/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UploadsStore struct {
	pool *pgxpool.Pool
}

func NewUploadsStore(pool *pgxpool.Pool) *UploadsStore {
	return &UploadsStore{pool: pool}
}

const uploadColumns = `id, name, description, type, path, created, object_uuid, created_by_id`

func scanUpload(row scanner, extra ...any) (domain.Upload, error) {
	var (
		u         domain.Upload
		objectID  pgtype.UUID
		createdBy pgtype.Int8
	)
	dest := []any{&u.ID, &u.Name, &u.Description, &u.Type, &u.Path, &u.Created, &objectID, &createdBy}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Upload{}, err
	}
	u.ObjectUUID = uuidOrEmpty(objectID)
	u.CreatedByID = createdBy.Int64
	return u, nil
}

func (s *UploadsStore) CreateUpload(ctx context.Context, u domain.Upload) (domain.Upload, error) {
	const q = `
		INSERT INTO uploads (name, description, type, path, created, object_uuid, created_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := s.pool.QueryRow(ctx, q, u.Name, u.Description, int16(u.Type), u.Path, u.Created, u.ObjectUUID, u.CreatedByID).Scan(&u.ID)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("create upload: %w", err)
	}
	return u, nil
}

func (s *UploadsStore) GetUpload(ctx context.Context, id int64) (domain.Upload, error) {
	const q = `SELECT ` + uploadColumns + ` FROM uploads WHERE id = $1`

	u, err := scanUpload(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Upload{}, domain.ErrNotFound
		}
		return domain.Upload{}, fmt.Errorf("get upload: %w", err)
	}
	return u, nil
}

func (s *UploadsStore) UpdateUpload(ctx context.Context, u domain.Upload) error {
	const q = `UPDATE uploads SET name = $2, description = $3, type = $4, path = $5 WHERE id = $1`

	tag, err := s.pool.Exec(ctx, q, u.ID, u.Name, u.Description, int16(u.Type), u.Path)
	if err != nil {
		return fmt.Errorf("update upload: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *UploadsStore) DeleteUpload(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM uploads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByObject returns every upload attached to the object with the given uuid.
func (s *UploadsStore) ListByObject(ctx context.Context, objectUUID string) ([]domain.Upload, error) {
	const q = `SELECT ` + uploadColumns + ` FROM uploads WHERE object_uuid = $1 ORDER BY created, id`

	rows, err := s.pool.Query(ctx, q, objectUUID)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var out []domain.Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *UploadsStore) ListByType(ctx context.Context, t domain.UploadType, page domain.PageRequest) (domain.PageResult[domain.Upload], error) {
	const q = `
		SELECT ` + uploadColumns + `, count(*) OVER ()
		FROM uploads
		WHERE type = $1
		ORDER BY name, id
		LIMIT $2 OFFSET $3
	`

	limit, offset := pageArgs(page)
	rows, err := s.pool.Query(ctx, q, int16(t), limit, offset)
	if err != nil {
		return domain.PageResult[domain.Upload]{}, fmt.Errorf("list uploads by type: %w", err)
	}
	defer rows.Close()

	var (
		out   []domain.Upload
		total int
	)
	for rows.Next() {
		u, err := scanUpload(rows, &total)
		if err != nil {
			return domain.PageResult[domain.Upload]{}, fmt.Errorf("scan upload: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return domain.PageResult[domain.Upload]{}, fmt.Errorf("list uploads by type: %w", err)
	}
	return pageResult(out, total, page), nil
}
