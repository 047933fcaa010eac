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

type LinksStore struct {
	pool *pgxpool.Pool
}

func NewLinksStore(pool *pgxpool.Pool) *LinksStore {
	return &LinksStore{pool: pool}
}

func (s *LinksStore) CreateLink(ctx context.Context, l domain.Link) (domain.Link, error) {
	const q = `
		INSERT INTO links (name, url, created_by_id, location_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	if err := s.pool.QueryRow(ctx, q, l.Name, l.URL, l.CreatedByID, l.LocationID).Scan(&l.ID); err != nil {
		return domain.Link{}, fmt.Errorf("create link: %w", err)
	}
	return l, nil
}

func (s *LinksStore) GetLink(ctx context.Context, id int64) (domain.Link, error) {
	const q = `SELECT id, name, url, created_by_id, location_id FROM links WHERE id = $1`

	l, err := scanLink(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Link{}, domain.ErrNotFound
		}
		return domain.Link{}, fmt.Errorf("get link: %w", err)
	}
	return l, nil
}

func (s *LinksStore) DeleteLink(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *LinksStore) ListLinks(ctx context.Context, locationID int64) ([]domain.Link, error) {
	const q = `SELECT id, name, url, created_by_id, location_id FROM links WHERE location_id = $1 ORDER BY name, id`

	rows, err := s.pool.Query(ctx, q, locationID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var out []domain.Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanLink(row scanner) (domain.Link, error) {
	var (
		l         domain.Link
		createdBy pgtype.Int8
	)
	if err := row.Scan(&l.ID, &l.Name, &l.URL, &createdBy, &l.LocationID); err != nil {
		return domain.Link{}, err
	}
	l.CreatedByID = createdBy.Int64
	return l, nil
}

type POIsStore struct {
	pool *pgxpool.Pool
}

func NewPOIsStore(pool *pgxpool.Pool) *POIsStore {
	return &POIsStore{pool: pool}
}

func (s *POIsStore) CreatePOI(ctx context.Context, p domain.POI) (domain.POI, error) {
	const q = `
		INSERT INTO pois (name, description, type, latitude, longitude, created_by_id, location_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := s.pool.QueryRow(ctx, q, p.Name, p.Description, int16(p.Type), p.Latitude.Value, p.Longitude.Value, p.CreatedByID, p.LocationID).Scan(&p.ID)
	if err != nil {
		return domain.POI{}, fmt.Errorf("create poi: %w", err)
	}
	return p, nil
}

func (s *POIsStore) GetPOI(ctx context.Context, id int64) (domain.POI, error) {
	const q = `SELECT id, name, description, type, latitude, longitude, created_by_id, location_id FROM pois WHERE id = $1`

	p, err := scanPOI(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.POI{}, domain.ErrNotFound
		}
		return domain.POI{}, fmt.Errorf("get poi: %w", err)
	}
	return p, nil
}

func (s *POIsStore) DeletePOI(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM pois WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete poi: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *POIsStore) ListPOIs(ctx context.Context, locationID int64) ([]domain.POI, error) {
	const q = `
		SELECT id, name, description, type, latitude, longitude, created_by_id, location_id
		FROM pois
		WHERE location_id = $1
		ORDER BY name, id
	`

	rows, err := s.pool.Query(ctx, q, locationID)
	if err != nil {
		return nil, fmt.Errorf("list pois: %w", err)
	}
	defer rows.Close()

	var out []domain.POI
	for rows.Next() {
		p, err := scanPOI(rows)
		if err != nil {
			return nil, fmt.Errorf("scan poi: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPOI(row scanner) (domain.POI, error) {
	var (
		p         domain.POI
		lat, lon  float64
		createdBy pgtype.Int8
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Type, &lat, &lon, &createdBy, &p.LocationID); err != nil {
		return domain.POI{}, err
	}
	p.Latitude = domain.LatLon{Value: lat, IsLatitude: true}
	p.Longitude = domain.LatLon{Value: lon}
	p.CreatedByID = createdBy.Int64
	return p, nil
}
